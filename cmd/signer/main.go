// Command signer is the per-participant process: it loads a key-share
// document, serves the Room Bus's HTTP surface and the Sign
// Coordinator's peer RPC endpoint on the same listener, and answers
// sign requests until terminated.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/binance-chain/wallet-mpc-signer/internal/config"
	"github.com/binance-chain/wallet-mpc-signer/internal/log"
	"github.com/binance-chain/wallet-mpc-signer/pkg/coordinator"
	"github.com/binance-chain/wallet-mpc-signer/pkg/gateway"
	"github.com/binance-chain/wallet-mpc-signer/pkg/keyshare"
)

var logger = log.Named("signer")

func main() {
	cfg := config.Default()

	var selfIndex, peerIndex int
	var logLevel string
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Room Bus / peer RPC listen address")
	flag.StringVar(&cfg.PeerAddr, "peer", cfg.PeerAddr, "co-signer's Room Bus / coordinator base address")
	flag.StringVar(&cfg.KeySharePath, "keyshare", cfg.KeySharePath, "key share JSON document path")
	flag.DurationVar(&cfg.SessionTimeout, "session-timeout", cfg.SessionTimeout, "per-session deadline")
	flag.IntVar(&cfg.HistoryWindow, "history-window", cfg.HistoryWindow, "room bus replay window")
	flag.IntVar(&cfg.SubscriberBuffer, "subscriber-buffer", cfg.SubscriberBuffer, "room bus per-subscriber buffer size")
	flag.IntVar(&cfg.DegenerateNonceRetries, "degenerate-nonce-retries", cfg.DegenerateNonceRetries, "retry cap for R = O")
	flag.IntVar(&selfIndex, "self-index", 0, "this participant's session-local party index")
	flag.IntVar(&peerIndex, "peer-index", 1, "the co-signer's session-local party index")
	flag.StringVar(&logLevel, "log-level", "info", "log level for every subsystem logger")
	flag.Parse()

	if err := log.SetLevel("*", logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "signer: invalid log level %q: %s\n", logLevel, err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.Errorf("config: %s", err)
		os.Exit(1)
	}

	store, err := loadStore(cfg.KeySharePath)
	if err != nil {
		logger.Errorf("key share load failed: %s", err)
		os.Exit(1)
	}
	logger.Infof("loaded %d account(s) from %s", len(store.Accounts()), cfg.KeySharePath)

	bus := gateway.NewBus(gateway.Config{
		HistoryWindow:    cfg.HistoryWindow,
		SubscriberBuffer: cfg.SubscriberBuffer,
	})

	peer := coordinator.NewHTTPPeerClient(cfg.PeerAddr, cfg.SessionTimeout)
	coord := coordinator.New(coordinator.Config{
		SelfIndex:              selfIndex,
		PeerIndex:              peerIndex,
		PeerBusAddr:            cfg.PeerAddr,
		SessionTimeout:         cfg.SessionTimeout,
		DegenerateNonceRetries: cfg.DegenerateNonceRetries,
	}, store, bus, peer)

	// gatewaySrv already owns /healthz and /rooms/; only /sign needs a
	// separate mount point alongside it.
	mux := http.NewServeMux()
	gatewaySrv := gateway.NewServer(bus)
	coordinatorSrv := coordinator.NewServer(coord)
	mux.Handle("/rooms/", gatewaySrv)
	mux.Handle("/healthz", gatewaySrv)
	mux.Handle("/sign", coordinatorSrv)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if err := awaitShutdown(errCh); err != nil {
		logger.Errorf("bus bind failure: %s", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	if err := bus.CloseAll(); err != nil {
		logger.Warnf("closing rooms on shutdown: %s", err)
	}
}

func loadStore(path string) (*keyshare.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return keyshare.Load(f)
}

// awaitShutdown blocks until SIGINT/SIGTERM, or returns early with the
// listener's bind error if it fails before a signal arrives.
func awaitShutdown(errCh <-chan error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		return nil
	}
}
