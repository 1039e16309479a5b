// Package config loads the process-level settings cmd/signer needs to
// wire the Share Store, Room Bus, and Sign Coordinator together.
package config

import (
	"fmt"
	"time"
)

type Config struct {
	// ListenAddr is where the Room Bus HTTP/SSE surface binds.
	ListenAddr string
	// PeerAddr is the co-signer's Room Bus/coordinator endpoint.
	PeerAddr string
	// KeySharePath is the JSON key-share document keyshare.Load reads at
	// startup.
	KeySharePath string
	// SessionTimeout bounds how long a signing session may run before
	// the coordinator tears it down.
	SessionTimeout time.Duration
	// HistoryWindow bounds how many events a room retains for replay.
	HistoryWindow int
	// SubscriberBuffer sizes each room subscriber's delivery channel.
	SubscriberBuffer int
	// DegenerateNonceRetries bounds how many times the coordinator will
	// restart a session after a degenerate-nonce abort.
	DegenerateNonceRetries int
}

func Default() Config {
	return Config{
		ListenAddr:             ":7420",
		SessionTimeout:         30 * time.Second,
		HistoryWindow:          256,
		SubscriberBuffer:       64,
		DegenerateNonceRetries: 3,
	}
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.KeySharePath == "" {
		return fmt.Errorf("config: key share path is required")
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("config: history window must be positive")
	}
	if c.SubscriberBuffer <= 0 {
		return fmt.Errorf("config: subscriber buffer must be positive")
	}
	return nil
}
