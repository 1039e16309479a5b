package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/pkg/gateway"
	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
)

// busTransport is the signing.Transport the Coordinator hands the
// Protocol Driver: outbound round messages are POSTed to the peer's
// Room Bus broadcast endpoint (so the peer's own bus delivers them to
// its driver); inbound messages are read from this process's own local
// bus subscription, fed by the peer's equivalent POSTs against this
// process's Room Bus HTTP surface.
type busTransport struct {
	roomID      string
	peerBusAddr string
	client      *http.Client
	sub         *gateway.Subscription
}

func newBusTransport(ctx context.Context, bus *gateway.Bus, roomID string, ids party.SortedIDs, ourIdx int, peerBusAddr string) (*busTransport, error) {
	selfIdx := uint16(ids[ourIdx].Index)
	sub, err := bus.Subscribe(ctx, roomID, selfIdx, nil)
	if err != nil {
		return nil, err
	}
	return &busTransport{
		roomID:      roomID,
		peerBusAddr: peerBusAddr,
		client:      &http.Client{},
		sub:         sub,
	}, nil
}

func (t *busTransport) Send(ctx context.Context, env wire.Envelope) error {
	envBytes, err := wire.MarshalEnvelope(env)
	if err != nil {
		return err
	}
	body := wire.MarshalMsg(env.Sender, env.Receiver, envBytes)

	url := fmt.Sprintf("%s/rooms/%s/broadcast", t.peerBusAddr, t.roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("coordinator: peer broadcast rejected (%d): %s", resp.StatusCode, b)
	}
	return nil
}

func (t *busTransport) Recv(ctx context.Context) (wire.Envelope, error) {
	select {
	case ev, ok := <-t.sub.Events():
		if !ok {
			if cerr := <-t.sub.Errs(); cerr != nil {
				return wire.Envelope{}, cerr
			}
			return wire.Envelope{}, fmt.Errorf("coordinator: subscription closed")
		}
		return wire.UnmarshalEnvelope(ev.Msg.Body)
	case <-ctx.Done():
		return wire.Envelope{}, ctx.Err()
	}
}
