// Package wire defines the Msg<T> envelope the Room Bus carries and the
// Protocol Driver's rounds exchange, framed with cbor instead of a
// generated protobuf wire type.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Envelope is the room-bus-level wrapper around one round's content: who
// sent it, who it's addressed to (nil means broadcast), and the
// cbor-encoded round payload.
type Envelope struct {
	Sender   uint16  `cbor:"sender"`
	Receiver *uint16 `cbor:"receiver,omitempty"`
	Round    int     `cbor:"round"`
	Body     []byte  `cbor:"body"`
}

func (e Envelope) IsBroadcast() bool {
	return e.Receiver == nil
}

// Pack cbor-encodes payload into an Envelope's Body.
func Pack(sender uint16, receiver *uint16, round int, payload interface{}) (Envelope, error) {
	body, err := cbor.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("wire: marshal round %d payload: %w", round, err)
	}
	return Envelope{Sender: sender, Receiver: receiver, Round: round, Body: body}, nil
}

// Unpack cbor-decodes an Envelope's Body into out.
func Unpack(e Envelope, out interface{}) error {
	if err := cbor.Unmarshal(e.Body, out); err != nil {
		return fmt.Errorf("wire: unmarshal round %d payload: %w", e.Round, err)
	}
	return nil
}

// MarshalEnvelope/UnmarshalEnvelope frame an Envelope itself for
// transport over the Room Bus's HTTP surface. The peer RPC channel does
// not carry envelopes; it exchanges JSON SignMessage/SignatureMessage.
func MarshalEnvelope(e Envelope) ([]byte, error) {
	return cbor.Marshal(e)
}

func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	err := cbor.Unmarshal(b, &e)
	return e, err
}
