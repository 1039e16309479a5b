package wire

import (
	"encoding/binary"
	"fmt"
)

// NoneReceiver is the wire sentinel for Msg.Receiver == nil (broadcast).
const NoneReceiver = 0xFFFF

// MarshalMsg is the canonical Msg<bytes> wire format the Room Bus's HTTP
// surface exchanges: sender u16 big-endian, receiver u16 big-endian
// (NoneReceiver for None), then the opaque body.
func MarshalMsg(sender uint16, receiver *uint16, body []byte) []byte {
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint16(buf[0:2], sender)
	recv := uint16(NoneReceiver)
	if receiver != nil {
		recv = *receiver
	}
	binary.BigEndian.PutUint16(buf[2:4], recv)
	copy(buf[4:], body)
	return buf
}

// UnmarshalMsg is MarshalMsg's inverse.
func UnmarshalMsg(b []byte) (sender uint16, receiver *uint16, body []byte, err error) {
	if len(b) < 4 {
		return 0, nil, nil, fmt.Errorf("wire: malformed Msg, too short")
	}
	sender = binary.BigEndian.Uint16(b[0:2])
	recvRaw := binary.BigEndian.Uint16(b[2:4])
	body = append([]byte(nil), b[4:]...)
	if recvRaw != NoneReceiver {
		r := recvRaw
		receiver = &r
	}
	return sender, receiver, body, nil
}
