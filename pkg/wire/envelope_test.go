package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type examplePayload struct {
	A int
	B string
}

func TestPackUnpackRoundTrip(t *testing.T) {
	recv := uint16(3)
	env, err := Pack(1, &recv, 2, examplePayload{A: 7, B: "hi"})
	require.NoError(t, err)

	var out examplePayload
	require.NoError(t, Unpack(env, &out))
	assert.Equal(t, examplePayload{A: 7, B: "hi"}, out)
}

func TestEnvelopeMarshalUnmarshalRoundTrip(t *testing.T) {
	recv := uint16(5)
	env, err := Pack(0, &recv, 1, examplePayload{A: 1, B: "x"})
	require.NoError(t, err)

	raw, err := MarshalEnvelope(env)
	require.NoError(t, err)

	got, err := UnmarshalEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, env, got)
}

func TestEnvelopeBroadcastHasNilReceiver(t *testing.T) {
	env, err := Pack(0, nil, 4, examplePayload{A: 9, B: "z"})
	require.NoError(t, err)
	assert.True(t, env.IsBroadcast())
}

func TestMarshalUnmarshalMsgRoundTrip(t *testing.T) {
	recv := uint16(42)
	body := []byte("round payload bytes")

	raw := MarshalMsg(1, &recv, body)
	sender, receiver, got, err := UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), sender)
	require.NotNil(t, receiver)
	assert.Equal(t, uint16(42), *receiver)
	assert.Equal(t, body, got)
}

func TestMarshalUnmarshalMsgBroadcast(t *testing.T) {
	raw := MarshalMsg(2, nil, []byte("b"))
	_, receiver, _, err := UnmarshalMsg(raw)
	require.NoError(t, err)
	assert.Nil(t, receiver)
}

func TestUnmarshalMsgRejectsShortInput(t *testing.T) {
	_, _, _, err := UnmarshalMsg([]byte{0, 1})
	assert.Error(t, err)
}
