package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBus() *Bus {
	return NewBus(Config{HistoryWindow: 4, SubscriberBuffer: 2})
}

func recvWithTimeout(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcastAssignsMonotonicEventIDs(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	id0, err := bus.Broadcast(ctx, "room-1", Msg{Sender: 0, Body: []byte("a")})
	require.NoError(t, err)
	id1, err := bus.Broadcast(ctx, "room-1", Msg{Sender: 0, Body: []byte("b")})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), id0)
	assert.Equal(t, uint64(1), id1)
}

func TestSubscribeReceivesLiveBroadcasts(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "room-1", 1, nil)
	require.NoError(t, err)

	_, err = bus.Broadcast(ctx, "room-1", Msg{Sender: 0, Body: []byte("hello")})
	require.NoError(t, err)

	ev := recvWithTimeout(t, sub)
	assert.Equal(t, []byte("hello"), ev.Msg.Body)
}

func TestBroadcastDoesNotDeliverToSender(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "room-1", 0, nil)
	require.NoError(t, err)

	_, err = bus.Broadcast(ctx, "room-1", Msg{Sender: 0, Body: []byte("self")})
	require.NoError(t, err)
	_, err = bus.Broadcast(ctx, "room-1", Msg{Sender: 1, Body: []byte("other")})
	require.NoError(t, err)

	ev := recvWithTimeout(t, sub)
	assert.Equal(t, []byte("other"), ev.Msg.Body)
}

func TestUnicastOnlyReachesAddressedSubscriber(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	subA, err := bus.Subscribe(ctx, "room-1", 0, nil)
	require.NoError(t, err)
	subB, err := bus.Subscribe(ctx, "room-1", 1, nil)
	require.NoError(t, err)

	receiver := uint16(1)
	_, err = bus.Broadcast(ctx, "room-1", Msg{Sender: 2, Receiver: &receiver, Body: []byte("only-b")})
	require.NoError(t, err)

	ev := recvWithTimeout(t, subB)
	assert.Equal(t, []byte("only-b"), ev.Msg.Body)

	select {
	case <-subA.Events():
		t.Fatal("unrelated subscriber received a unicast message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeResumesFromLastEventID(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := bus.Broadcast(ctx, "room-1", Msg{Sender: 0, Body: []byte{byte(i)}})
		require.NoError(t, err)
	}

	last := uint64(0)
	sub, err := bus.Subscribe(ctx, "room-1", 1, &last)
	require.NoError(t, err)

	ev1 := recvWithTimeout(t, sub)
	assert.Equal(t, uint64(1), ev1.ID)
	ev2 := recvWithTimeout(t, sub)
	assert.Equal(t, uint64(2), ev2.ID)
}

func TestSubscribeRejectsHistoryGap(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := bus.Broadcast(ctx, "room-1", Msg{Sender: 0, Body: []byte{byte(i)}})
		require.NoError(t, err)
	}

	stale := uint64(0)
	_, err := bus.Subscribe(ctx, "room-1", 1, &stale)
	assert.ErrorIs(t, err, ErrHistoryGap)
}

func TestSlowSubscriberIsDroppedNotBlocking(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	slow, err := bus.Subscribe(ctx, "room-1", 1, nil)
	require.NoError(t, err)
	fast, err := bus.Subscribe(ctx, "room-1", 2, nil)
	require.NoError(t, err)

	// Buffer size is 2; sending 3 fills and overflows the slow subscriber
	// without slow ever draining it, while fast drains each event as it
	// arrives and keeps receiving.
	for i := 0; i < 3; i++ {
		_, err := bus.Broadcast(ctx, "room-1", Msg{Sender: 0, Body: []byte{byte(i)}})
		require.NoError(t, err)
		recvWithTimeout(t, fast)
	}

	select {
	case cerr := <-slow.Errs():
		assert.ErrorIs(t, cerr, ErrSubscriberDropped)
	case <-time.After(time.Second):
		t.Fatal("slow subscriber was never dropped")
	}
}

func TestCloseTerminatesSubscriptionsAndRejectsResurrection(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "room-1", 1, nil)
	require.NoError(t, err)

	require.NoError(t, bus.Close("room-1"))

	select {
	case cerr := <-sub.Errs():
		assert.ErrorIs(t, cerr, ErrRoomClosed)
	case <-time.After(time.Second):
		t.Fatal("closed subscriber was never notified")
	}

	_, err = bus.Broadcast(ctx, "room-1", Msg{Sender: 0, Body: []byte("x")})
	assert.ErrorIs(t, err, ErrRoomClosed)

	_, err = bus.Subscribe(ctx, "room-1", 1, nil)
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestIssueUniqueIndexIsStrictlyIncreasingPerRoom(t *testing.T) {
	bus := testBus()
	ctx := context.Background()

	idx0, err := bus.IssueUniqueIndex(ctx, "room-1")
	require.NoError(t, err)
	idx1, err := bus.IssueUniqueIndex(ctx, "room-1")
	require.NoError(t, err)
	idx0Other, err := bus.IssueUniqueIndex(ctx, "room-2")
	require.NoError(t, err)

	assert.Equal(t, uint16(0), idx0)
	assert.Equal(t, uint16(1), idx1)
	assert.Equal(t, uint16(0), idx0Other)
}
