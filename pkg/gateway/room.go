// Package gateway is the Room Bus: a set of lazily-created rooms, each a
// tiny local message broker a Protocol Driver's Transport sits on top of.
// Every room serializes its own history/subscriber state behind its own
// mutex; rooms never block each other.
package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/binance-chain/wallet-mpc-signer/internal/log"
)

var logger = log.Named("gateway")

// Msg is the bus-level envelope: who sent it, who it's addressed to (nil
// means broadcast to every other room member), and an opaque body the
// bus never inspects.
type Msg struct {
	Sender   uint16
	Receiver *uint16
	Body     []byte
}

// Event pairs a Msg with the room-local, monotonically increasing id the
// room assigned it at Broadcast time.
type Event struct {
	ID  uint64
	Msg Msg
}

// Subscription is a live view onto one room's event stream: history
// replay (if requested) followed by everything broadcast afterward.
// Events stops delivering and Errs yields a non-nil error once the
// subscription ends, whether by overflow or by the room closing.
type Subscription struct {
	id      uint64
	partyID uint16
	events  chan Event
	errc    chan error
}

func (s *Subscription) Events() <-chan Event { return s.events }
func (s *Subscription) Errs() <-chan error   { return s.errc }

// Config bounds the resources one Bus's rooms may consume.
type Config struct {
	// HistoryWindow is how many past events a room retains for replay.
	HistoryWindow int
	// SubscriberBuffer sizes each subscription's delivery channel.
	SubscriberBuffer int
}

// Bus owns a set of independent rooms, created lazily on first use and
// torn down explicitly via Close.
type Bus struct {
	cfg Config

	mu     sync.RWMutex
	rooms  map[string]*room
	closed map[string]struct{}
}

func NewBus(cfg Config) *Bus {
	return &Bus{
		cfg:    cfg,
		rooms:  make(map[string]*room),
		closed: make(map[string]struct{}),
	}
}

// room is one room's entire state, serialized behind its own mutex so
// that work in one room never blocks another.
type room struct {
	id  string
	cfg Config

	mu           sync.Mutex
	nextEventID  uint64
	oldestID     uint64 // event id of history[0], meaningful only if history is non-empty
	history      []Event
	subscribers  map[uint64]*Subscription
	nextSubID    uint64
	indexCounter uint16
}

func newRoom(id string, cfg Config) *room {
	return &room{
		id:          id,
		cfg:         cfg,
		subscribers: make(map[uint64]*Subscription),
	}
}

// getOrCreate returns the named room, refusing to resurrect one that was
// explicitly Close'd.
func (b *Bus) getOrCreate(roomID string) (*room, error) {
	b.mu.RLock()
	if _, dead := b.closed[roomID]; dead {
		b.mu.RUnlock()
		return nil, ErrRoomClosed
	}
	if r, ok := b.rooms[roomID]; ok {
		b.mu.RUnlock()
		return r, nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dead := b.closed[roomID]; dead {
		return nil, ErrRoomClosed
	}
	if r, ok := b.rooms[roomID]; ok {
		return r, nil
	}
	r := newRoom(roomID, b.cfg)
	b.rooms[roomID] = r
	return r, nil
}

// Broadcast assigns the next event id to msg, stores it for replay, and
// delivers it to every current subscriber (or, if msg.Receiver is set,
// to that one subscriber only). Returns the assigned event id.
func (b *Bus) Broadcast(ctx context.Context, roomID string, msg Msg) (uint64, error) {
	r, err := b.getOrCreate(roomID)
	if err != nil {
		return 0, err
	}
	return r.broadcast(msg)
}

func (r *room) broadcast(msg Msg) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextEventID
	r.nextEventID++
	ev := Event{ID: id, Msg: msg}

	if len(r.history) == 0 {
		r.oldestID = id
	}
	r.history = append(r.history, ev)
	if over := len(r.history) - r.cfg.historyWindow(); over > 0 {
		r.history = r.history[over:]
		r.oldestID = r.history[0].ID
	}

	for subID, sub := range r.subscribers {
		if sub.partyID == msg.Sender {
			continue
		}
		if msg.Receiver != nil && *msg.Receiver != sub.partyID {
			continue
		}
		r.deliver(subID, sub, ev)
	}
	return id, nil
}

// deliver is a non-blocking send: an overflowing subscriber is dropped
// instead of stalling the rest of the room.
func (r *room) deliver(subID uint64, sub *Subscription, ev Event) {
	select {
	case sub.events <- ev:
	default:
		r.dropLocked(subID, ErrSubscriberDropped)
	}
}

// dropLocked removes a subscriber and signals why. Caller must hold r.mu.
func (r *room) dropLocked(subID uint64, cause error) {
	sub, ok := r.subscribers[subID]
	if !ok {
		return
	}
	delete(r.subscribers, subID)
	select {
	case sub.errc <- cause:
	default:
	}
	close(sub.events)
	close(sub.errc)
}

func (c Config) historyWindow() int {
	if c.HistoryWindow <= 0 {
		return 256
	}
	return c.HistoryWindow
}

func (c Config) subscriberBuffer() int {
	if c.SubscriberBuffer <= 0 {
		return 64
	}
	return c.SubscriberBuffer
}

// Subscribe opens a live subscription to roomID on behalf of partyID
// (the session-local party index this subscriber represents, used to
// route unicast Msgs). If lastEventID is non-nil, history from
// lastEventID+1 onward is replayed before live events; a lastEventID
// older than the retained window returns ErrHistoryGap.
func (b *Bus) Subscribe(ctx context.Context, roomID string, partyID uint16, lastEventID *uint64) (*Subscription, error) {
	r, err := b.getOrCreate(roomID)
	if err != nil {
		return nil, err
	}
	return r.subscribe(partyID, lastEventID)
}

func (r *room) subscribe(partyID uint16, lastEventID *uint64) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var replay []Event
	if lastEventID != nil {
		want := *lastEventID + 1
		if len(r.history) > 0 && want < r.oldestID {
			return nil, ErrHistoryGap
		}
		if want < r.nextEventID {
			skip := int(want - r.oldestID)
			if skip < 0 {
				skip = 0
			}
			if skip <= len(r.history) {
				replay = append(replay, r.history[skip:]...)
			}
		}
	}

	id := r.nextSubID
	r.nextSubID++
	sub := &Subscription{
		id:      id,
		partyID: partyID,
		events:  make(chan Event, r.cfg.subscriberBuffer()),
		errc:    make(chan error, 1),
	}
	for _, ev := range replay {
		if ev.Msg.Sender == partyID {
			continue
		}
		if ev.Msg.Receiver != nil && *ev.Msg.Receiver != partyID {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			// Replay alone overflowed the buffer; treat it the same as a
			// live overflow rather than silently truncating history.
			close(sub.events)
			sub.errc <- ErrSubscriberDropped
			close(sub.errc)
			return sub, nil
		}
	}
	r.subscribers[id] = sub
	return sub, nil
}

// IssueUniqueIndex returns a u16 starting at 0, strictly increasing per
// room on each call — used by deployments that pick a party index at
// join time rather than statically.
func (b *Bus) IssueUniqueIndex(ctx context.Context, roomID string) (uint16, error) {
	r, err := b.getOrCreate(roomID)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexCounter
	r.indexCounter++
	return idx, nil
}

// Close terminates every subscription in roomID, discards its history,
// and marks the id as permanently closed: it will never be lazily
// recreated by a later Broadcast/Subscribe/IssueUniqueIndex call.
func (b *Bus) Close(roomID string) error {
	b.mu.Lock()
	r, ok := b.rooms[roomID]
	delete(b.rooms, roomID)
	b.closed[roomID] = struct{}{}
	b.mu.Unlock()

	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for subID, sub := range r.subscribers {
		select {
		case sub.errc <- ErrRoomClosed:
		default:
		}
		close(sub.events)
		close(sub.errc)
		delete(r.subscribers, subID)
	}
	r.history = nil
	logger.Infof("room %s closed", roomID)
	return nil
}

// CloseAll tears down every still-open room, used by the process on
// shutdown. Individual room close failures are aggregated rather than
// aborting the sweep on the first one.
func (b *Bus) CloseAll() error {
	b.mu.RLock()
	ids := make([]string, 0, len(b.rooms))
	for id := range b.rooms {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	var result *multierror.Error
	for _, id := range ids {
		if err := b.Close(id); err != nil {
			result = multierror.Append(result, fmt.Errorf("room %s: %w", id, err))
		}
	}
	return result.ErrorOrNil()
}
