package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
)

// roomIDPattern is the alphabet the HTTP surface accepts for {room_id}.
var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Server wires a Bus to the three /rooms/{room_id}/... HTTP routes the
// Protocol Driver's bus-backed Transport speaks over, plus /healthz. The
// peer RPC's /sign route is served by pkg/coordinator's Server.
type Server struct {
	bus *Bus
	mux *http.ServeMux
}

func NewServer(bus *Bus) *Server {
	s := &Server{bus: bus, mux: http.NewServeMux()}
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/rooms/", s.handleRoom)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleRoom dispatches the three /rooms/{room_id}/... routes; a single
// handler keeps room id validation in one place.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/rooms/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	roomID, action := parts[0], parts[1]
	if !roomIDPattern.MatchString(roomID) {
		http.Error(w, "invalid room_id", http.StatusBadRequest)
		return
	}

	switch action {
	case "subscribe":
		s.handleSubscribe(w, r, roomID)
	case "broadcast":
		s.handleBroadcast(w, r, roomID)
	case "issue_unique_idx":
		s.handleIssueUniqueIndex(w, r, roomID)
	default:
		http.NotFound(w, r)
	}
}

// handleSubscribe implements GET /rooms/{room_id}/subscribe as an SSE
// stream. The caller identifies itself with the X-Party-Id header (the
// session-local party index the stream is routed for) and may resume
// with Last-Event-Id.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request, roomID string) {
	partyID, err := partyIDFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var lastEventID *uint64
	if h := r.Header.Get("Last-Event-Id"); h != "" {
		v, perr := strconv.ParseUint(h, 10, 64)
		if perr != nil {
			http.Error(w, "malformed Last-Event-Id", http.StatusBadRequest)
			return
		}
		lastEventID = &v
	}

	sub, err := s.bus.Subscribe(r.Context(), roomID, partyID, lastEventID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				if cerr := <-sub.Errs(); cerr != nil {
					fmt.Fprintf(w, "event: error\ndata: %s\n\n", cerr.Error())
					flusher.Flush()
				}
				return
			}
			if _, werr := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", ev.ID, encodeMsg(ev.Msg)); werr != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handleBroadcast implements POST /rooms/{room_id}/broadcast. The body
// is the canonical Msg<bytes> serialization: sender u16 BE, receiver u16
// BE (0xFFFF for None), then the opaque body.
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request, roomID string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	msg, err := decodeMsg(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	eventID, err := s.bus.Broadcast(r.Context(), roomID, msg)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "event_id": eventID})
}

func (s *Server) handleIssueUniqueIndex(w http.ResponseWriter, r *http.Request, roomID string) {
	idx, err := s.bus.IssueUniqueIndex(r.Context(), roomID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"unique_idx": idx})
}

func partyIDFromRequest(r *http.Request) (uint16, error) {
	h := r.Header.Get("X-Party-Id")
	if h == "" {
		return 0, fmt.Errorf("missing X-Party-Id header")
	}
	v, err := strconv.ParseUint(h, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("malformed X-Party-Id header")
	}
	return uint16(v), nil
}

func encodeMsg(m Msg) []byte {
	return wire.MarshalMsg(m.Sender, m.Receiver, m.Body)
}

func decodeMsg(b []byte) (Msg, error) {
	sender, receiver, body, err := wire.UnmarshalMsg(b)
	if err != nil {
		return Msg{}, err
	}
	return Msg{Sender: sender, Receiver: receiver, Body: body}, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeGatewayError(w http.ResponseWriter, err error) {
	switch err {
	case ErrRoomClosed:
		http.Error(w, err.Error(), http.StatusGone)
	case ErrHistoryGap:
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
