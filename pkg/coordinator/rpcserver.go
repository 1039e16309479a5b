package coordinator

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/binance-chain/wallet-mpc-signer/pkg/signing"
	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
)

// Server exposes the responder side of the peer RPC surface: POST /sign
// mirrors the initiator's local steps via Coordinator.Join.
type Server struct {
	coordinator *Coordinator
}

func NewServer(c *Coordinator) *Server {
	return &Server{coordinator: c}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/sign" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var msg wire.SignMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "malformed SignMessage", http.StatusBadRequest)
		return
	}

	sig, err := s.coordinator.Join(r.Context(), msg.TxID, msg.AccountID, msg.Data)
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}

	out := wire.SignatureMessage{R: sig.R.Bytes(), S: sig.S.Bytes(), V: uint32(sig.V)}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

func writeCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownAccount):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrRoomExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidDigest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, signing.ErrTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, signing.ErrDegenerateNonce), errors.Is(err, signing.ErrUnknownCulprit):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		var culprit *signing.CulpritError
		var violation *signing.ProtocolViolationError
		if errors.As(err, &culprit) || errors.As(err, &violation) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
