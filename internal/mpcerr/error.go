// Package mpcerr carries round-level protocol errors with enough context
// (which task, which round, which party) to drive identifiable abort.
package mpcerr

import (
	"fmt"

	"github.com/binance-chain/wallet-mpc-signer/internal/party"
)

// Error wraps a round failure with the task/round/victim/culprit context
// needed by the coordinator to decide what to do next: retry, abort, or
// blame a specific peer.
type Error struct {
	cause    error
	task     string
	round    int
	victim   *party.ID
	culprits []*party.ID
}

func New(err error, task string, round int, victim *party.ID, culprits ...*party.ID) *Error {
	return &Error{cause: err, task: task, round: round, victim: victim, culprits: culprits}
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Cause() error { return e.cause }

func (e *Error) Task() string { return e.task }

func (e *Error) Round() int { return e.round }

func (e *Error) Victim() *party.ID { return e.victim }

func (e *Error) Culprits() []*party.ID { return e.culprits }

func (e *Error) Error() string {
	if e == nil || e.cause == nil {
		return "mpcerr: nil error"
	}
	if len(e.culprits) > 0 {
		return fmt.Sprintf("task %s, party %v, round %d, culprits %v: %s",
			e.task, e.victim, e.round, e.culprits, e.cause.Error())
	}
	return fmt.Sprintf("task %s, party %v, round %d: %s", e.task, e.victim, e.round, e.cause.Error())
}
