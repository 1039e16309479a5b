// Package protoround is the generic round-driving engine the Protocol
// Driver's S0-S6 state machine runs on: a Round advances to the next
// Round once every expected party's message for it has arrived.
package protoround

import (
	"github.com/binance-chain/wallet-mpc-signer/internal/mpcerr"
	"github.com/binance-chain/wallet-mpc-signer/internal/party"
)

// Msg is anything that can be routed to a round: it knows who sent it
// and whether it was broadcast to the whole room or addressed to us.
type Msg interface {
	From() *party.ID
	IsBroadcast() bool
}

type Round interface {
	Params() *party.Parameters
	Start() *mpcerr.Error
	Update(msg Msg) (bool, *mpcerr.Error)
	RoundNumber() int
	CanAccept(msg Msg) bool
	CanProceed() bool
	NextRound() Round
	WaitingFor() []*party.ID
	WrapError(err error, culprits ...*party.ID) *mpcerr.Error
}

// Base is embedded by every concrete round and carries the bookkeeping
// ("which parties have we heard from this round") common to all of them.
type Base struct {
	Parameters *party.Parameters
	Task       string
	Number     int
	Started    bool
	OK         []bool
}

func NewBase(params *party.Parameters, task string, number int) Base {
	return Base{
		Parameters: params,
		Task:       task,
		Number:     number,
		OK:         make([]bool, len(params.Parties().IDs)),
	}
}

func (b *Base) Params() *party.Parameters { return b.Parameters }

func (b *Base) RoundNumber() int { return b.Number }

func (b *Base) CanProceed() bool {
	if !b.Started {
		return false
	}
	for _, ok := range b.OK {
		if !ok {
			return false
		}
	}
	return true
}

func (b *Base) WaitingFor() []*party.ID {
	ids := b.Parameters.Parties().IDs
	waiting := make([]*party.ID, 0, len(b.OK))
	for j, ok := range b.OK {
		if !ok {
			waiting = append(waiting, ids[j])
		}
	}
	return waiting
}

func (b *Base) WrapError(err error, culprits ...*party.ID) *mpcerr.Error {
	return mpcerr.New(err, b.Task, b.Number, b.Parameters.PartyID(), culprits...)
}

func (b *Base) ResetOK() {
	for j := range b.OK {
		b.OK[j] = false
	}
}
