package protoround

import (
	"sync"

	"github.com/binance-chain/wallet-mpc-signer/internal/log"
)

var logger = log.Named("protoround")

// Engine drives a chain of Rounds to completion: store each inbound
// message, run Update, and advance to NextRound once CanProceed is true,
// recursing until the chain runs out (signaled by NextRound returning
// nil) the way tss.BaseParty drove its round chain.
type Engine struct {
	mtx   sync.Mutex
	round Round
}

func NewEngine(first Round) *Engine {
	return &Engine{round: first}
}

func (e *Engine) Round() Round {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.round
}

// Start begins the chain by invoking the first round's Start.
func (e *Engine) Start() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	logger.Debugf("round %d starting", e.round.RoundNumber())
	if err := e.round.Start(); err != nil {
		return err
	}
	return nil
}

// Update stores an inbound message against the current round and, once
// every expected party has been heard from, advances through as many
// subsequent rounds as are immediately ready to Start and finish (e.g. a
// round whose Start body also satisfies CanProceed for itself).
func (e *Engine) Update(msg Msg) (finished bool, err error) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.updateLocked(msg)
}

func (e *Engine) updateLocked(msg Msg) (bool, error) {
	if e.round == nil {
		return true, nil
	}
	if !e.round.CanAccept(msg) {
		return false, nil
	}
	if ok, rerr := e.round.Update(msg); rerr != nil {
		return false, rerr
	} else if !ok {
		return false, nil
	}
	if !e.round.CanProceed() {
		return false, nil
	}
	for {
		e.round = e.round.NextRound()
		if e.round == nil {
			logger.Debugf("round chain finished")
			return true, nil
		}
		logger.Debugf("round %d starting", e.round.RoundNumber())
		if err := e.round.Start(); err != nil {
			return false, err
		}
		if !e.round.CanProceed() {
			return false, nil
		}
	}
}
