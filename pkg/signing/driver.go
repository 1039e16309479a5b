// Package signing is the Protocol Driver: the CGGMP21 presign/sign state
// machine a single participant runs to contribute its share of one ECDSA
// signature. It knows nothing about rooms or HTTP; it is handed a
// Transport and drives S0 through S6 over it.
package signing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/binance-chain/wallet-mpc-signer/internal/log"
	"github.com/binance-chain/wallet-mpc-signer/internal/mpcerr"
	"github.com/binance-chain/wallet-mpc-signer/internal/party"
	"github.com/binance-chain/wallet-mpc-signer/internal/protoround"
	"github.com/binance-chain/wallet-mpc-signer/pkg/keyshare"
	"github.com/binance-chain/wallet-mpc-signer/pkg/wire"
)

var logger = log.Named("signing")

const taskName = "signing"

// Transport is the only thing the driver needs from whatever carries its
// messages — the Sign Coordinator supplies an implementation backed by
// the Room Bus, so this package never imports pkg/gateway.
type Transport interface {
	Send(ctx context.Context, env wire.Envelope) error
	Recv(ctx context.Context) (wire.Envelope, error)
}

// Signature is the final, low-s-canonicalized ECDSA signature this
// session produced.
type Signature struct {
	R *big.Int
	S *big.Int
	V byte
}

// Driver runs one signing session to completion for one participant.
type Driver struct {
	params    *party.Parameters
	share     *keyshare.Share
	transport Transport
	state     *sessionState
	ctx       context.Context
}

// NewDriver builds a Driver for one signing session over digest (32
// bytes, already hashed) using share's key material and params'
// participant set.
func NewDriver(params *party.Parameters, share *keyshare.Share, transport Transport, digest []byte) *Driver {
	m := new(big.Int).SetBytes(digest)
	return &Driver{
		params:    params,
		share:     share,
		transport: transport,
		state:     newSessionState(m, len(params.Parties().IDs)),
	}
}

// Run drives S0 through S5 (and S6 if final verification fails) to
// completion, returning the assembled signature or a typed error.
func (d *Driver) Run(ctx context.Context) (sig *Signature, err error) {
	d.ctx = ctx
	defer d.scrub()

	i := d.params.PartyID().Index
	w, bigWs := prepareForSigning(i, d.share.Xi, d.share.VSSSetup.Ks, d.share.PublicShares)
	d.state.w = w
	d.state.bigWs = bigWs

	first := newPresign1Round(d)
	engine := protoround.NewEngine(first)

	if werr := engine.Start(); werr != nil {
		return nil, werr
	}

	parties := d.params.Parties().IDs
	for remaining := len(parties) - 1; ; {
		select {
		case <-ctx.Done():
			return nil, ErrTimeout
		default:
		}
		env, rerr := d.transport.Recv(ctx)
		if rerr != nil {
			if ctx.Err() != nil {
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("signing: recv: %w", rerr)
		}
		msg, derr := d.decode(env)
		if derr != nil {
			return nil, derr
		}
		finished, uerr := engine.Update(msg)
		if uerr != nil {
			return nil, uerr
		}
		if finished {
			break
		}
		_ = remaining
	}

	return d.finalize(ctx)
}

// decode turns a wire.Envelope into the inMsg the current round expects,
// resolving sender/receiver indices back to party.ID values.
func (d *Driver) decode(env wire.Envelope) (*inMsg, error) {
	parties := d.params.Parties().IDs
	sender := d.partyByIndex(int(env.Sender))
	if sender == nil {
		return nil, fmt.Errorf("signing: message from unknown party index %d", env.Sender)
	}
	var receiver *party.ID
	if env.Receiver != nil {
		receiver = d.partyByIndex(int(*env.Receiver))
	}
	var body interface{}
	switch env.Round {
	case 1:
		var p preSign1Payload
		if err := wire.Unpack(env, &p); err != nil {
			return nil, err
		}
		body = &p
	case 2:
		var p preSign2Payload
		if err := wire.Unpack(env, &p); err != nil {
			return nil, err
		}
		body = &p
	case 3:
		var p preSign3Payload
		if err := wire.Unpack(env, &p); err != nil {
			return nil, err
		}
		body = &p
	case 4:
		var p sign4Payload
		if err := wire.Unpack(env, &p); err != nil {
			return nil, err
		}
		body = &p
	case 6:
		var p identify6Payload
		if err := wire.Unpack(env, &p); err != nil {
			return nil, err
		}
		body = &p
	default:
		return nil, fmt.Errorf("signing: unknown round %d", env.Round)
	}
	_ = parties
	return &inMsg{sender: sender, receiver: receiver, round: env.Round, body: body}, nil
}

func (d *Driver) partyByIndex(idx int) *party.ID {
	parties := d.params.Parties().IDs
	if idx < 0 || idx >= len(parties) {
		return nil
	}
	return parties[idx]
}

func (d *Driver) sendTo(pid *party.ID, round int, payload interface{}) error {
	from := uint16(d.params.PartyID().Index)
	to := uint16(pid.Index)
	env, err := wire.Pack(from, &to, round, payload)
	if err != nil {
		return err
	}
	return d.transport.Send(d.ctx, env)
}

func (d *Driver) broadcast(round int, payload interface{}) error {
	from := uint16(d.params.PartyID().Index)
	env, err := wire.Pack(from, nil, round, payload)
	if err != nil {
		return err
	}
	return d.transport.Send(d.ctx, env)
}

func (d *Driver) wrapError(round int, task string, err error, culprits ...*party.ID) *mpcerr.Error {
	return mpcerr.New(err, task, round, d.params.PartyID(), culprits...)
}

// scrub zeroes the secret temp data this session accumulated, covering
// every return path (success, abort, or cancellation).
func (d *Driver) scrub() {
	s := d.state
	zero := func(n *big.Int) {
		if n != nil {
			n.SetInt64(0)
		}
	}
	zero(s.kShare)
	zero(s.gammaShare)
	zero(s.kNonce)
	zero(s.gNonce)
	zero(s.w)
	zero(s.deltaShare)
	zero(s.chiShare)
	for _, b := range s.deltaBetas {
		zero(b)
	}
	for _, b := range s.chiBetas {
		zero(b)
	}
}
