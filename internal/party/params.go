package party

import (
	"crypto/rand"
	"io"
	"math/big"
	"runtime"
	"time"

	"github.com/binance-chain/wallet-mpc-signer/pkg/curve"
)

const defaultSafePrimeGenTimeout = 5 * time.Minute

// Parameters is the fixed configuration for one signing session: who is
// in it, what curve it runs over, and how many of its n parties must
// cooperate. It never changes after a session starts.
type Parameters struct {
	group       curve.Group
	partyID     *ID
	parties     *Context
	partyCount  int
	threshold   int
	concurrency int
	nonce       int
	rand        io.Reader
}

func NewParameters(group curve.Group, ctx *Context, partyID *ID, partyCount, threshold int) *Parameters {
	return &Parameters{
		group:       group,
		parties:     ctx,
		partyID:     partyID,
		partyCount:  partyCount,
		threshold:   threshold,
		concurrency: runtime.GOMAXPROCS(0),
		rand:        rand.Reader,
	}
}

func (p *Parameters) Group() curve.Group   { return p.group }
func (p *Parameters) Parties() *Context    { return p.parties }
func (p *Parameters) PartyID() *ID         { return p.partyID }
func (p *Parameters) PartyCount() int      { return p.partyCount }
func (p *Parameters) Threshold() int       { return p.threshold }
func (p *Parameters) Concurrency() int     { return p.concurrency }
func (p *Parameters) Rand() io.Reader      { return p.rand }
func (p *Parameters) SetRand(r io.Reader)  { p.rand = r }
func (p *Parameters) SetConcurrency(c int) { p.concurrency = c }

// GetRandomInt returns a random value below 2^bits drawn from the reader
// set by SetRand (crypto/rand unless replaced).
func (p *Parameters) GetRandomInt(bits int) *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	n, err := rand.Int(p.rand, max)
	if err != nil {
		panic(err)
	}
	return n
}
