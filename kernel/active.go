package kernel

import (
	"context"
	"sync"
	"time"

	"github.com/decred/slog"
	"golang.org/x/time/rate"

	"github.com/decred/walletkernel/clock"
	"github.com/decred/walletkernel/diffusion"
	"github.com/decred/walletkernel/submission"
	"github.com/decred/walletkernel/types"
)

// DefaultTickInterval is how often the Active Kernel's ticker task drives
// the submission layer when none is specified.
const DefaultTickInterval = 5 * time.Second

// DefaultSendRate bounds how many transactions per second the ticker will
// hand to diffusion within a single tick, so a tick carrying many due
// retransmissions doesn't burst the network interface.
const DefaultSendRate = 20

// ActiveKernel composes the Passive Kernel, a diffusion sender, and the
// submission layer's retry/give-up state machine.
type ActiveKernel struct {
	passive *PassiveKernel
	diff    diffusion.Diffusion
	sub     *submission.Layer
	clk     clock.Clock
	log     slog.Logger
	limiter *rate.Limiter
}

// NewActiveKernel wires together an already-constructed Passive Kernel,
// diffusion sender, submission layer, and clock.
func NewActiveKernel(passive *PassiveKernel, diff diffusion.Diffusion,
	sub *submission.Layer, clk clock.Clock, log slog.Logger) *ActiveKernel {

	if log == nil {
		log = slog.Disabled
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &ActiveKernel{
		passive: passive,
		diff:    diff,
		sub:     sub,
		clk:     clk,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(DefaultSendRate), DefaultSendRate),
	}
}

// NewPending commits tx to the store under accountID and, on success,
// registers it with the submission layer. The two steps are not atomic with
// respect to a crash between them; on recovery the store is authoritative
// and RebuildSubmission repopulates the submission layer from it.
func (k *ActiveKernel) NewPending(accountID types.AccountID, tx types.Tx) error {
	if err := k.passive.Store().NewPending(accountID, tx); err != nil {
		return err
	}
	k.sub.AddPending(accountID, []types.Tx{tx}, k.clk.Now())
	return nil
}

// RebuildSubmission repopulates the submission layer from the store's
// current pending sets, for use after a crash where the store committed a
// new_pending but the in-memory submission layer was lost.
func (k *ActiveKernel) RebuildSubmission(accountIDs []types.AccountID) error {
	snap := k.passive.Store().Snapshot()
	now := k.clk.Now()
	for _, accID := range accountIDs {
		pending, err := snap.AccountPending(accID)
		if err != nil {
			return err
		}
		txs := make([]types.Tx, 0, len(pending))
		for _, tx := range pending {
			txs = append(txs, tx)
		}
		k.sub.AddPending(accID, txs, now)
	}
	return nil
}

// tick drives one submission cycle: advance the clock, cancel whatever gave
// up, and diffuse whatever is newly due. Within a tick, cancel_pending to
// the store happens-before any send produced by the same tick.
func (k *ActiveKernel) tick() {
	cancelled, toSend := k.sub.Tick(k.clk.Now())
	if len(cancelled) > 0 {
		k.passive.Store().CancelPending(cancelled)
	}
	for _, tx := range toSend {
		if err := k.limiter.Wait(context.Background()); err != nil {
			k.log.Warnf("rate limiter wait failed: %v", err)
		}
		if err := k.diff.SendTx(tx); err != nil {
			k.log.Debugf("diffusion send failed for %v, will retry: %v", tx.ID, err)
		}
	}
}

// ticker runs tick on interval until stop is closed.
func (k *ActiveKernel) ticker(interval time.Duration, stop <-chan struct{}, done *sync.WaitGroup) {
	defer done.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			k.tick()
		case <-stop:
			return
		}
	}
}

// BracketActiveWallet constructs an ActiveKernel, spawns its ticker task,
// runs fn, and guarantees the ticker is stopped before returning, regardless
// of whether fn succeeds, fails, or panics.
func BracketActiveWallet(passive *PassiveKernel, diff diffusion.Diffusion,
	sub *submission.Layer, clk clock.Clock, interval time.Duration, log slog.Logger,
	fn func(*ActiveKernel) error) error {

	active := NewActiveKernel(passive, diff, sub, clk, log)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go active.ticker(interval, stop, &wg)
	defer func() {
		close(stop)
		wg.Wait()
	}()

	return fn(active)
}
