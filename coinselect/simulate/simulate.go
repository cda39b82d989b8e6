// Package simulate implements the coin-selection evaluation harness: a
// deterministic event-stream driver that feeds deposits and payments through
// a chosen input-selection policy and records the resulting selection statistics,
// grounded on the teacher's scenario-table style of test construction
// (lntest's channel-graph fixtures) but generalized into a reusable driver
// rather than one-off table tests.
package simulate

import (
	"sort"

	"github.com/decred/dcrd/txscript/v4/stdaddr"
	"github.com/decred/dcrd/wire"

	"github.com/decred/walletkernel/coinselect/policy"
	"github.com/decred/walletkernel/types"
)

// EventKind distinguishes the three event types the simulator understands.
type EventKind uint8

const (
	// Deposit adds a coin to the simulated wallet.
	Deposit EventKind = iota
	// Pay spends coins to cover a set of outputs using the configured policy.
	Pay
	// NextSlot advances the simulated clock with no wallet effect; it exists
	// purely to give time-series output a meaningful x-axis.
	NextSlot
)

// Event is one entry in a simulated event stream. Only the fields relevant
// to Kind are read.
type Event struct {
	Kind    EventKind
	Deposit policy.Coin   // for Deposit
	Outputs []*wire.TxOut // for Pay
}

// PayOutcome records what happened for one Pay event.
type PayOutcome struct {
	Slot  int
	Stats policy.Stats
	Err   error
}

// Result is the full output of one simulation run.
type Result struct {
	Outcomes []PayOutcome
}

// Histogram buckets InputsChosen across every successful Pay outcome, for
// comparing how aggressively different policies consolidate inputs.
func (r Result) Histogram() map[int]int {
	h := make(map[int]int)
	for _, o := range r.Outcomes {
		if o.Err == nil {
			h[o.Stats.InputsChosen]++
		}
	}
	return h
}

// ChangeRatioSeries returns the change ratio of every successful Pay
// outcome in slot order, the time series the evaluation harness plots
// change-output behavior against (rendering itself is out of scope).
func (r Result) ChangeRatioSeries() []float64 {
	sorted := append([]PayOutcome(nil), r.Outcomes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slot < sorted[j].Slot })
	series := make([]float64, 0, len(sorted))
	for _, o := range sorted {
		if o.Err == nil {
			series = append(series, o.Stats.ChangeRatio)
		}
	}
	return series
}

// FailureCount returns how many Pay events failed under the policy, the
// headline number the evaluation harness uses to compare policies'
// robustness against a fixed event stream.
func (r Result) FailureCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// wallet is the simulator's private in-memory coin set; it is not the HD
// Wallet Store, since the evaluation harness measures policy behavior in
// isolation from block application and submission semantics.
type wallet struct {
	coins map[wire.OutPoint]policy.Coin
}

func newWallet() *wallet {
	return &wallet{coins: make(map[wire.OutPoint]policy.Coin)}
}

func (w *wallet) deposit(c policy.Coin) {
	w.coins[c.OutPoint] = c
}

func (w *wallet) list() []policy.Coin {
	out := make([]policy.Coin, 0, len(w.coins))
	for _, c := range w.coins {
		out = append(out, c)
	}
	return out
}

func (w *wallet) remove(outpoints ...wire.OutPoint) {
	for _, op := range outpoints {
		delete(w.coins, op)
	}
}

// Run drives events through pol in order, threading a simulated coin set
// across events: a successful Pay consumes its selected inputs and, if the
// policy produced change, deposits the change output back as a fresh coin so
// later Pay events see it. changeAddr, if non-nil, is the address any Pay
// event's change output is paid back to.
func Run(events []Event, pol policy.Policy, changeAddr stdaddr.Address) Result {
	w := newWallet()
	var res Result
	slot := 0

	var changeSource *policy.ChangeSource
	if changeAddr != nil {
		changeSource = policy.ChangeSourceForAddress(changeAddr)
	}

	for _, ev := range events {
		switch ev.Kind {
		case Deposit:
			w.deposit(ev.Deposit)

		case NextSlot:
			slot++

		case Pay:
			authored, stats, err := pol(w.list(), ev.Outputs, changeSource)
			res.Outcomes = append(res.Outcomes, PayOutcome{Slot: slot, Stats: stats, Err: err})
			if err != nil {
				continue
			}

			spent := make([]wire.OutPoint, 0, len(authored.Tx.TxIn))
			for _, in := range authored.Tx.TxIn {
				spent = append(spent, in.PreviousOutPoint)
			}
			w.remove(spent...)

			if authored.ChangeIndex >= 0 && authored.ChangeIndex < len(authored.Tx.TxOut) {
				changeOut := authored.Tx.TxOut[authored.ChangeIndex]
				w.deposit(policy.Coin{
					OutPoint: wire.OutPoint{Hash: authored.Tx.TxHash(), Index: uint32(authored.ChangeIndex), Tree: wire.TxTreeRegular},
					Output:   types.Output{Address: changeAddr, Amount: types.Amount(changeOut.Value)},
				})
			}
		}
	}

	return res
}
