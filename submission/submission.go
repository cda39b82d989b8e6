// Package submission implements the pending-transaction state machine: it
// schedules locally-issued transactions for retransmission under an
// exponential-backoff policy and eventually declares them cancelled once the
// backoff is exhausted.
package submission

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/decred/walletkernel/types"
)

// Metrics are the Prometheus collectors a Layer updates on every Tick,
// following the same caller-registers-the-collectors shape as
// kernel.NewMetrics.
type Metrics struct {
	ResubmitAttemptsTotal prometheus.Counter
	CancelledTotal        prometheus.Counter
}

// NewMetrics constructs and registers a Layer's metrics against reg. reg may
// be nil, in which case metrics collection is skipped.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResubmitAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletkernel_resubmit_attempts_total",
			Help: "Number of resubmission attempts dispatched across all accounts.",
		}),
		CancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletkernel_resubmit_cancelled_total",
			Help: "Number of pending transactions cancelled after exhausting their backoff.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ResubmitAttemptsTotal, m.CancelledTotal)
	}
	return m
}

// DefaultBase is the exponential-backoff base used by DefaultPolicy.
const DefaultBase = 1.25

// DefaultMaxAttempts is the attempt cap used by DefaultPolicy: the attempt
// that would exceed it is cancelled instead of dispatched.
const DefaultMaxAttempts = 255

// ResubmitPolicy maps an attempt count to the wait duration before the next
// attempt.
type ResubmitPolicy func(attempts int) time.Duration

// DefaultPolicy returns an exponential-backoff policy with base 1.25.
func DefaultPolicy() ResubmitPolicy {
	return func(attempts int) time.Duration {
		return time.Duration(math.Pow(DefaultBase, float64(attempts)) * float64(time.Second))
	}
}

type key struct {
	Account types.AccountID
	Tx      types.TxID
}

type entry struct {
	key      key
	body     types.Tx
	attempts int
	nextDue  time.Time
}

// Layer is a single Active Kernel's submission state machine.
type Layer struct {
	mu sync.Mutex

	queue       map[key]*entry
	policy      ResubmitPolicy
	maxAttempts int
	log         slog.Logger
	metrics     *Metrics
}

// New returns a submission layer using the default backoff policy and
// attempt cap.
func New(log slog.Logger) *Layer {
	return NewWithPolicy(log, DefaultPolicy(), DefaultMaxAttempts, nil)
}

// NewWithPolicy returns a submission layer with a custom policy, attempt
// cap, and metrics collectors. metrics may be nil to skip collection;
// customizing the policy/cap is primarily for tests exercising the give-up
// path (S5) without waiting out 255 cycles.
func NewWithPolicy(log slog.Logger, policy ResubmitPolicy, maxAttempts int, metrics *Metrics) *Layer {
	if log == nil {
		log = slog.Disabled
	}
	return &Layer{
		queue:       make(map[key]*entry),
		policy:      policy,
		maxAttempts: maxAttempts,
		log:         log,
		metrics:     metrics,
	}
}

// AddPending enqueues newly-submitted transactions for an account, each
// starting at attempts=0 and due immediately.
func (l *Layer) AddPending(accountID types.AccountID, txs []types.Tx, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, tx := range txs {
		k := key{Account: accountID, Tx: tx.ID}
		l.queue[k] = &entry{key: k, body: tx, attempts: 0, nextDue: now}
	}
}

// Remove dequeues a transaction. The kernel package does not call it: a
// transaction that block application drops from the store stays queued here
// until Tick cancels it after maxAttempts dispatches.
func (l *Layer) Remove(accountID types.AccountID, txID types.TxID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.queue, key{Account: accountID, Tx: txID})
}

// Tick advances the clock to now and returns the transactions that gave up
// (cancelled) and the transactions due for resubmission (toSend). The two
// sets are always disjoint on tx id, and every entry is dispatched at most
// once per call.
func (l *Layer) Tick(now time.Time) (cancelled map[types.AccountID]map[types.TxID]struct{}, toSend []types.Tx) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cancelled = make(map[types.AccountID]map[types.TxID]struct{})

	due := make([]*entry, 0)
	for _, e := range l.queue {
		if !e.nextDue.After(now) {
			due = append(due, e)
		}
	}
	// Process in next_due order so the earliest-scheduled entries are never
	// starved by later ones landing in the same tick.
	sort.Slice(due, func(i, j int) bool {
		if due[i].nextDue.Equal(due[j].nextDue) {
			return due[i].key.Tx.String() < due[j].key.Tx.String()
		}
		return due[i].nextDue.Before(due[j].nextDue)
	})

	for _, e := range due {
		if e.attempts+1 > l.maxAttempts {
			set, ok := cancelled[e.key.Account]
			if !ok {
				set = make(map[types.TxID]struct{})
				cancelled[e.key.Account] = set
			}
			set[e.key.Tx] = struct{}{}
			delete(l.queue, e.key)
			if l.metrics != nil {
				l.metrics.CancelledTotal.Inc()
			}
			continue
		}

		e.attempts++
		e.nextDue = now.Add(l.policy(e.attempts))
		toSend = append(toSend, e.body)
		if l.metrics != nil {
			l.metrics.ResubmitAttemptsTotal.Inc()
		}
	}

	return cancelled, toSend
}

// Len reports the number of transactions currently scheduled.
func (l *Layer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}
