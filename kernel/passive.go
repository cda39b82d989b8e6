// Package kernel implements the Passive Kernel (block ingest orchestration)
// and the Active Kernel (pending-transaction submission on top of it).
package kernel

import (
	"time"

	"github.com/decred/slog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/decred/walletkernel/esk"
	"github.com/decred/walletkernel/prefilter"
	"github.com/decred/walletkernel/types"
	"github.com/decred/walletkernel/walletdb"
)

// Metrics are the Prometheus collectors of the Passive Kernel.
// ApplyBlockDuration is observed on every block application; AccountsTotal
// is registered but never set by this package. Registering them is the
// caller's responsibility, the
// same way dcrlnd's monitoring package is wired in as a named sub-logger
// rather than owning its own registry.
type Metrics struct {
	ApplyBlockDuration prometheus.Histogram
	AccountsTotal      prometheus.Gauge
}

// NewMetrics constructs and registers the Passive Kernel's metrics against
// reg. reg may be nil, in which case metrics collection is skipped.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ApplyBlockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "walletkernel_apply_block_duration_seconds",
			Help: "Time spent applying one resolved block to the store.",
		}),
		AccountsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "walletkernel_accounts_total",
			Help: "Number of accounts known to the wallet store.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ApplyBlockDuration, m.AccountsTotal)
	}
	return m
}

// PassiveKernel owns the ESK map and the HD Wallet Store handle, and drives
// block ingest across every registered wallet.
type PassiveKernel struct {
	esks     *esk.Map
	store    *walletdb.Store
	strategy prefilter.Strategy
	log      slog.Logger
	metrics  *Metrics
}

// NewPassiveKernel returns a kernel over store, prefiltering with strategy.
// If strategy is nil, AllWalletsSinglePass is used, per the design notes'
// preference for the single-pass variant.
func NewPassiveKernel(store *walletdb.Store, strategy prefilter.Strategy, log slog.Logger, reg prometheus.Registerer) *PassiveKernel {
	if strategy == nil {
		strategy = prefilter.AllWalletsSinglePass
	}
	if log == nil {
		log = slog.Disabled
	}
	return &PassiveKernel{
		esks:     esk.NewMap(),
		store:    store,
		strategy: strategy,
		log:      log,
		metrics:  NewMetrics(reg),
	}
}

// Store returns the underlying HD Wallet Store handle, for callers (such as
// the Active Kernel) that need to drive it directly.
func (k *PassiveKernel) Store() *walletdb.Store { return k.store }

// CreateWalletHDRandom derives a root from e's public key hash, prefilters
// initialUTXO under e to discover which accounts it touches, and creates
// the root and those accounts in the store. On success e is registered in
// the ESK map under its wallet id.
func (k *PassiveKernel) CreateWalletHDRandom(name string, hasPassword bool,
	assurance types.AssuranceLevel, e *esk.ESK, initialUTXO types.Utxo) ([]types.AccountID, error) {

	byAccount := make(map[types.AccountID]types.Utxo)
	for in, out := range initialUTXO {
		accID, ok := e.OwnerOf(out.Address)
		if !ok {
			k.log.Warnf("create_wallet_hd_random: skipping output %v, owner undetermined", in)
			continue
		}
		if byAccount[accID] == nil {
			byAccount[accID] = make(types.Utxo)
		}
		byAccount[accID][in] = out
	}

	root := types.Root{
		ID:          e.RootID(),
		Name:        name,
		Assurance:   assurance,
		HasPassword: hasPassword,
		CreatedAt:   time.Now(),
	}

	if err := k.store.CreateHDWallet(root, byAccount); err != nil {
		return nil, err
	}
	k.esks.Insert(e)

	accIDs := make([]types.AccountID, 0, len(byAccount))
	for id := range byAccount {
		accIDs = append(accIDs, id)
	}
	return accIDs, nil
}

// ApplyBlock prefilters block across every registered wallet and commits
// the result to the store in one atomic batch.
func (k *PassiveKernel) ApplyBlock(block types.ResolvedBlock) {
	start := time.Now()
	byAccount := k.strategy(block, k.esks, k.log)
	k.store.ApplyBlock(byAccount)
	if k.metrics != nil {
		k.metrics.ApplyBlockDuration.Observe(time.Since(start).Seconds())
	}
	k.log.Debugf("applied block slot=%d accounts_touched=%d", block.Meta.Slot, len(byAccount))
}

// ApplyBlocks applies a sequence of blocks, one atomic commit per block. If
// the process crashes mid-sequence, the store is left consistent at the
// last block that completed.
func (k *PassiveKernel) ApplyBlocks(blocks []types.ResolvedBlock) {
	for _, b := range blocks {
		k.ApplyBlock(b)
	}
}

// AccountUTXO returns a consistent snapshot of the account's confirmed
// UTxO set.
func (k *PassiveKernel) AccountUTXO(id types.AccountID) (types.Utxo, error) {
	return k.store.Snapshot().AccountUTXO(id)
}

// AccountTotalBalance returns a consistent snapshot of the account's
// available balance.
func (k *PassiveKernel) AccountTotalBalance(id types.AccountID) (types.Amount, error) {
	return k.store.Snapshot().AccountTotalBalance(id)
}
