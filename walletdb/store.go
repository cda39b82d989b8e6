// Package walletdb implements the HD Wallet Store: the single-writer,
// snapshot-readable ledger of roots and accounts described by the wallet
// kernel design. The production on-disk format is explicitly deferred (see
// SPEC_FULL.md §11), so this store keeps everything in memory behind
// copy-on-write maps, giving readers a consistent snapshot without blocking
// the writer, the structural-sharing approach the design notes recommend in
// place of a transactional KV driver.
package walletdb

import (
	"sync"
	"sync/atomic"

	"github.com/decred/slog"
	"github.com/decred/walletkernel/types"
)

// rootRecord is one HD root and its accounts. Once published via Store's
// atomic pointer, a rootRecord and its Accounts map are never mutated in
// place; every write constructs a new rootRecord.
type rootRecord struct {
	root     types.Root
	accounts map[uint32]*types.Account
}

func (r *rootRecord) clone() *rootRecord {
	cp := &rootRecord{
		root:     r.root,
		accounts: make(map[uint32]*types.Account, len(r.accounts)),
	}
	for idx, acc := range r.accounts {
		cp.accounts[idx] = acc
	}
	return cp
}

// state is the full, immutable database snapshot published by the writer.
type state struct {
	roots map[types.RootID]*rootRecord
}

func emptyState() *state {
	return &state{roots: make(map[types.RootID]*rootRecord)}
}

// Store is the HD Wallet Store: a single mutex-serialized writer publishing
// immutable state snapshots that any number of readers can load without
// contention, matching the linearizable-writes/lock-free-reads model in
// SPEC_FULL.md §5.
type Store struct {
	mu    sync.Mutex // serializes writers only; never held during reads
	state atomic.Pointer[state]
	log   slog.Logger
}

// NewStore returns an empty, ready to use store. It is the equivalent of the
// original design's defDB value: an empty database usable immediately.
func NewStore(log slog.Logger) *Store {
	if log == nil {
		log = slog.Disabled
	}
	s := &Store{log: log}
	s.state.Store(emptyState())
	return s
}

func (s *Store) load() *state {
	return s.state.Load()
}

func findAccount(st *state, id types.AccountID) (*rootRecord, *types.Account, bool) {
	rr, ok := st.roots[id.Root]
	if !ok {
		return nil, nil, false
	}
	acc, ok := rr.accounts[id.Index]
	if !ok {
		return rr, nil, false
	}
	return rr, acc, true
}

// CreateHDWallet creates a new Root and any accounts appearing as keys in
// utxoByAccount. It fails with CreateError.RootAlreadyExists if the RootID
// is already present.
func (s *Store) CreateHDWallet(root types.Root, utxoByAccount map[types.AccountID]types.Utxo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	if _, exists := cur.roots[root.ID]; exists {
		return errRootAlreadyExists(root.ID)
	}

	next := &state{roots: make(map[types.RootID]*rootRecord, len(cur.roots)+1)}
	for id, rr := range cur.roots {
		next.roots[id] = rr
	}

	rr := &rootRecord{root: root, accounts: make(map[uint32]*types.Account)}
	for accID, utxo := range utxoByAccount {
		rr.accounts[accID.Index] = &types.Account{
			ID:      accID,
			Utxo:    utxo.Clone(),
			Pending: make(map[types.TxID]types.Tx),
		}
	}
	next.roots[root.ID] = rr

	s.state.Store(next)
	s.log.Debugf("created HD wallet root=%v accounts=%d", root.ID, len(rr.accounts))
	return nil
}

// ensureAccount returns the account for id within rr, creating it (and a
// copy of rr) if it doesn't exist yet.
func ensureAccount(rr *rootRecord, id types.AccountID) (*rootRecord, *types.Account) {
	cp := rr.clone()
	acc, ok := cp.accounts[id.Index]
	if !ok {
		acc = &types.Account{
			ID:      id,
			Utxo:    make(types.Utxo),
			Pending: make(map[types.TxID]types.Tx),
		}
	} else {
		acc = acc.Clone()
	}
	cp.accounts[id.Index] = acc
	return cp, acc
}

// ApplyBlock atomically applies a prefiltered block to every named account.
// For each account: spent inputs are removed from utxo, new outputs are
// added, and any pending tx whose inputs intersect the spent set is dropped
// (it is either now confirmed or was double-spent by a confirmed tx; both
// cases require removing it to preserve the pending-inputs-exist-in-utxo
// invariant). Unknown accounts are created on the fly.
func (s *Store) ApplyBlock(byAccount map[types.AccountID]types.PrefilteredBlock) {
	if len(byAccount) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	next := &state{roots: make(map[types.RootID]*rootRecord, len(cur.roots))}
	for id, rr := range cur.roots {
		next.roots[id] = rr
	}

	touched := make(map[types.RootID]*rootRecord)

	for accID, pb := range byAccount {
		rr, ok := touched[accID.Root]
		if !ok {
			if existing, exists := next.roots[accID.Root]; exists {
				rr = existing.clone()
			} else {
				rr = &rootRecord{accounts: make(map[uint32]*types.Account)}
			}
			touched[accID.Root] = rr
			next.roots[accID.Root] = rr
		}

		acc, ok := rr.accounts[accID.Index]
		if !ok {
			acc = &types.Account{ID: accID, Utxo: make(types.Utxo), Pending: make(map[types.TxID]types.Tx)}
		} else {
			acc = acc.Clone()
		}

		spent := make(map[types.Input]struct{}, len(pb.SpentInputs))
		for _, in := range pb.SpentInputs {
			spent[in] = struct{}{}
			delete(acc.Utxo, in)
		}
		for in, out := range pb.NewOutputs {
			acc.Utxo[in] = out
		}
		for txID, tx := range acc.Pending {
			for _, in := range tx.Inputs {
				if _, hit := spent[in]; hit {
					delete(acc.Pending, txID)
					break
				}
			}
		}
		acc.History = append(acc.History, pb.Meta)

		rr.accounts[accID.Index] = acc
	}

	s.state.Store(next)
}

// NewPending validates and inserts a locally-submitted transaction into an
// account's pending set.
func (s *Store) NewPending(accountID types.AccountID, tx types.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	_, acc, ok := findAccount(cur, accountID)
	if !ok {
		return errUnknownAccount(accountID)
	}

	pendingInputs := acc.PendingInputs()
	var unavailable []types.Input
	for _, in := range tx.Inputs {
		if _, spendable := acc.Utxo[in]; !spendable {
			unavailable = append(unavailable, in)
			continue
		}
		if _, busy := pendingInputs[in]; busy {
			unavailable = append(unavailable, in)
		}
	}
	if len(unavailable) > 0 {
		return errInputsUnavailable(unavailable)
	}

	rr := cur.roots[accountID.Root]
	newRR, newAcc := ensureAccount(rr, accountID)
	newAcc.Pending[tx.ID] = tx

	next := &state{roots: make(map[types.RootID]*rootRecord, len(cur.roots))}
	for id, r := range cur.roots {
		next.roots[id] = r
	}
	next.roots[accountID.Root] = newRR

	s.state.Store(next)
	return nil
}

// CancelPending removes the listed transactions from each account's pending
// set. Unknown account or tx ids are silently ignored, making the operation
// idempotent.
func (s *Store) CancelPending(byAccount map[types.AccountID]map[types.TxID]struct{}) {
	if len(byAccount) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	next := &state{roots: make(map[types.RootID]*rootRecord, len(cur.roots))}
	for id, rr := range cur.roots {
		next.roots[id] = rr
	}

	for accID, txIDs := range byAccount {
		rr, ok := next.roots[accID.Root]
		if !ok {
			continue
		}
		acc, ok := rr.accounts[accID.Index]
		if !ok {
			continue
		}

		changed := false
		for txID := range txIDs {
			if _, has := acc.Pending[txID]; has {
				changed = true
				break
			}
		}
		if !changed {
			continue
		}

		rr = rr.clone()
		acc = acc.Clone()
		for txID := range txIDs {
			delete(acc.Pending, txID)
		}
		rr.accounts[accID.Index] = acc
		next.roots[accID.Root] = rr
	}

	s.state.Store(next)
}

// Snapshot returns a read-only, internally consistent view of the store.
func (s *Store) Snapshot() *DbView {
	return &DbView{st: s.load()}
}

// DbView is a read-only, point-in-time view of the store.
type DbView struct {
	st *state
}

// AccountUTXO returns a copy of the account's confirmed UTxO set.
func (v *DbView) AccountUTXO(id types.AccountID) (types.Utxo, error) {
	_, acc, ok := findAccount(v.st, id)
	if !ok {
		return nil, errQueryUnknownAccount
	}
	return acc.Utxo.Clone(), nil
}

// AccountTotalBalance returns the account's available balance: the sum of
// confirmed outputs. Pending outputs and pending spends are excluded.
func (v *DbView) AccountTotalBalance(id types.AccountID) (types.Amount, error) {
	_, acc, ok := findAccount(v.st, id)
	if !ok {
		return 0, errQueryUnknownAccount
	}
	return acc.TotalBalance(), nil
}

// AccountPending returns a copy of the account's pending transaction set.
func (v *DbView) AccountPending(id types.AccountID) (map[types.TxID]types.Tx, error) {
	_, acc, ok := findAccount(v.st, id)
	if !ok {
		return nil, errQueryUnknownAccount
	}
	out := make(map[types.TxID]types.Tx, len(acc.Pending))
	for k, v := range acc.Pending {
		out[k] = v
	}
	return out, nil
}

// Root returns a copy of the root record, if known.
func (v *DbView) Root(id types.RootID) (types.Root, error) {
	rr, ok := v.st.roots[id]
	if !ok {
		return types.Root{}, &QueryError{UnknownRoot: true}
	}
	return rr.root, nil
}
