// Package types defines the shared data model for the wallet kernel: roots,
// accounts, UTxO entries, resolved blocks and their per-account projections.
// Every type here is grounded on the wire/address/amount vocabulary the rest
// of the Decred stack already speaks, so the kernel never invents its own
// hash or amount representation.
package types

import (
	"strconv"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/txscript/v4/stdaddr"
	"github.com/decred/dcrd/wire"
)

// Amount is the atom-denominated value type used throughout the kernel.
type Amount = dcrutil.Amount

// RootID identifies an HD wallet root: the hash of its root public key.
type RootID = chainhash.Hash

// WalletID identifies the process-local ESK entry backing a root. For
// HD-random wallets it is currently one-to-one with RootID.
type WalletID = chainhash.Hash

// TxID identifies a transaction by its hash.
type TxID = chainhash.Hash

// Input is an unspent-output coordinate: a transaction hash paired with the
// index of the output it refers to. wire.OutPoint already carries exactly
// this shape plus a Decred transaction tree, so it is reused directly rather
// than redefined.
type Input = wire.OutPoint

// AccountID names one account beneath a root.
type AccountID struct {
	Root  RootID
	Index uint32
}

// String renders the account id as root/index, useful for log lines.
func (a AccountID) String() string {
	return a.Root.String() + "/" + strconv.FormatUint(uint64(a.Index), 10)
}

// Output is a spendable coin: an owning address and an amount.
type Output struct {
	Address stdaddr.Address
	Amount  Amount
}

// Utxo is a unspent-output set, keyed by its coordinate.
type Utxo map[Input]Output

// Clone returns a shallow copy of u; Output values are immutable once
// constructed so a shallow copy is sufficient for copy-on-write snapshots.
func (u Utxo) Clone() Utxo {
	out := make(Utxo, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// Sum returns the total amount held across all entries.
func (u Utxo) Sum() Amount {
	var total Amount
	for _, out := range u {
		total += out.Amount
	}
	return total
}

// AssuranceLevel is the root-level security posture requested at creation.
type AssuranceLevel uint8

const (
	AssuranceNormal AssuranceLevel = iota
	AssuranceStrict
)

// Root is the top of an HD tree.
type Root struct {
	ID          RootID
	Name        string
	Assurance   AssuranceLevel
	HasPassword bool
	CreatedAt   time.Time
}

// Tx is a locally-submitted transaction tracked in an account's pending set.
// It carries only the information the kernel needs: which inputs it spends
// and which new outputs it produces; signing and serialization belong to the
// caller, not the kernel.
type Tx struct {
	ID      TxID
	Inputs  []Input
	Outputs []Output
}

// Account is a single HD account's state. The store exclusively owns this
// struct; callers only ever see copies returned from a snapshot.
type Account struct {
	ID      AccountID
	Utxo    Utxo
	Pending map[TxID]Tx
	History []BlockMeta
}

// Clone deep-copies everything an apply needs to mutate without touching the
// previous snapshot's backing maps.
func (a *Account) Clone() *Account {
	cp := &Account{
		ID:      a.ID,
		Utxo:    a.Utxo.Clone(),
		Pending: make(map[TxID]Tx, len(a.Pending)),
		History: append([]BlockMeta(nil), a.History...),
	}
	for id, tx := range a.Pending {
		cp.Pending[id] = tx
	}
	return cp
}

// TotalBalance is the confirmed, available balance: the sum of utxo. Pending
// outputs and pending spends are both excluded, matching the "available
// balance" semantics required of account_total_balance.
func (a *Account) TotalBalance() Amount {
	return a.Utxo.Sum()
}

// PendingInputs returns the set of inputs already committed to some pending
// transaction, used to reject a new pending tx that double-spends a pending
// input.
func (a *Account) PendingInputs() map[Input]struct{} {
	out := make(map[Input]struct{})
	for _, tx := range a.Pending {
		for _, in := range tx.Inputs {
			out[in] = struct{}{}
		}
	}
	return out
}

// BlockMeta is the slot/time information a resolved block carries. The
// schema is intentionally thin today; Account.History retains a slice of
// these so richer history tracking can be layered on without a breaking
// change, per the store's deferred-history design note.
type BlockMeta struct {
	Slot      uint32
	Timestamp time.Time
}

// ResolvedInput pairs a spent outpoint with the output it consumed.
type ResolvedInput struct {
	Outpoint Input
	Spent    Output
}

// ResolvedTx is a transaction whose every input has been resolved to the
// output it consumes.
type ResolvedTx struct {
	Hash    TxID
	Inputs  []ResolvedInput
	Outputs []Output
}

// ResolvedBlock is a block whose every transaction is a ResolvedTx.
type ResolvedBlock struct {
	Meta Meta
	Txs  []ResolvedTx
}

// Meta carries the block-level metadata later copied into BlockMeta.
type Meta struct {
	Slot      uint32
	Timestamp time.Time
}

// PrefilteredBlock is the projection of a ResolvedBlock onto one account:
// which inputs it spends and which new outputs it receives.
type PrefilteredBlock struct {
	SpentInputs []Input
	NewOutputs  map[Input]Output
	Meta        BlockMeta
}
