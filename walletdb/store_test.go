package walletdb

import (
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/decred/walletkernel/types"
)

func newTestStore() *Store {
	return NewStore(slog.Disabled)
}

func acct(root types.RootID, idx uint32) types.AccountID {
	return types.AccountID{Root: root, Index: idx}
}

func TestCreateHDWalletRejectsDuplicateRoot(t *testing.T) {
	s := newTestStore()
	root := types.Root{ID: types.RootID{0x01}}
	require.NoError(t, s.CreateHDWallet(root, nil))

	err := s.CreateHDWallet(root, nil)
	require.Error(t, err)
	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	require.NotNil(t, ce.RootAlreadyExists)
}

func TestApplyBlockMovesInputsToOutputs(t *testing.T) {
	s := newTestStore()
	root := types.RootID{0x02}
	accID := acct(root, 0)
	in := types.Input{Index: 0}
	require.NoError(t, s.CreateHDWallet(types.Root{ID: root}, map[types.AccountID]types.Utxo{
		accID: {in: {Amount: 10}},
	}))

	newIn := types.Input{Index: 1}
	s.ApplyBlock(map[types.AccountID]types.PrefilteredBlock{
		accID: {
			SpentInputs: []types.Input{in},
			NewOutputs:  map[types.Input]types.Output{newIn: {Amount: 7}},
		},
	})

	snap := s.Snapshot()
	utxo, err := snap.AccountUTXO(accID)
	require.NoError(t, err)
	require.NotContains(t, utxo, in)
	require.Contains(t, utxo, newIn)

	bal, err := snap.AccountTotalBalance(accID)
	require.NoError(t, err)
	require.Equal(t, types.Amount(7), bal)
}

func TestApplyBlockDropsPendingOnSpendIntersection(t *testing.T) {
	s := newTestStore()
	root := types.RootID{0x03}
	accID := acct(root, 0)
	in := types.Input{Index: 0}
	require.NoError(t, s.CreateHDWallet(types.Root{ID: root}, map[types.AccountID]types.Utxo{
		accID: {in: {Amount: 10}},
	}))

	tx := types.Tx{ID: types.TxID{0xAA}, Inputs: []types.Input{in}}
	require.NoError(t, s.NewPending(accID, tx))

	pending, err := s.Snapshot().AccountPending(accID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// The block confirms a different transaction that spends the same
	// input (e.g. a double-spend, or the tx itself being confirmed);
	// either way the pending entry must be dropped.
	s.ApplyBlock(map[types.AccountID]types.PrefilteredBlock{
		accID: {SpentInputs: []types.Input{in}},
	})

	pending, err = s.Snapshot().AccountPending(accID)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestNewPendingRejectsUnavailableInput(t *testing.T) {
	s := newTestStore()
	root := types.RootID{0x04}
	accID := acct(root, 0)
	require.NoError(t, s.CreateHDWallet(types.Root{ID: root}, map[types.AccountID]types.Utxo{
		accID: {},
	}))

	tx := types.Tx{ID: types.TxID{0x01}, Inputs: []types.Input{{Index: 99}}}
	err := s.NewPending(accID, tx)
	require.Error(t, err)
	var pe *NewPendingError
	require.ErrorAs(t, err, &pe)
	require.NotEmpty(t, pe.InputsUnavailable)
}

func TestNewPendingRejectsDoubleSpendOfPendingInput(t *testing.T) {
	s := newTestStore()
	root := types.RootID{0x05}
	accID := acct(root, 0)
	in := types.Input{Index: 0}
	require.NoError(t, s.CreateHDWallet(types.Root{ID: root}, map[types.AccountID]types.Utxo{
		accID: {in: {Amount: 5}},
	}))

	require.NoError(t, s.NewPending(accID, types.Tx{ID: types.TxID{0x01}, Inputs: []types.Input{in}}))

	err := s.NewPending(accID, types.Tx{ID: types.TxID{0x02}, Inputs: []types.Input{in}})
	require.Error(t, err)
}

func TestCancelPendingIsIdempotent(t *testing.T) {
	s := newTestStore()
	root := types.RootID{0x06}
	accID := acct(root, 0)
	require.NoError(t, s.CreateHDWallet(types.Root{ID: root}, map[types.AccountID]types.Utxo{accID: {}}))

	cancel := map[types.AccountID]map[types.TxID]struct{}{
		accID: {types.TxID{0x01}: {}},
	}
	require.NotPanics(t, func() { s.CancelPending(cancel) })
	require.NotPanics(t, func() { s.CancelPending(cancel) })
}

func TestSnapshotIsUnaffectedByLaterWrite(t *testing.T) {
	s := newTestStore()
	root := types.RootID{0x07}
	accID := acct(root, 0)
	require.NoError(t, s.CreateHDWallet(types.Root{ID: root}, map[types.AccountID]types.Utxo{
		accID: {{Index: 0}: {Amount: 1}},
	}))

	snap := s.Snapshot()
	s.ApplyBlock(map[types.AccountID]types.PrefilteredBlock{
		accID: {SpentInputs: []types.Input{{Index: 0}}},
	})

	// The snapshot taken before the write must still reflect the
	// pre-write state: readers never observe a torn or partial update.
	bal, err := snap.AccountTotalBalance(accID)
	require.NoError(t, err)
	require.Equal(t, types.Amount(1), bal)
}
