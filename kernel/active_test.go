package kernel

import (
	"sync"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/decred/walletkernel/clock"
	"github.com/decred/walletkernel/diffusion"
	"github.com/decred/walletkernel/submission"
	"github.com/decred/walletkernel/types"
	"github.com/decred/walletkernel/walletdb"
)

type recordingDiffusion struct {
	mu  sync.Mutex
	got []types.TxID
}

func (d *recordingDiffusion) SendTx(tx types.Tx) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, tx.ID)
	return nil
}

func (d *recordingDiffusion) sent() []types.TxID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.TxID(nil), d.got...)
}

func TestNewPendingRegistersWithSubmission(t *testing.T) {
	store := walletdb.NewStore(slog.Disabled)
	pk := NewPassiveKernel(store, nil, slog.Disabled, nil)

	e := newTestESK(t, 0x10)
	in := types.Input{Index: 0}
	addr, err := e.AddressAt(0, 0)
	require.NoError(t, err)
	accIDs, err := pk.CreateWalletHDRandom("demo", false, types.AssuranceNormal, e,
		types.Utxo{in: {Address: addr, Amount: 10}})
	require.NoError(t, err)
	accID := accIDs[0]

	sub := submission.New(slog.Disabled)
	diff := &recordingDiffusion{}
	mclock := clock.NewManual(time.Unix(0, 0))
	active := NewActiveKernel(pk, diff, sub, mclock, slog.Disabled)

	tx := types.Tx{ID: types.TxID{0x01}, Inputs: []types.Input{in}}
	require.NoError(t, active.NewPending(accID, tx))
	require.Equal(t, 1, sub.Len())

	pending, err := pk.Store().Snapshot().AccountPending(accID)
	require.NoError(t, err)
	require.Contains(t, pending, tx.ID)
}

func TestTickDiffusesDueTransactions(t *testing.T) {
	store := walletdb.NewStore(slog.Disabled)
	pk := NewPassiveKernel(store, nil, slog.Disabled, nil)

	e := newTestESK(t, 0x11)
	in := types.Input{Index: 0}
	addr, err := e.AddressAt(0, 0)
	require.NoError(t, err)
	accIDs, err := pk.CreateWalletHDRandom("demo", false, types.AssuranceNormal, e,
		types.Utxo{in: {Address: addr, Amount: 10}})
	require.NoError(t, err)
	accID := accIDs[0]

	sub := submission.New(slog.Disabled)
	diff := &recordingDiffusion{}
	mclock := clock.NewManual(time.Unix(0, 0))
	active := NewActiveKernel(pk, diff, sub, mclock, slog.Disabled)

	tx := types.Tx{ID: types.TxID{0x02}, Inputs: []types.Input{in}}
	require.NoError(t, active.NewPending(accID, tx))

	mclock.Advance(time.Second)
	active.tick()

	require.Equal(t, []types.TxID{tx.ID}, diff.sent())
}

func TestRebuildSubmissionRepopulatesFromStore(t *testing.T) {
	store := walletdb.NewStore(slog.Disabled)
	pk := NewPassiveKernel(store, nil, slog.Disabled, nil)

	e := newTestESK(t, 0x12)
	in := types.Input{Index: 0}
	addr, err := e.AddressAt(0, 0)
	require.NoError(t, err)
	accIDs, err := pk.CreateWalletHDRandom("demo", false, types.AssuranceNormal, e,
		types.Utxo{in: {Address: addr, Amount: 10}})
	require.NoError(t, err)
	accID := accIDs[0]

	tx := types.Tx{ID: types.TxID{0x03}, Inputs: []types.Input{in}}
	require.NoError(t, pk.Store().NewPending(accID, tx))

	sub := submission.New(slog.Disabled)
	diff := &recordingDiffusion{}
	active := NewActiveKernel(pk, diff, sub, clock.Real{}, slog.Disabled)
	require.Equal(t, 0, sub.Len())

	require.NoError(t, active.RebuildSubmission(accIDs))
	require.Equal(t, 1, sub.Len())
}

func TestBracketActiveWalletTearsDownTicker(t *testing.T) {
	store := walletdb.NewStore(slog.Disabled)
	pk := NewPassiveKernel(store, nil, slog.Disabled, nil)
	sub := submission.New(slog.Disabled)
	diff := &recordingDiffusion{}

	ran := false
	err := BracketActiveWallet(pk, diff, sub, clock.Real{}, time.Millisecond, slog.Disabled,
		func(active *ActiveKernel) error {
			ran = true
			return nil
		})
	require.NoError(t, err)
	require.True(t, ran)
}
