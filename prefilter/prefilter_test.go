package prefilter

import (
	"testing"

	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/decred/walletkernel/esk"
	"github.com/decred/walletkernel/types"
)

func newTestESK(t *testing.T, seedByte byte) *esk.ESK {
	t.Helper()
	seed := make([]byte, hdkeychain.RecommendedSeedLen)
	seed[0] = seedByte
	master, err := hdkeychain.NewMaster(seed, chaincfg.MainNetParams())
	require.NoError(t, err)
	e, err := esk.New(master, chaincfg.MainNetParams())
	require.NoError(t, err)
	return e
}

func buildBlock(t *testing.T, recipient *esk.ESK) (types.ResolvedBlock, types.Output) {
	t.Helper()
	addr, err := recipient.AddressAt(0, 0)
	require.NoError(t, err)
	out := types.Output{Address: addr, Amount: 42}
	block := types.ResolvedBlock{
		Meta: types.Meta{Slot: 1},
		Txs: []types.ResolvedTx{
			{
				Hash:    types.TxID{0x01},
				Outputs: []types.Output{out},
			},
		},
	}
	return block, out
}

func TestPerWalletFindsOwnedOutput(t *testing.T) {
	e := newTestESK(t, 0x01)
	block, out := buildBlock(t, e)

	result := PerWallet(block, e, slog.Disabled)
	accID := types.AccountID{Root: e.RootID(), Index: 0}

	require.Contains(t, result, accID)
	pb := result[accID]
	require.Len(t, pb.NewOutputs, 1)
	for _, o := range pb.NewOutputs {
		require.Equal(t, out.Amount, o.Amount)
	}
}

func TestAllWalletsNaiveAndSinglePassAgree(t *testing.T) {
	e1 := newTestESK(t, 0x02)
	e2 := newTestESK(t, 0x03)
	block, _ := buildBlock(t, e1)

	m := esk.NewMap()
	m.Insert(e1)
	m.Insert(e2)

	naive := AllWalletsNaive(block, m, slog.Disabled)
	single := AllWalletsSinglePass(block, m, slog.Disabled)

	require.Equal(t, len(naive), len(single))
	for accID, pb := range naive {
		other, ok := single[accID]
		require.True(t, ok)
		require.Equal(t, len(pb.NewOutputs), len(other.NewOutputs))
	}
}

func TestPrefilterIgnoresUnownedOutput(t *testing.T) {
	owner := newTestESK(t, 0x04)
	stranger := newTestESK(t, 0x05)
	block, _ := buildBlock(t, owner)

	result := PerWallet(block, stranger, slog.Disabled)
	require.Empty(t, result)
}
