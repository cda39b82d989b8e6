package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccountIDString(t *testing.T) {
	id := AccountID{Index: 3}
	require.Contains(t, id.String(), "/3")
}

func TestUtxoCloneIsIndependent(t *testing.T) {
	op := Input{Index: 0}
	u := Utxo{op: {Amount: 5}}
	clone := u.Clone()
	clone[op] = Output{Amount: 10}

	require.Equal(t, Amount(5), u[op].Amount)
	require.Equal(t, Amount(10), clone[op].Amount)
}

func TestUtxoSum(t *testing.T) {
	u := Utxo{
		{Index: 0}: {Amount: 5},
		{Index: 1}: {Amount: 7},
	}
	require.Equal(t, Amount(12), u.Sum())
}

func TestAccountTotalBalanceExcludesPending(t *testing.T) {
	spent := Input{Index: 0, Hash: TxID{0x01}}
	acc := &Account{
		Utxo: Utxo{spent: {Amount: 100}},
		Pending: map[TxID]Tx{
			{0xAA}: {Inputs: []Input{spent}},
		},
	}
	// Available balance counts confirmed utxo regardless of what is pending
	// against it; pending removal happens at apply_block time, not at read
	// time.
	require.Equal(t, Amount(100), acc.TotalBalance())
}

func TestAccountPendingInputs(t *testing.T) {
	in := Input{Index: 2}
	acc := &Account{
		Pending: map[TxID]Tx{
			{0x01}: {Inputs: []Input{in}},
		},
	}
	_, ok := acc.PendingInputs()[in]
	require.True(t, ok)
}

func TestAccountCloneDeepCopiesPending(t *testing.T) {
	acc := &Account{
		Utxo:    Utxo{},
		Pending: map[TxID]Tx{{0x01}: {ID: TxID{0x01}}},
	}
	clone := acc.Clone()
	clone.Pending[TxID{0x02}] = Tx{ID: TxID{0x02}}

	require.Len(t, acc.Pending, 1)
	require.Len(t, clone.Pending, 2)
}
