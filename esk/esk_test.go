package esk

import (
	"testing"

	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/stretchr/testify/require"

	"github.com/decred/walletkernel/types"
)

func newMaster(t *testing.T, seedByte byte) *hdkeychain.ExtendedKey {
	t.Helper()
	seed := make([]byte, hdkeychain.RecommendedSeedLen)
	seed[0] = seedByte
	master, err := hdkeychain.NewMaster(seed, chaincfg.MainNetParams())
	require.NoError(t, err)
	return master
}

func TestNewDerivesRootIDFromPublicKey(t *testing.T) {
	master := newMaster(t, 0x01)
	e, err := New(master, chaincfg.MainNetParams())
	require.NoError(t, err)
	require.NotEqual(t, types.RootID{}, e.RootID())
}

func TestOwnerOfRecognizesDerivedAddress(t *testing.T) {
	master := newMaster(t, 0x02)
	e, err := New(master, chaincfg.MainNetParams())
	require.NoError(t, err)

	addr, err := e.AddressAt(0, 0)
	require.NoError(t, err)

	accID, ok := e.OwnerOf(addr)
	require.True(t, ok)
	require.Equal(t, uint32(0), accID.Index)
}

func TestOwnerOfRejectsUnknownAddress(t *testing.T) {
	e1, err := New(newMaster(t, 0x03), chaincfg.MainNetParams())
	require.NoError(t, err)
	e2, err := New(newMaster(t, 0x04), chaincfg.MainNetParams())
	require.NoError(t, err)

	addr, err := e2.AddressAt(0, 0)
	require.NoError(t, err)

	_, ok := e1.OwnerOf(addr)
	require.False(t, ok)
}

func TestEnsureAccountGrowsLookahead(t *testing.T) {
	e, err := New(newMaster(t, 0x05), chaincfg.MainNetParams())
	require.NoError(t, err)

	require.NoError(t, e.EnsureAccount(1))
	addr, err := e.AddressAt(1, DefaultLookahead-1)
	require.NoError(t, err)

	accID, ok := e.OwnerOf(addr)
	require.True(t, ok)
	require.Equal(t, uint32(1), accID.Index)
}

func TestSealUnsealRoundTrip(t *testing.T) {
	master := newMaster(t, 0x06)
	password := []byte("correct horse battery staple")

	blob, err := Seal(master, password)
	require.NoError(t, err)

	recovered, err := Unseal(blob, password)
	require.NoError(t, err)
	require.Equal(t, master.String(), recovered.String())
}

func TestUnsealRejectsWrongPassword(t *testing.T) {
	master := newMaster(t, 0x07)
	blob, err := Seal(master, []byte("correct password"))
	require.NoError(t, err)

	_, err = Unseal(blob, []byte("wrong password"))
	require.Error(t, err)
}

func TestMapInsertIsIdempotentAndOwnerOfScansAllWallets(t *testing.T) {
	e1, err := New(newMaster(t, 0x08), chaincfg.MainNetParams())
	require.NoError(t, err)
	e2, err := New(newMaster(t, 0x09), chaincfg.MainNetParams())
	require.NoError(t, err)

	m := NewMap()
	m.Insert(e1)
	m.Insert(e1) // idempotent
	m.Insert(e2)
	require.Len(t, m.All(), 2)

	addr, err := e2.AddressAt(0, 0)
	require.NoError(t, err)
	accID, ok := m.OwnerOf(addr)
	require.True(t, ok)
	require.Equal(t, e2.RootID(), accID.Root)
}
