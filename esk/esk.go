// Package esk holds encrypted secret key material: the keys a wallet root
// uses to derive accounts and addresses. Per the wallet kernel design, ESKs
// never enter the persistent store — they live only in this process-local,
// lock-guarded map, and the HD Wallet Store only ever sees the AccountIDs
// and addresses they derive.
package esk

import (
	"crypto/rand"
	"errors"
	"sync"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v3"
	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/decred/dcrd/txscript/v4/stdaddr"
	goerrors "github.com/go-errors/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/decred/walletkernel/types"
)

// DefaultLookahead is the number of external addresses derived per account
// when the account branch is first touched. It bounds how far ahead of the
// last used address the prefilter can recognize incoming payments.
const DefaultLookahead = 20

// DefaultMaxAccounts bounds how many account branches are derived eagerly
// at wallet creation. EnsureAccount grows past this on demand.
const DefaultMaxAccounts = 1

// ESK is one root's key material plus a cache of derived account addresses.
// The extended private key is held decrypted in memory while the ESK is
// registered with the Passive Kernel; Seal/Unseal round-trip it through
// password-based encryption for at-rest storage outside the kernel.
type ESK struct {
	mu sync.RWMutex

	walletID types.WalletID
	rootID   types.RootID
	master   *hdkeychain.ExtendedKey
	params   stdaddr.AddressParams

	addrIndex map[string]types.AccountID
	accounts  uint32
}

// New derives a root id from the master key's public key hash and returns a
// ready-to-use ESK with DefaultMaxAccounts account branches derived.
func New(master *hdkeychain.ExtendedKey, params stdaddr.AddressParams) (*ESK, error) {
	// Neutering the master key should never fail for a key this package
	// itself derived; wrap with a stack trace so a failure here is
	// diagnosable rather than a bare error string.
	pub, err := master.Neuter()
	if err != nil {
		return nil, goerrors.Wrap(err, 0)
	}
	pubKey, err := secp256k1.ParsePubKey(pub.SerializedPubKey())
	if err != nil {
		return nil, goerrors.Wrap(err, 0)
	}
	rootID := chainhash.HashH(pubKey.SerializeCompressed())

	e := &ESK{
		walletID:  rootID,
		rootID:    rootID,
		master:    master,
		params:    params,
		addrIndex: make(map[string]types.AccountID),
	}
	for i := uint32(0); i < DefaultMaxAccounts; i++ {
		if err := e.ensureAccountLocked(i); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// RootID returns the ESK's root id.
func (e *ESK) RootID() types.RootID { return e.rootID }

// WalletID returns the ESK's wallet id (equal to RootID for HD-random
// wallets).
func (e *ESK) WalletID() types.WalletID { return e.walletID }

// EnsureAccount derives account index's external address window if it
// hasn't been derived yet.
func (e *ESK) EnsureAccount(index uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureAccountLocked(index)
}

func (e *ESK) ensureAccountLocked(index uint32) error {
	accID := types.AccountID{Root: e.rootID, Index: index}
	for _, owner := range e.addrIndex {
		if owner == accID {
			return nil
		}
	}
	accountKey, err := e.master.Child(hdkeychain.HardenedKeyStart + index)
	if err != nil {
		return err
	}
	externalBranch, err := accountKey.Child(0)
	if err != nil {
		return err
	}

	for i := uint32(0); i < DefaultLookahead; i++ {
		childKey, err := externalBranch.Child(i)
		if err != nil {
			continue // skip invalid child indices rather than abort derivation
		}
		addr, err := addressFromKey(childKey, e.params)
		if err != nil {
			continue
		}
		e.addrIndex[addr.Address()] = accID
	}
	if index+1 > e.accounts {
		e.accounts = index + 1
	}
	return nil
}

func addressFromKey(key *hdkeychain.ExtendedKey, params stdaddr.AddressParams) (stdaddr.Address, error) {
	pub, err := key.Neuter()
	if err != nil {
		return nil, err
	}
	pubKey, err := secp256k1.ParsePubKey(pub.SerializedPubKey())
	if err != nil {
		return nil, err
	}
	return stdaddr.NewAddressPubKeyHashEcdsaSecp256k1V0(
		stdaddr.Hash160(pubKey.SerializeCompressed()), params,
	)
}

// AddressAt derives the external address at the given account and address
// index, ensuring the account branch has been derived first. It exists
// alongside OwnerOf's reverse lookup for callers (such as a funding source
// simulating an initial deposit) that need to go from an account to one of
// its addresses rather than the other way around.
func (e *ESK) AddressAt(accountIndex, addressIndex uint32) (stdaddr.Address, error) {
	e.mu.Lock()
	if err := e.ensureAccountLocked(accountIndex); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	accountKey, err := e.master.Child(hdkeychain.HardenedKeyStart + accountIndex)
	if err != nil {
		return nil, err
	}
	externalBranch, err := accountKey.Child(0)
	if err != nil {
		return nil, err
	}
	childKey, err := externalBranch.Child(addressIndex)
	if err != nil {
		return nil, err
	}
	return addressFromKey(childKey, e.params)
}

// OwnerOf reports which account, if any, controls addr.
func (e *ESK) OwnerOf(addr stdaddr.Address) (types.AccountID, bool) {
	if addr == nil {
		return types.AccountID{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	accID, ok := e.addrIndex[addr.Address()]
	return accID, ok
}

// Seal encrypts the ESK's master extended private key under password using
// scrypt-stretched symmetric encryption, for storage outside the kernel's
// process-local map.
func Seal(master *hdkeychain.ExtendedKey, password []byte) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := scrypt.Key(password, salt[:], 1<<15, 8, 1, 32)
	if err != nil {
		return nil, err
	}
	var secretKey [32]byte
	copy(secretKey[:], key)

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	plaintext := []byte(master.String())
	sealed := secretbox.Seal(nil, plaintext, &nonce, &secretKey)

	out := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = append(out, sealed...)
	return out, nil
}

// Unseal reverses Seal, recovering the master extended private key.
func Unseal(blob, password []byte) (*hdkeychain.ExtendedKey, error) {
	if len(blob) < 16+24 {
		return nil, errors.New("esk: sealed blob too short")
	}
	var salt [16]byte
	copy(salt[:], blob[:16])
	var nonce [24]byte
	copy(nonce[:], blob[16:40])
	box := blob[40:]

	key, err := scrypt.Key(password, salt[:], 1<<15, 8, 1, 32)
	if err != nil {
		return nil, err
	}
	var secretKey [32]byte
	copy(secretKey[:], key)

	plaintext, ok := secretbox.Open(nil, box, &nonce, &secretKey)
	if !ok {
		return nil, errors.New("esk: incorrect password or corrupted blob")
	}
	return hdkeychain.NewKeyFromString(string(plaintext), nil)
}

// Map is the process-local registry of ESKs, keyed by WalletID. It is held
// exclusively by the Passive Kernel and must never leak by reference across
// module boundaries.
type Map struct {
	mu   sync.RWMutex
	esks map[types.WalletID]*ESK
}

// NewMap returns an empty ESK map.
func NewMap() *Map {
	return &Map{esks: make(map[types.WalletID]*ESK)}
}

// Insert registers e under its wallet id. Insertion is idempotent: inserting
// the same wallet id twice is a no-op on the second call.
func (m *Map) Insert(e *ESK) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.esks[e.WalletID()]; exists {
		return
	}
	m.esks[e.WalletID()] = e
}

// Get returns the ESK registered for id, if any.
func (m *Map) Get(id types.WalletID) (*ESK, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.esks[id]
	return e, ok
}

// All returns a snapshot slice of every registered ESK.
func (m *Map) All() []*ESK {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ESK, 0, len(m.esks))
	for _, e := range m.esks {
		out = append(out, e)
	}
	return out
}

// OwnerOf scans every registered ESK for ownership of addr. Because accounts
// across roots are disjoint by construction, at most one ESK can claim it.
func (m *Map) OwnerOf(addr stdaddr.Address) (types.AccountID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.esks {
		if accID, ok := e.OwnerOf(addr); ok {
			return accID, true
		}
	}
	return types.AccountID{}, false
}
