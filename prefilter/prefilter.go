// Package prefilter projects a resolved block onto the accounts owned by a
// set of wallet keys: which inputs the wallet is spending, and which new
// outputs it is receiving. It is a pure function of (block, keys); it never
// touches the store.
package prefilter

import (
	"github.com/decred/slog"
	"github.com/decred/walletkernel/esk"
	"github.com/decred/walletkernel/types"
)

// DerivationError describes an output whose address cannot be derived or
// parsed. No function in this package returns it: the strategies below skip
// every output whose owner cannot be determined, without logging it, and
// never abort the surrounding block.
type DerivationError struct {
	Reason string
}

func (e *DerivationError) Error() string { return "derivation error: " + e.Reason }

// Strategy prefilters a resolved block across every wallet known to m.
type Strategy func(block types.ResolvedBlock, m *esk.Map, log slog.Logger) map[types.AccountID]types.PrefilteredBlock

// PerWallet prefilters a resolved block against a single wallet's key
// material. This is the naive building block: called once per wallet it is
// correct but O(n·k) across k wallets, which is why AllWalletsSinglePass
// exists as the preferred strategy.
func PerWallet(block types.ResolvedBlock, w *esk.ESK, log slog.Logger) map[types.AccountID]types.PrefilteredBlock {
	out := make(map[types.AccountID]types.PrefilteredBlock)
	meta := types.BlockMeta{Slot: block.Meta.Slot, Timestamp: block.Meta.Timestamp}

	for _, tx := range block.Txs {
		for _, in := range tx.Inputs {
			accID, ok := w.OwnerOf(in.Spent.Address)
			if !ok {
				continue
			}
			pb := out[accID]
			if pb.NewOutputs == nil {
				pb.NewOutputs = make(map[types.Input]types.Output)
				pb.Meta = meta
			}
			pb.SpentInputs = append(pb.SpentInputs, in.Outpoint)
			out[accID] = pb
		}

		for i, o := range tx.Outputs {
			accID, ok := w.OwnerOf(o.Address)
			if !ok {
				continue
			}
			pb := out[accID]
			if pb.NewOutputs == nil {
				pb.NewOutputs = make(map[types.Input]types.Output)
				pb.Meta = meta
			}
			outpoint := types.Input{Hash: tx.Hash, Index: uint32(i)}
			pb.NewOutputs[outpoint] = o
			out[accID] = pb
		}
	}

	return out
}

// AllWalletsNaive prefilters a block against every wallet in m by running
// PerWallet once per wallet and merging by disjoint union over AccountID.
// Because AccountID embeds RootID, and each wallet owns a disjoint set of
// roots, the per-wallet result sets never collide.
func AllWalletsNaive(block types.ResolvedBlock, m *esk.Map, log slog.Logger) map[types.AccountID]types.PrefilteredBlock {
	merged := make(map[types.AccountID]types.PrefilteredBlock)
	for _, w := range m.All() {
		for accID, pb := range PerWallet(block, w, log) {
			if _, collide := merged[accID]; collide {
				log.Warnf("prefilter: account %v produced by more than one wallet, dropping duplicate", accID)
				continue
			}
			merged[accID] = pb
		}
	}
	return merged
}

// AllWalletsSinglePass folds once over the block's transactions, consulting
// the full key map for every input/output instead of repeating the walk per
// wallet. This is the preferred strategy per the design notes' optimization
// guidance; it produces identical results to AllWalletsNaive.
func AllWalletsSinglePass(block types.ResolvedBlock, m *esk.Map, log slog.Logger) map[types.AccountID]types.PrefilteredBlock {
	out := make(map[types.AccountID]types.PrefilteredBlock)
	meta := types.BlockMeta{Slot: block.Meta.Slot, Timestamp: block.Meta.Timestamp}

	touch := func(accID types.AccountID) types.PrefilteredBlock {
		pb, ok := out[accID]
		if !ok {
			pb = types.PrefilteredBlock{NewOutputs: make(map[types.Input]types.Output), Meta: meta}
		}
		return pb
	}

	for _, tx := range block.Txs {
		for _, in := range tx.Inputs {
			accID, ok := m.OwnerOf(in.Spent.Address)
			if !ok {
				continue
			}
			pb := touch(accID)
			pb.SpentInputs = append(pb.SpentInputs, in.Outpoint)
			out[accID] = pb
		}

		for i, o := range tx.Outputs {
			accID, ok := m.OwnerOf(o.Address)
			if !ok {
				continue
			}
			pb := touch(accID)
			outpoint := types.Input{Hash: tx.Hash, Index: uint32(i)}
			pb.NewOutputs[outpoint] = o
			out[accID] = pb
		}
	}

	return out
}
