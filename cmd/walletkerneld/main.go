// Command walletkerneld is a runnable demonstration of the wallet kernel:
// it spins up a Passive Kernel and an Active Kernel over an in-memory store,
// seeds a handful of HD accounts with a random starting UTxO set, submits a
// pending payment selected by the largest-first coin-selection policy, and
// lets the Active Kernel's ticker retry it over the logging-only diffusion
// sender until the process receives an interrupt. It is not an RPC or HTTP
// server: the wallet kernel's [MODULE]s are a library surface, not a network
// service, and this binary exists only to exercise that surface end to end
// the way the teacher's cmd/dcrlnd exercises dcrlnd's.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/decred/dcrd/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/decred/walletkernel/clock"
	"github.com/decred/walletkernel/coinselect/policy"
	"github.com/decred/walletkernel/diffusion"
	"github.com/decred/walletkernel/esk"
	"github.com/decred/walletkernel/kernel"
	"github.com/decred/walletkernel/submission"
	"github.com/decred/walletkernel/types"
	"github.com/decred/walletkernel/walletdb"
	"github.com/decred/walletkernel/walletlog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.LogDir, 0o700); err != nil {
		return err
	}

	if _, err := initLogging(cfg); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Infof("walletkerneld shutting down")

	params := chaincfg.MainNetParams()
	reg := prometheus.NewRegistry()

	store := walletdb.NewStore(walletlog.StoreLog)
	passive := kernel.NewPassiveKernel(store, nil, walletlog.KernLog, reg)

	accIDs, err := seedWallet(passive, params, cfg.Accounts)
	if err != nil {
		return fmt.Errorf("seed wallet: %w", err)
	}
	log.Infof("seeded wallet accounts=%v", accIDs)

	sub := submission.NewWithPolicy(walletlog.SubmLog, submission.DefaultPolicy(), submission.DefaultMaxAttempts,
		submission.NewMetrics(reg))
	diff := diffusion.Logging{Logf: walletlog.SubmLog.Infof}
	tickInterval := time.Duration(cfg.TickIntervalMS) * time.Millisecond
	if tickInterval <= 0 {
		tickInterval = kernel.DefaultTickInterval
	}

	return kernel.BracketActiveWallet(passive, diff, sub, clock.Real{}, tickInterval, walletlog.KernLog,
		func(active *kernel.ActiveKernel) error {
			if err := submitDemoPayment(passive, active, accIDs); err != nil {
				log.Warnf("demo payment failed: %v", err)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			log.Infof("walletkerneld running, press ctrl-c to exit")
			<-sigCh
			return nil
		})
}

// seedWallet generates a fresh HD master key, registers it with the Passive
// Kernel under numAccounts accounts, and funds each account's first external
// address with a synthetic deposit so the demo has something to spend.
func seedWallet(passive *kernel.PassiveKernel, params *chaincfg.Params, numAccounts int) ([]types.AccountID, error) {
	seed, err := hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
	if err != nil {
		return nil, err
	}
	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, err
	}
	e, err := esk.New(master, params)
	if err != nil {
		return nil, err
	}

	initial := make(types.Utxo)
	for i := 0; i < numAccounts; i++ {
		if err := e.EnsureAccount(uint32(i)); err != nil {
			return nil, err
		}
		addr, err := e.AddressAt(uint32(i), 0)
		if err != nil {
			return nil, err
		}
		op := wire.OutPoint{Hash: fakeTxHash(i), Index: 0, Tree: wire.TxTreeRegular}
		initial[op] = types.Output{Address: addr, Amount: 50 * dcrutil.AtomsPerCoin}
	}

	return passive.CreateWalletHDRandom("demo", false, types.AssuranceNormal, e, initial)
}

func submitDemoPayment(passive *kernel.PassiveKernel, active *kernel.ActiveKernel, accIDs []types.AccountID) error {
	if len(accIDs) == 0 {
		return fmt.Errorf("no accounts to pay from")
	}
	accID := accIDs[0]

	utxo, err := passive.AccountUTXO(accID)
	if err != nil {
		return err
	}
	if len(utxo) == 0 {
		return fmt.Errorf("account %v has no spendable coins", accID)
	}

	coins := make([]policy.Coin, 0, len(utxo))
	for in, out := range utxo {
		coins = append(coins, policy.Coin{OutPoint: in, Output: out})
	}

	target := dcrutil.Amount(25 * dcrutil.AtomsPerCoin)
	outputs := []*wire.TxOut{{Value: int64(target)}}

	authored, stats, err := policy.LargestFirst(coins, outputs, nil)
	if err != nil {
		return fmt.Errorf("select inputs: %w", err)
	}
	log.Infof("selected %d input(s), total_in=%v total_out=%v", stats.InputsChosen, stats.TotalIn, stats.TotalOut)

	inputs := make([]types.Input, 0, len(authored.Tx.TxIn))
	for _, in := range authored.Tx.TxIn {
		inputs = append(inputs, in.PreviousOutPoint)
	}
	tx := types.Tx{ID: authored.Tx.TxHash(), Inputs: inputs}

	return active.NewPending(accID, tx)
}

func fakeTxHash(i int) (h chainhash.Hash) {
	h[0] = byte(i + 1)
	return h
}
