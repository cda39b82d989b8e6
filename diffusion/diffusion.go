// Package diffusion defines the network-broadcast interface the submission
// layer's ticker uses to retransmit pending transactions. It is consumed,
// never implemented, by the kernel: the enclosing node supplies the real
// peer-to-peer sender.
package diffusion

import "github.com/decred/walletkernel/types"

// SendError is an opaque diffusion failure. The submission layer treats any
// non-nil error identically: "try again later."
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return "diffusion: " + e.Err.Error() }

func (e *SendError) Unwrap() error { return e.Err }

// Diffusion fire-and-forget broadcasts a locally-submitted transaction to
// the network.
type Diffusion interface {
	SendTx(tx types.Tx) error
}

// Logging is a Diffusion that only logs; useful for the demo binary and for
// tests that don't care about real network delivery.
type Logging struct {
	Logf func(format string, args ...interface{})
}

// SendTx logs the send and always succeeds.
func (l Logging) SendTx(tx types.Tx) error {
	if l.Logf != nil {
		l.Logf("diffusion: broadcasting tx %v (%d inputs, %d outputs)",
			tx.ID, len(tx.Inputs), len(tx.Outputs))
	}
	return nil
}
