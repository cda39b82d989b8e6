package walletdb

import (
	"fmt"

	"github.com/decred/walletkernel/types"
)

// CreateError is returned by CreateHDWallet.
type CreateError struct {
	RootAlreadyExists *types.RootID
}

func (e *CreateError) Error() string {
	if e.RootAlreadyExists != nil {
		return fmt.Sprintf("root already exists: %v", *e.RootAlreadyExists)
	}
	return "create error"
}

func errRootAlreadyExists(id types.RootID) error {
	return &CreateError{RootAlreadyExists: &id}
}

// NewPendingError is returned by NewPending.
type NewPendingError struct {
	UnknownAccount    *types.AccountID
	InputsUnavailable []types.Input
}

func (e *NewPendingError) Error() string {
	switch {
	case e.UnknownAccount != nil:
		return fmt.Sprintf("unknown account: %v", *e.UnknownAccount)
	case len(e.InputsUnavailable) > 0:
		return fmt.Sprintf("inputs unavailable: %v", e.InputsUnavailable)
	default:
		return "new pending error"
	}
}

func errUnknownAccount(id types.AccountID) error {
	return &NewPendingError{UnknownAccount: &id}
}

func errInputsUnavailable(inputs []types.Input) error {
	return &NewPendingError{InputsUnavailable: inputs}
}

// QueryError is returned by the read-only DbView accessors.
type QueryError struct {
	UnknownRoot    bool
	UnknownAccount bool
}

func (e *QueryError) Error() string {
	switch {
	case e.UnknownRoot:
		return "unknown root"
	case e.UnknownAccount:
		return "unknown account"
	default:
		return "query error"
	}
}

var errQueryUnknownAccount = &QueryError{UnknownAccount: true}
