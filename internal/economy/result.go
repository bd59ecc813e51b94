package economy

import "errors"

// Reason names why a purchase or learn was refused.
type Reason string

const (
	ReasonUnknownItem       Reason = "unknown_item"
	ReasonAlreadyOwned      Reason = "already_owned"
	ReasonLocked            Reason = "locked"
	ReasonInsufficientFunds Reason = "insufficient_funds"
)

var (
	ErrUnknownItem       = errors.New("unknown item")
	ErrAlreadyOwned      = errors.New("already owned")
	ErrLocked            = errors.New("locked")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Result is the structured outcome of Purchase and Learn. Refusals are
// values, not errors; Err converts them for errors.Is checks.
type Result struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Reason  Reason `json:"reason,omitempty"`
	Cost    int64  `json:"cost"`
}

func (r Result) Err() error {
	if r.Success {
		return nil
	}
	switch r.Reason {
	case ReasonUnknownItem:
		return ErrUnknownItem
	case ReasonAlreadyOwned:
		return ErrAlreadyOwned
	case ReasonLocked:
		return ErrLocked
	case ReasonInsufficientFunds:
		return ErrInsufficientFunds
	}
	return errors.New(string(r.Reason))
}
