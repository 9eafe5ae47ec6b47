package accrual

import "errors"

var (
	// ErrNoEligibleSupply is returned by Distributor.Deposit when no eligible
	// units exist to share the deposit. Rejected funds must be discarded or
	// retried by the caller.
	ErrNoEligibleSupply = errors.New("no eligible supply")

	// ErrInsufficientEligibleBalance is returned when a decrease exceeds the
	// eligible balance recorded for the account. It means the balance ledger
	// and the Distributor went out of sync.
	ErrInsufficientEligibleBalance = errors.New("insufficient eligible balance")

	// ErrArithmeticOverflow is returned when any step of the accrual math does
	// not fit into 256 bits.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrPayoutFailed is returned by Distributor.Claim when the PaymentSink
	// fails. The claim is rolled back.
	ErrPayoutFailed = errors.New("payout failed")

	// ErrInvalidScalar is returned for precision settings that can't be
	// represented.
	ErrInvalidScalar = errors.New("invalid scalar")
)
