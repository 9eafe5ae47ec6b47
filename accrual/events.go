package accrual

import (
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Notifier receives audit events of the Distributor. Events are delivered
// after the corresponding change is applied and without any lock held, so
// Notifier must be safe for concurrent use.
type Notifier interface {
	// DividendDelivered is called on every successful non-zero deposit.
	DividendDelivered(amount *uint256.Int)

	// DividendClaimed is called on every successful non-zero claim.
	DividendClaimed(account util.Uint160, amount *uint256.Int)
}

type nopNotifier struct{}

func (nopNotifier) DividendDelivered(*uint256.Int) {}

func (nopNotifier) DividendClaimed(util.Uint160, *uint256.Int) {}
