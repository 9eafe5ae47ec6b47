package accrual

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// Claim pays everything the account has earned and returns the paid amount.
// Nothing happens if the account has nothing to claim: zero is returned and
// the PaymentSink is not called.
//
// The account is fully settled before the PaymentSink is called, so a
// re-entrant claim made by the sink with the context it received sees
// nothing to pay. Other callers touching the account wait until the payout
// finishes and never observe the settlement in flight. If the sink fails,
// Claim returns ErrPayoutFailed and the settlement is rolled back: the reward
// stays claimable.
func (d *Distributor) Claim(ctx context.Context, acc util.Uint160) (*uint256.Int, error) {
	if d.reentrant(ctx, acc) {
		d.mtx.Lock()
	} else {
		d.lock(acc)
	}

	stored, ok := d.accounts[acc]
	if !ok {
		d.mtx.Unlock()
		return new(uint256.Int), nil
	}

	amount, err := d.pending(stored, &d.accumulator)
	if err != nil {
		d.mtx.Unlock()
		return nil, fmt.Errorf("claim by %s: %w", acc.StringLE(), err)
	}

	if amount.IsZero() {
		d.mtx.Unlock()
		return new(uint256.Int), nil
	}

	before := *stored

	t := d.begin()
	a := t.get(acc)
	a.banked.Clear()
	a.paid = t.accumulator
	settled := *a
	t.commit()

	// nested claims of the same account run inside the outer payout
	_, nested := d.payouts[acc]
	if !nested {
		d.payouts[acc] = make(chan struct{})
	}

	d.mtx.Unlock()

	payErr := d.sink.Pay(d.withPayout(ctx, acc), acc, amount.Clone())

	d.mtx.Lock()

	var rbErr error
	if payErr != nil {
		rbErr = d.rollbackClaim(acc, before, settled, &amount)
	}

	if !nested {
		close(d.payouts[acc])
		delete(d.payouts, acc)
	}

	d.mtx.Unlock()

	if payErr != nil {
		d.log.Warn("dividend payout failed, claim rolled back",
			zap.Stringer("account", acc),
			zap.String("amount", amount.Dec()),
			zap.Error(payErr))

		if rbErr != nil {
			return nil, fmt.Errorf("%w: %w (rollback: %w)", ErrPayoutFailed, payErr, rbErr)
		}

		return nil, fmt.Errorf("%w: %w", ErrPayoutFailed, payErr)
	}

	d.log.Info("dividend claimed",
		zap.Stringer("account", acc),
		zap.String("amount", amount.Dec()))

	d.notifier.DividendClaimed(acc, amount.Clone())

	return &amount, nil
}

// rollbackClaim returns drained amount back to the account. If nothing has
// touched the account since the settlement, its record is restored exactly.
// Otherwise the amount is banked on top of what was reconciled meanwhile by
// nested claims. mtx must be held.
func (d *Distributor) rollbackClaim(acc util.Uint160, before, settled account, amount *uint256.Int) error {
	stored := d.accounts[acc]

	if *stored == settled {
		*stored = before
		return nil
	}

	var banked uint256.Int
	if _, overflow := banked.AddOverflow(&stored.banked, amount); overflow {
		return fmt.Errorf("%w: restoring %s to %s", ErrArithmeticOverflow, amount.Dec(), acc.StringLE())
	}

	stored.banked = banked
	return nil
}
