package accrual

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// increase applies balance increase to the staged account. Accounts never
// seen before are classified by the Predicate first; accounts classified as
// not eligible are ignored forever.
func (t *txn) increase(acc util.Uint160, amount *uint256.Int) error {
	a := t.get(acc)

	if !a.eligible {
		if a.classified {
			return nil
		}

		a.classified = true
		a.eligible = t.d.predicate.IsEligible(acc)

		if !a.eligible {
			t.d.log.Debug("account is not eligible", zap.Stringer("account", acc))
			return nil
		}

		// first reconciliation only pins the watermark since the balance is
		// still zero, so no reward accrued before this point is credited
		t.d.log.Debug("account became eligible", zap.Stringer("account", acc))
	}

	if err := t.reconcile(acc); err != nil {
		return err
	}

	if _, overflow := a.balance.AddOverflow(&a.balance, amount); overflow {
		return fmt.Errorf("%w: eligible balance of %s", ErrArithmeticOverflow, acc.StringLE())
	}

	if _, overflow := t.total.AddOverflow(&t.total, amount); overflow {
		return fmt.Errorf("%w: total eligible supply", ErrArithmeticOverflow)
	}

	return nil
}

// decrease applies balance decrease to the staged account. Not eligible
// accounts are ignored.
func (t *txn) decrease(acc util.Uint160, amount *uint256.Int) error {
	a := t.get(acc)
	if !a.eligible {
		return nil
	}

	if a.balance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, decrease by %s",
			ErrInsufficientEligibleBalance, acc.StringLE(), a.balance.Dec(), amount.Dec())
	}

	if err := t.reconcile(acc); err != nil {
		return err
	}

	a.balance.Sub(&a.balance, amount)

	if _, underflow := t.total.SubOverflow(&t.total, amount); underflow {
		return fmt.Errorf("%w: total eligible supply is below balance of %s", ErrArithmeticOverflow, acc.StringLE())
	}

	return nil
}

// BalanceIncrease must be called by the balance ledger each time the account
// receives amount (transfer destination, mint).
func (d *Distributor) BalanceIncrease(acc util.Uint160, amount *uint256.Int) error {
	d.lock(acc)
	defer d.mtx.Unlock()

	t := d.begin()
	if err := t.increase(acc, amount); err != nil {
		return err
	}

	t.commit()
	return nil
}

// BalanceDecrease must be called by the balance ledger each time the account
// loses amount (transfer source, burn).
func (d *Distributor) BalanceDecrease(acc util.Uint160, amount *uint256.Int) error {
	d.lock(acc)
	defer d.mtx.Unlock()

	t := d.begin()
	if err := t.decrease(acc, amount); err != nil {
		return err
	}

	t.commit()
	return nil
}

// Transfer applies both legs of a transfer as one atomic operation. Sending
// to self is allowed and changes nothing but the reconciliation of the
// account.
func (d *Distributor) Transfer(from, to util.Uint160, amount *uint256.Int) error {
	d.lock(from, to)
	defer d.mtx.Unlock()

	t := d.begin()

	if err := t.decrease(from, amount); err != nil {
		return fmt.Errorf("sender: %w", err)
	}

	if err := t.increase(to, amount); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}

	t.commit()
	return nil
}
