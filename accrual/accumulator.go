package accrual

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// pending returns reward the account has earned so far: the banked part plus
// its share of the accumulator growth since the last reconciliation.
func (d *Distributor) pending(a *account, accumulator *uint256.Int) (uint256.Int, error) {
	var growth uint256.Int

	if _, underflow := growth.SubOverflow(accumulator, &a.paid); underflow {
		return uint256.Int{}, fmt.Errorf("%w: paid watermark %s is ahead of accumulator %s",
			ErrArithmeticOverflow, a.paid.Dec(), accumulator.Dec())
	}

	share, err := d.scalar.share(&a.balance, &growth)
	if err != nil {
		return uint256.Int{}, err
	}

	var res uint256.Int
	if _, overflow := res.AddOverflow(&a.banked, &share); overflow {
		return uint256.Int{}, fmt.Errorf("%w: banking %s on top of %s", ErrArithmeticOverflow, share.Dec(), a.banked.Dec())
	}

	return res, nil
}

// reconcile folds pending reward of the staged account into its banked part
// and moves its paid watermark to the current accumulator. It must run before
// any change of the account's eligible balance.
func (t *txn) reconcile(acc util.Uint160) error {
	a := t.get(acc)

	banked, err := t.d.pending(a, &t.accumulator)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", acc.StringLE(), err)
	}

	a.banked = banked
	a.paid = t.accumulator

	return nil
}

// Reconcile settles accrued reward of the account without changing its
// balance. Hosts rarely need it: every balance change and claim reconciles
// implicitly.
func (d *Distributor) Reconcile(acc util.Uint160) error {
	d.lock(acc)
	defer d.mtx.Unlock()

	t := d.begin()
	if err := t.reconcile(acc); err != nil {
		return err
	}

	t.commit()
	return nil
}

// Earned returns total reward claimable by the account right now. It doesn't
// modify the state.
func (d *Distributor) Earned(acc util.Uint160) (*uint256.Int, error) {
	d.rlock(acc)
	defer d.mtx.RUnlock()

	a, ok := d.accounts[acc]
	if !ok {
		return new(uint256.Int), nil
	}

	res, err := d.pending(a, &d.accumulator)
	if err != nil {
		return nil, fmt.Errorf("earned by %s: %w", acc.StringLE(), err)
	}

	return &res, nil
}

// Deposit shares amount between all eligible units by advancing the
// accumulator by amount*Scalar/TotalEligibleSupply. The division remainder is
// forfeited. Deposit fails with ErrNoEligibleSupply if there are no eligible
// units; zero amount is accepted and changes nothing.
func (d *Distributor) Deposit(amount *uint256.Int) error {
	d.mtx.Lock()

	if d.total.IsZero() {
		d.mtx.Unlock()
		return ErrNoEligibleSupply
	}

	if amount.IsZero() {
		d.mtx.Unlock()
		return nil
	}

	t := d.begin()

	growth, err := d.scalar.perUnit(amount, &t.total)
	if err != nil {
		d.mtx.Unlock()
		return fmt.Errorf("deposit: %w", err)
	}

	if _, overflow := t.accumulator.AddOverflow(&t.accumulator, &growth); overflow {
		d.mtx.Unlock()
		return fmt.Errorf("deposit: %w: accumulator growth by %s", ErrArithmeticOverflow, growth.Dec())
	}

	t.commit()
	supply := d.total.Clone()
	d.mtx.Unlock()

	d.log.Info("dividend delivered",
		zap.String("amount", amount.Dec()),
		zap.String("eligible supply", supply.Dec()),
		zap.String("accumulator growth", growth.Dec()))

	d.notifier.DividendDelivered(amount.Clone())

	return nil
}
