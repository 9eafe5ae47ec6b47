package accrual

import (
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// txn stages changes of a single Distributor operation on copies of the
// touched records. Nothing is visible until commit, so a failed step leaves
// the Distributor untouched. txn must be used with the write lock held.
type txn struct {
	d *Distributor

	accumulator uint256.Int
	total       uint256.Int
	touched     map[util.Uint160]*account
}

func (d *Distributor) begin() *txn {
	return &txn{
		d:           d,
		accumulator: d.accumulator,
		total:       d.total,
		touched:     make(map[util.Uint160]*account, 2),
	}
}

// get returns staged copy of the account record, creating it lazily.
func (t *txn) get(acc util.Uint160) *account {
	if a, ok := t.touched[acc]; ok {
		return a
	}

	a := new(account)
	if stored, ok := t.d.accounts[acc]; ok {
		*a = *stored
	}

	t.touched[acc] = a
	return a
}

func (t *txn) commit() {
	t.d.accumulator = t.accumulator
	t.d.total = t.total

	for acc, a := range t.touched {
		stored, ok := t.d.accounts[acc]
		if !ok {
			stored = new(account)
			t.d.accounts[acc] = stored
		}
		*stored = *a
	}
}
