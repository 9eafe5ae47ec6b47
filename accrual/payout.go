package accrual

import (
	"context"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// payoutScope marks the context handed to the PaymentSink. Calls made with it
// are re-entrant for the account being paid.
type payoutScope struct {
	d      *Distributor
	acc    util.Uint160
	parent *payoutScope
}

type payoutScopeKey struct{}

func (d *Distributor) withPayout(ctx context.Context, acc util.Uint160) context.Context {
	parent, _ := ctx.Value(payoutScopeKey{}).(*payoutScope)
	return context.WithValue(ctx, payoutScopeKey{}, &payoutScope{d: d, acc: acc, parent: parent})
}

// reentrant checks whether ctx comes from the PaymentSink call paying acc.
func (d *Distributor) reentrant(ctx context.Context, acc util.Uint160) bool {
	p, _ := ctx.Value(payoutScopeKey{}).(*payoutScope)
	for ; p != nil; p = p.parent {
		if p.d == d && p.acc == acc {
			return true
		}
	}
	return false
}

// inFlight returns a channel closed once the payout to one of accs
// finishes, nil if none is in progress. mtx must be held.
func (d *Distributor) inFlight(accs []util.Uint160) chan struct{} {
	for _, acc := range accs {
		if done, ok := d.payouts[acc]; ok {
			return done
		}
	}
	return nil
}

// lock takes the write lock when no payout to accs is in progress.
func (d *Distributor) lock(accs ...util.Uint160) {
	for {
		d.mtx.Lock()

		done := d.inFlight(accs)
		if done == nil {
			return
		}

		d.mtx.Unlock()
		<-done
	}
}

// rlock takes the read lock when no payout to acc is in progress.
func (d *Distributor) rlock(acc util.Uint160) {
	accs := []util.Uint160{acc}

	for {
		d.mtx.RLock()

		done := d.inFlight(accs)
		if done == nil {
			return
		}

		d.mtx.RUnlock()
		<-done
	}
}
