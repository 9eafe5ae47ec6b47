package accrual

import (
	"context"
	"errors"
	"sync"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// Predicate decides whether an account may take part in the distribution.
// It is consulted at most once per account, on its first balance increase,
// with the Distributor locked, so it must not call back into the Distributor.
type Predicate interface {
	IsEligible(account util.Uint160) bool
}

// PredicateFunc is a functional Predicate.
type PredicateFunc func(account util.Uint160) bool

// IsEligible implements Predicate.
func (f PredicateFunc) IsEligible(account util.Uint160) bool {
	return f(account)
}

// PaymentSink moves claimed reward to the claimant. Any returned error aborts
// the claim. The sink runs without the Distributor lock held. It may claim
// again with the passed context and may deposit, but other calls touching the
// account being paid block until Pay returns.
type PaymentSink interface {
	Pay(ctx context.Context, account util.Uint160, amount *uint256.Int) error
}

// PaymentSinkFunc is a functional PaymentSink.
type PaymentSinkFunc func(ctx context.Context, account util.Uint160, amount *uint256.Int) error

// Pay implements PaymentSink.
func (f PaymentSinkFunc) Pay(ctx context.Context, account util.Uint160, amount *uint256.Int) error {
	return f(ctx, account, amount)
}

// Prm groups Distributor parameters.
type Prm struct {
	// Fixed-point precision of the accumulator. DefaultScalar is used if unset.
	Scalar Scalar

	// Required eligibility rule.
	Predicate Predicate

	// Required payout channel.
	Sink PaymentSink

	// Optional event receiver.
	Notifier Notifier

	// Optional logger, no-op one is used if nil.
	Logger *zap.Logger
}

// account is a per-address record. Zero value is a never seen account.
type account struct {
	// classified is set once Predicate was asked about the account.
	classified bool
	eligible   bool

	balance uint256.Int
	paid    uint256.Int
	banked  uint256.Int
}

// AccountState is a read-only copy of the per-account accrual record.
type AccountState struct {
	Eligible          bool
	EligibleBalance   *uint256.Int
	RewardPerUnitPaid *uint256.Int
	EarnedBanked      *uint256.Int
}

// Distributor is the accounting state shared by the eligibility ledger, the
// reward accumulator and the claim processor. All mutating methods are atomic:
// they either apply every change or return an error leaving the state intact.
// Distributor is safe for concurrent use.
type Distributor struct {
	log       *zap.Logger
	scalar    Scalar
	predicate Predicate
	sink      PaymentSink
	notifier  Notifier

	mtx         sync.RWMutex
	accumulator uint256.Int
	total       uint256.Int
	accounts    map[util.Uint160]*account

	// closed when the payout to the account finishes
	payouts map[util.Uint160]chan struct{}
}

// New creates a Distributor with zero accumulator and no accounts.
func New(prm Prm) (*Distributor, error) {
	switch {
	case prm.Predicate == nil:
		return nil, errors.New("missing eligibility predicate")
	case prm.Sink == nil:
		return nil, errors.New("missing payment sink")
	}

	if prm.Scalar.IsZero() {
		prm.Scalar = DefaultScalar()
	}

	if prm.Notifier == nil {
		prm.Notifier = nopNotifier{}
	}

	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	return &Distributor{
		log:       prm.Logger,
		scalar:    prm.Scalar,
		predicate: prm.Predicate,
		sink:      prm.Sink,
		notifier:  prm.Notifier,
		accounts:  make(map[util.Uint160]*account),
		payouts:   make(map[util.Uint160]chan struct{}),
	}, nil
}

// Scalar returns precision the Distributor was created with.
func (d *Distributor) Scalar() Scalar {
	return d.scalar
}

// TotalEligibleSupply returns sum of the eligible balances of all eligible
// accounts.
func (d *Distributor) TotalEligibleSupply() *uint256.Int {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	return d.total.Clone()
}

// Accumulator returns accumulated reward per eligible unit multiplied by
// the Scalar.
func (d *Distributor) Accumulator() *uint256.Int {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	return d.accumulator.Clone()
}

// EligibleBalanceOf returns eligible balance of the account. It's zero for
// not eligible accounts.
func (d *Distributor) EligibleBalanceOf(acc util.Uint160) *uint256.Int {
	d.rlock(acc)
	defer d.mtx.RUnlock()

	if a, ok := d.accounts[acc]; ok {
		return a.balance.Clone()
	}

	return new(uint256.Int)
}

// IsEligible checks whether the account takes part in the distribution.
func (d *Distributor) IsEligible(acc util.Uint160) bool {
	d.rlock(acc)
	defer d.mtx.RUnlock()

	a, ok := d.accounts[acc]
	return ok && a.eligible
}

// Account returns a copy of the accrual record of the account.
func (d *Distributor) Account(acc util.Uint160) AccountState {
	d.rlock(acc)
	defer d.mtx.RUnlock()

	a, ok := d.accounts[acc]
	if !ok {
		a = new(account)
	}

	return AccountState{
		Eligible:          a.eligible,
		EligibleBalance:   a.balance.Clone(),
		RewardPerUnitPaid: a.paid.Clone(),
		EarnedBanked:      a.banked.Clone(),
	}
}
