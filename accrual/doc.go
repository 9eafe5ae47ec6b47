/*
Package accrual implements proportional dividend accrual with constant cost per
operation.

Distributor keeps a single accumulator of reward per eligible unit scaled by a
fixed-point Scalar. Deposits advance the accumulator using the total eligible
supply at that instant, and each account is reconciled lazily whenever its own
eligible balance changes or it claims. No operation iterates over accounts.

The surrounding balance ledger reports every balance change with
BalanceIncrease and BalanceDecrease (or Transfer for both legs). Eligibility of
an account is decided once by an injected Predicate and is never revoked.
Claims settle the account first and then hand the amount to a PaymentSink; if
the sink fails, the settlement is rolled back and the reward stays claimable.

All arithmetic is unsigned 256-bit and checked: overflow is reported as
ErrArithmeticOverflow, never wrapped.
*/
package accrual
