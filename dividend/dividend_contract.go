package dividend

import (
	"github.com/ahache/dividend-token/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// Holder stores dividend accounting of an eligible account. Holder record
// exists only for eligible accounts and is never removed.
type Holder struct {
	// Eligible balance, equals to the token balance.
	Balance int
	// Accumulator value the account was last reconciled at.
	Paid int
	// Reward reconciled but not claimed yet.
	Banked int
}

const (
	symbol   = "DIVI"
	decimals = 8

	// scalar is a fixed-point multiplier of the accumulator.
	scalar = 1_000_000_000_000_000_000

	totalSupplyKey    = "totalSupply"
	eligibleSupplyKey = "eligibleSupply"
	accumulatorKey    = "accumulator"

	balancePrefix = 'b'
	holderPrefix  = 'h'
)

const (
	// ErrNoEligibleSupply is thrown when GAS arrives while no eligible tokens
	// exist.
	ErrNoEligibleSupply = "no eligible supply"
	// ErrInsufficientEligibleBalance is thrown when eligible balance of the
	// account is less than the decrease.
	ErrInsufficientEligibleBalance = "insufficient eligible balance"
	// ErrPayoutFailed is thrown when GAS transfer to the claimant fails.
	ErrPayoutFailed = "payout failed"
	// ErrOnlyGAS is thrown when anything but GAS is sent to the contract.
	ErrOnlyGAS = "only GAS can be deposited"
)

func _deploy(data interface{}, isUpdate bool) {
	ctx := storage.GetContext()
	if isUpdate {
		args := data.([]interface{})
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		owner  interop.Hash160
		supply int
	})

	if len(args.owner) != interop.Hash160Len {
		panic("incorrect length of owner script hash")
	}

	if args.supply < 0 {
		panic("negative initial supply")
	}

	var from interop.Hash160

	storage.Put(ctx, totalSupplyKey, args.supply)

	onBalanceIncrease(ctx, args.owner, args.supply)
	storage.Put(ctx, balanceKey(args.owner), args.supply)
	runtime.Notify("Transfer", from, args.owner, args.supply)

	runtime.Log("dividend contract initialized")
}

// Update method updates contract source code and manifest. Can be invoked
// only by committee.
func Update(script []byte, manifest []byte, data interface{}) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("dividend contract updated")
}

// Symbol is a NEP-17 standard method that returns DIVI token symbol.
func Symbol() string {
	return symbol
}

// Decimals is a NEP-17 standard method that returns precision of DIVI
// balances.
func Decimals() int {
	return decimals
}

// TotalSupply is a NEP-17 standard method that returns total amount of DIVI
// tokens.
func TotalSupply() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, totalSupplyKey)
}

// BalanceOf is a NEP-17 standard method that returns DIVI balance of specified
// account.
func BalanceOf(account interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, balanceKey(account))
}

// Transfer is a NEP-17 standard method that transfers DIVI tokens from one
// account to other. Can be invoked only by account owner.
//
// Both accounts are reconciled before their balances change, so dividends
// accrued so far are computed against the balances they were earned with.
//
// Produces Transfer notification.
func Transfer(from, to interop.Hash160, amount int, data interface{}) bool {
	if len(from) != interop.Hash160Len || len(to) != interop.Hash160Len {
		panic("invalid script hash length")
	}

	if amount < 0 {
		panic("negative amount")
	}

	if !runtime.CheckWitness(from) {
		runtime.Log("transfer is not witnessed by sender")
		return false
	}

	ctx := storage.GetContext()

	fromBalance := common.GetInt(ctx, balanceKey(from))
	if fromBalance < amount {
		runtime.Log("not enough assets")
		return false
	}

	onBalanceDecrease(ctx, from, amount)
	if fromBalance == amount {
		storage.Delete(ctx, balanceKey(from))
	} else {
		storage.Put(ctx, balanceKey(from), fromBalance-amount)
	}

	onBalanceIncrease(ctx, to, amount)
	storage.Put(ctx, balanceKey(to), common.GetInt(ctx, balanceKey(to))+amount)

	runtime.Notify("Transfer", from, to, amount)

	if management.GetContract(to) != nil {
		contract.Call(to, "onNEP17Payment", contract.All, from, amount, data)
	}

	return true
}

// OnNEP17Payment accepts GAS dividends. Received GAS is shared between all
// eligible DIVI holders proportionally to their balances. Any other token is
// rejected, as well as GAS received when no eligible DIVI tokens exist.
//
// Produces DividendDelivered notification for non-zero amount.
func OnNEP17Payment(from interop.Hash160, amount int, data interface{}) {
	if !common.BytesEqual(runtime.GetCallingScriptHash(), []byte(gas.Hash)) {
		panic(ErrOnlyGAS)
	}

	ctx := storage.GetContext()

	supply := common.GetInt(ctx, eligibleSupplyKey)
	if supply == 0 {
		panic(ErrNoEligibleSupply)
	}

	if amount == 0 {
		return
	}

	// remainder of the division is not distributed
	acc := common.GetInt(ctx, accumulatorKey) + amount*scalar/supply
	storage.Put(ctx, accumulatorKey, acc)

	runtime.Notify("DividendDelivered", amount)
}

// Claim transfers all GAS dividends earned by the account to it. Can be
// invoked only by account owner. Returns false if there is nothing to claim.
//
// The account is settled before GAS is sent, so the recipient can't claim the
// same dividends twice from its payment handler. If GAS transfer fails, the
// whole invocation fails and the dividends stay claimable.
//
// Produces DividendClaimed notification.
func Claim(account interop.Hash160) bool {
	common.CheckOwnerWitness(account)

	ctx := storage.GetContext()

	if storage.Get(ctx, holderKey(account)) == nil {
		return false
	}

	h := getHolder(ctx, account)
	acc := common.GetInt(ctx, accumulatorKey)

	amount := pending(h, acc)
	if amount == 0 {
		return false
	}

	h.Banked = 0
	h.Paid = acc
	common.SetSerialized(ctx, holderKey(account), h)

	if !gas.Transfer(runtime.GetExecutingScriptHash(), account, amount, nil) {
		panic(ErrPayoutFailed)
	}

	runtime.Notify("DividendClaimed", account, amount)

	return true
}

// Earned returns amount of GAS the account can claim.
func Earned(account interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()

	if storage.Get(ctx, holderKey(account)) == nil {
		return 0
	}

	return pending(getHolder(ctx, account), common.GetInt(ctx, accumulatorKey))
}

// IsEligible checks whether the account takes part in dividend distribution.
func IsEligible(account interop.Hash160) bool {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, holderKey(account)) != nil
}

// EligibleBalanceOf returns DIVI balance of the account counted in dividend
// distribution.
func EligibleBalanceOf(account interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()

	if storage.Get(ctx, holderKey(account)) == nil {
		return 0
	}

	return getHolder(ctx, account).Balance
}

// TotalEligibleSupply returns sum of all eligible balances.
func TotalEligibleSupply() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, eligibleSupplyKey)
}

// Accumulator returns GAS dividends per DIVI token accumulated since
// deployment multiplied by 10^18.
func Accumulator() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, accumulatorKey)
}

// Version returns version of the contract.
func Version() int {
	return common.Version
}

// onBalanceIncrease reconciles eligible account and adds amount to its
// eligible balance. Accounts without holder record become eligible unless they
// are deployed contracts.
func onBalanceIncrease(ctx storage.Context, account interop.Hash160, amount int) {
	var h Holder

	if storage.Get(ctx, holderKey(account)) != nil {
		h = getHolder(ctx, account)
	} else if management.GetContract(account) != nil {
		return
	}

	acc := common.GetInt(ctx, accumulatorKey)

	h.Banked = pending(h, acc)
	h.Paid = acc
	h.Balance = h.Balance + amount
	common.SetSerialized(ctx, holderKey(account), h)

	storage.Put(ctx, eligibleSupplyKey, common.GetInt(ctx, eligibleSupplyKey)+amount)
}

// onBalanceDecrease reconciles eligible account and subtracts amount from its
// eligible balance. Not eligible accounts are skipped.
func onBalanceDecrease(ctx storage.Context, account interop.Hash160, amount int) {
	if storage.Get(ctx, holderKey(account)) == nil {
		return
	}

	h := getHolder(ctx, account)
	if h.Balance < amount {
		panic(ErrInsufficientEligibleBalance)
	}

	acc := common.GetInt(ctx, accumulatorKey)

	h.Banked = pending(h, acc)
	h.Paid = acc
	h.Balance = h.Balance - amount
	common.SetSerialized(ctx, holderKey(account), h)

	storage.Put(ctx, eligibleSupplyKey, common.GetInt(ctx, eligibleSupplyKey)-amount)
}

// pending returns banked reward plus the share of accumulator growth since
// the last reconciliation.
func pending(h Holder, acc int) int {
	return h.Banked + h.Balance*(acc-h.Paid)/scalar
}

func getHolder(ctx storage.Context, account interop.Hash160) Holder {
	data := storage.Get(ctx, holderKey(account))
	return std.Deserialize(data.([]byte)).(Holder)
}

func balanceKey(account interop.Hash160) []byte {
	return append([]byte{balancePrefix}, account...)
}

func holderKey(account interop.Hash160) []byte {
	return append([]byte{holderPrefix}, account...)
}
