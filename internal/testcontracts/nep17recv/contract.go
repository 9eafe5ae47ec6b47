package nep17recv

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/interop/util"
)

// Modes of GAS payment processing.
const (
	ModeAccept = iota
	ModeReject
	ModeReenter
)

const (
	tokenKey     = "token"
	modeKey      = "mode"
	receivedKey  = "received"
	reenteredKey = "reentered"
)

// Setup remembers dividend token and the way GAS payments are processed.
func Setup(token interop.Hash160, mode int) {
	ctx := storage.GetContext()
	storage.Put(ctx, tokenKey, token)
	storage.Put(ctx, modeKey, mode)
}

// Claim claims dividends earned by this contract.
func Claim() bool {
	token := storage.Get(storage.GetReadOnlyContext(), tokenKey).(interop.Hash160)
	return contract.Call(token, "claim", contract.All, runtime.GetExecutingScriptHash()).(bool)
}

// OnNEP17Payment accepts any token. GAS payments are rejected or answered with
// another claim depending on the mode.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	ctx := storage.GetContext()

	if util.Equals(string(runtime.GetCallingScriptHash()), string(gas.Hash)) {
		mode := storage.Get(ctx, modeKey)
		if mode != nil {
			switch mode.(int) {
			case ModeReject:
				panic("payment rejected")
			case ModeReenter:
				storage.Put(ctx, reenteredKey, Claim())
			}
		}

		received := 0
		if val := storage.Get(ctx, receivedKey); val != nil {
			received = val.(int)
		}
		storage.Put(ctx, receivedKey, received+amount)
	}
}

// Received returns total GAS received by the contract.
func Received() int {
	val := storage.Get(storage.GetReadOnlyContext(), receivedKey)
	if val == nil {
		return 0
	}
	return val.(int)
}

// Reentered returns result of the nested claim made from the payment handler.
func Reentered() bool {
	val := storage.Get(storage.GetReadOnlyContext(), reenteredKey)
	if val == nil {
		return false
	}
	return val.(bool)
}
