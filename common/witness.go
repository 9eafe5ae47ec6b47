package common

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

// ErrOwnerWitnessFailed appears when the method must be called by an owner of
// some assets but was not.
const ErrOwnerWitnessFailed = "owner witness check failed"

// CheckOwnerWitness panics with ErrOwnerWitnessFailed message if the
// transaction is not witnessed by the owner.
func CheckOwnerWitness(owner []byte) {
	if !runtime.CheckWitness(owner) {
		panic(ErrOwnerWitnessFailed)
	}
}
