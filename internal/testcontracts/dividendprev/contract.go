// Package dividendprev is a stand-in for the previous release of the dividend
// contract. It only supports version query and update.
package dividendprev

import (
	"github.com/ahache/dividend-token/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
)

// Update replaces contract code, new code receives PrevVersion as the version
// it's updated from.
func Update(script []byte, manifest []byte, data interface{}) {
	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, []interface{}{common.PrevVersion})
}

// Version returns PrevVersion.
func Version() int {
	return common.PrevVersion
}
