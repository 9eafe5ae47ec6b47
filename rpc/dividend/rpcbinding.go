// Package dividend contains RPC wrappers for DIVI Dividend Token contract.
package dividend

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// DividendDeliveredEvent represents "DividendDelivered" event emitted by the contract.
type DividendDeliveredEvent struct {
	Amount *big.Int
}

// DividendClaimedEvent represents "DividendClaimed" event emitted by the contract.
type DividendClaimedEvent struct {
	Account util.Uint160
	Amount  *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	nep17.Invoker
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	nep17.Actor

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	nep17.TokenReader
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	nep17.TokenWriter
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{*nep17.NewReader(invoker, hash), invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	var nep17t = nep17.New(actor, hash)
	return &Contract{ContractReader{nep17t.TokenReader, actor, hash}, nep17t.TokenWriter, actor, hash}
}

// Hash returns address of the contract.
func (c *ContractReader) Hash() util.Uint160 {
	return c.hash
}

// Accumulator invokes `accumulator` method of contract.
func (c *ContractReader) Accumulator() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "accumulator"))
}

// Earned invokes `earned` method of contract.
func (c *ContractReader) Earned(account util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "earned", account))
}

// EligibleBalanceOf invokes `eligibleBalanceOf` method of contract.
func (c *ContractReader) EligibleBalanceOf(account util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "eligibleBalanceOf", account))
}

// IsEligible invokes `isEligible` method of contract.
func (c *ContractReader) IsEligible(account util.Uint160) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isEligible", account))
}

// TotalEligibleSupply invokes `totalEligibleSupply` method of contract.
func (c *ContractReader) TotalEligibleSupply() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "totalEligibleSupply"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// Claim creates a transaction invoking `claim` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Claim(account util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "claim", account)
}

// ClaimTransaction creates a transaction invoking `claim` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ClaimTransaction(account util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "claim", account)
}

// ClaimUnsigned creates a transaction invoking `claim` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ClaimUnsigned(account util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "claim", nil, account)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(script []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", script, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", script, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, script, manifest, data)
}

// DividendDeliveredEventsFromApplicationLog retrieves a set of all emitted events
// with "DividendDelivered" name from the provided [result.ApplicationLog].
func DividendDeliveredEventsFromApplicationLog(log *result.ApplicationLog) ([]*DividendDeliveredEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*DividendDeliveredEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "DividendDelivered" {
				continue
			}
			event := new(DividendDeliveredEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize DividendDeliveredEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to DividendDeliveredEvent or
// returns an error if it's not possible to do to so.
func (e *DividendDeliveredEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 1 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	e.Amount, err = arr[0].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// DividendClaimedEventsFromApplicationLog retrieves a set of all emitted events
// with "DividendClaimed" name from the provided [result.ApplicationLog].
func DividendClaimedEventsFromApplicationLog(log *result.ApplicationLog) ([]*DividendClaimedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*DividendClaimedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "DividendClaimed" {
				continue
			}
			event := new(DividendClaimedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize DividendClaimedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to DividendClaimedEvent or
// returns an error if it's not possible to do to so.
func (e *DividendClaimedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	e.Account, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field Account: %w", err)
	}

	e.Amount, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, err
	}
	return u, nil
}
