package dividend_test

import (
	"encoding/json"
	"math/big"
	"path"
	"testing"

	"github.com/ahache/dividend-token/common"
	"github.com/ahache/dividend-token/dividend"
	"github.com/ahache/dividend-token/internal/testcontracts/nep17recv"
	rpcdividend "github.com/ahache/dividend-token/rpc/dividend"
	"github.com/nspcc-dev/neo-go/pkg/core/native/nativenames"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const (
	ctrPath  = "../dividend"
	recvPath = "../internal/testcontracts/nep17recv"
	prevPath = "../internal/testcontracts/dividendprev"
)

// scalar is the accumulator multiplier of the contract.
var scalar = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

// newDividendInvoker deploys dividend contract minting supply to a fresh
// owner account.
func newDividendInvoker(t *testing.T, supply int64) (*neotest.ContractInvoker, neotest.Signer) {
	e := newExecutor(t)
	owner := e.NewAccount(t)

	ctr := neotest.CompileFile(t, e.CommitteeHash, ctrPath, path.Join(ctrPath, "config.yml"))
	e.DeployContract(t, ctr, []any{owner.ScriptHash(), supply})

	return e.CommitteeInvoker(ctr.Hash), owner
}

// deposit sends GAS dividends to the contract.
func deposit(t *testing.T, c *neotest.ContractInvoker, amount int64) util.Uint256 {
	from := c.NewAccount(t)
	gas := c.NewInvoker(c.NativeHash(t, nativenames.Gas), from)
	return gas.Invoke(t, true, "transfer", from.ScriptHash(), c.Hash, amount, nil)
}

func transfer(t *testing.T, c *neotest.ContractInvoker, from neotest.Signer, to util.Uint160, amount int64) {
	c.WithSigners(from).Invoke(t, true, "transfer", from.ScriptHash(), to, amount, nil)
}

func applicationLog(t *testing.T, c *neotest.ContractInvoker, h util.Uint256) *result.ApplicationLog {
	aer := c.GetTxExecResult(t, h)
	return &result.ApplicationLog{
		Container:  h,
		Executions: []state.Execution{aer.Execution},
	}
}

func TestDividend_Generic(t *testing.T) {
	c, owner := newDividendInvoker(t, 100)

	c.Invoke(t, "DIVI", "symbol")
	c.Invoke(t, 8, "decimals")
	c.Invoke(t, 100, "totalSupply")
	c.Invoke(t, 100, "balanceOf", owner.ScriptHash())
	c.Invoke(t, true, "isEligible", owner.ScriptHash())
	c.Invoke(t, 100, "eligibleBalanceOf", owner.ScriptHash())
	c.Invoke(t, 100, "totalEligibleSupply")
	c.Invoke(t, 0, "accumulator")
	c.Invoke(t, common.Version, "version")

	stranger := c.NewAccount(t)
	c.Invoke(t, false, "isEligible", stranger.ScriptHash())
	c.Invoke(t, 0, "earned", stranger.ScriptHash())
	c.WithSigners(stranger).Invoke(t, false, "claim", stranger.ScriptHash())
}

func TestDividend_SingleHolder(t *testing.T) {
	c, owner := newDividendInvoker(t, 100)

	h := deposit(t, c, 1000)
	delivered, err := rpcdividend.DividendDeliveredEventsFromApplicationLog(applicationLog(t, c, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdividend.DividendDeliveredEvent{{Amount: big.NewInt(1000)}}, delivered)

	c.Invoke(t, new(big.Int).Mul(big.NewInt(10), scalar), "accumulator")
	c.Invoke(t, 1000, "earned", owner.ScriptHash())
	c.CheckGASBalance(t, c.Hash, big.NewInt(1000))

	cOwner := c.WithSigners(owner)

	h = cOwner.Invoke(t, true, "claim", owner.ScriptHash())
	claimed, err := rpcdividend.DividendClaimedEventsFromApplicationLog(applicationLog(t, c, h))
	require.NoError(t, err)
	require.Equal(t, []*rpcdividend.DividendClaimedEvent{{Account: owner.ScriptHash(), Amount: big.NewInt(1000)}}, claimed)

	c.Invoke(t, 0, "earned", owner.ScriptHash())
	c.CheckGASBalance(t, c.Hash, big.NewInt(0))

	// nothing left to claim
	cOwner.Invoke(t, false, "claim", owner.ScriptHash())

	deposit(t, c, 500)
	c.Invoke(t, new(big.Int).Mul(big.NewInt(15), scalar), "accumulator")
	c.Invoke(t, 500, "earned", owner.ScriptHash())
}

func TestDividend_TwoHolders(t *testing.T) {
	c, owner := newDividendInvoker(t, 400)
	holder := c.NewAccount(t)

	transfer(t, c, owner, holder.ScriptHash(), 300)
	c.Invoke(t, 100, "eligibleBalanceOf", owner.ScriptHash())
	c.Invoke(t, 300, "eligibleBalanceOf", holder.ScriptHash())
	c.Invoke(t, 400, "totalEligibleSupply")

	deposit(t, c, 400)
	c.Invoke(t, scalar, "accumulator")
	c.Invoke(t, 100, "earned", owner.ScriptHash())
	c.Invoke(t, 300, "earned", holder.ScriptHash())
}

func TestDividend_NoRetroactiveReward(t *testing.T) {
	c, owner := newDividendInvoker(t, 100)
	holder := c.NewAccount(t)

	deposit(t, c, 1000)

	transfer(t, c, owner, holder.ScriptHash(), 50)
	c.Invoke(t, 0, "earned", holder.ScriptHash())
	c.Invoke(t, 1000, "earned", owner.ScriptHash())

	deposit(t, c, 100)
	c.Invoke(t, 50, "earned", holder.ScriptHash())
	c.Invoke(t, 1050, "earned", owner.ScriptHash())

	// eligibility is kept with zero balance
	transfer(t, c, holder, owner.ScriptHash(), 50)
	c.Invoke(t, true, "isEligible", holder.ScriptHash())
	c.Invoke(t, 0, "eligibleBalanceOf", holder.ScriptHash())
	c.Invoke(t, 50, "earned", holder.ScriptHash())
}

func TestDividend_Deposit(t *testing.T) {
	t.Run("no eligible supply", func(t *testing.T) {
		c, owner := newDividendInvoker(t, 0)
		c.Invoke(t, true, "isEligible", owner.ScriptHash())
		c.Invoke(t, 0, "totalEligibleSupply")

		from := c.NewAccount(t)
		gas := c.NewInvoker(c.NativeHash(t, nativenames.Gas), from)
		gas.InvokeFail(t, dividend.ErrNoEligibleSupply, "transfer", from.ScriptHash(), c.Hash, 100, nil)

		c.Invoke(t, 0, "accumulator")
		c.CheckGASBalance(t, c.Hash, big.NewInt(0))
	})

	t.Run("only GAS", func(t *testing.T) {
		c, owner := newDividendInvoker(t, 100)
		c.InvokeFail(t, dividend.ErrOnlyGAS, "onNEP17Payment", owner.ScriptHash(), 100, nil)
	})
}

func TestDividend_Transfer(t *testing.T) {
	c, owner := newDividendInvoker(t, 100)
	stranger := c.NewAccount(t)

	c.WithSigners(stranger).Invoke(t, false, "transfer", owner.ScriptHash(), stranger.ScriptHash(), 10, nil)
	c.WithSigners(owner).Invoke(t, false, "transfer", owner.ScriptHash(), stranger.ScriptHash(), 101, nil)
	c.WithSigners(owner).InvokeFail(t, "negative amount", "transfer", owner.ScriptHash(), stranger.ScriptHash(), -1, nil)

	// transfer to self only reconciles
	deposit(t, c, 100)
	transfer(t, c, owner, owner.ScriptHash(), 100)
	c.Invoke(t, 100, "balanceOf", owner.ScriptHash())
	c.Invoke(t, 100, "eligibleBalanceOf", owner.ScriptHash())
	c.Invoke(t, 100, "earned", owner.ScriptHash())
}

func TestDividend_TransferToContract(t *testing.T) {
	c, owner := newDividendInvoker(t, 100)

	recv := neotest.CompileFile(t, c.CommitteeHash, recvPath, path.Join(recvPath, "config.yml"))
	c.DeployContract(t, recv, nil)

	transfer(t, c, owner, recv.Hash, 50)
	c.Invoke(t, 50, "balanceOf", recv.Hash)
	c.Invoke(t, false, "isEligible", recv.Hash)
	c.Invoke(t, 0, "eligibleBalanceOf", recv.Hash)
	c.Invoke(t, 50, "totalEligibleSupply")

	deposit(t, c, 100)
	c.Invoke(t, 100, "earned", owner.ScriptHash())
	c.Invoke(t, 0, "earned", recv.Hash)
}

func TestDividend_ClaimWitness(t *testing.T) {
	c, owner := newDividendInvoker(t, 100)
	deposit(t, c, 100)

	stranger := c.NewAccount(t)
	c.WithSigners(stranger).InvokeFail(t, common.ErrOwnerWitnessFailed, "claim", owner.ScriptHash())
	c.Invoke(t, 100, "earned", owner.ScriptHash())
}

// newEligibleReceiver deploys receiver contract to the address which has
// received tokens before deployment, so the contract is an eligible holder.
func newEligibleReceiver(t *testing.T, c *neotest.ContractInvoker, owner neotest.Signer, amount int64, mode int) *neotest.ContractInvoker {
	recv := neotest.CompileFile(t, c.CommitteeHash, recvPath, path.Join(recvPath, "config.yml"))

	transfer(t, c, owner, recv.Hash, amount)
	c.Invoke(t, true, "isEligible", recv.Hash)

	c.DeployContract(t, recv, nil)

	r := c.CommitteeInvoker(recv.Hash)
	r.Invoke(t, stackitem.Null{}, "setup", c.Hash, mode)
	return r
}

func TestDividend_PayoutFailure(t *testing.T) {
	c, owner := newDividendInvoker(t, 200)
	r := newEligibleReceiver(t, c, owner, 100, nep17recv.ModeReject)

	deposit(t, c, 200)
	c.Invoke(t, 100, "earned", r.Hash)

	r.InvokeFail(t, "payment rejected", "claim")
	c.Invoke(t, 100, "earned", r.Hash)
	c.CheckGASBalance(t, c.Hash, big.NewInt(200))
	r.Invoke(t, 0, "received")

	r.Invoke(t, stackitem.Null{}, "setup", c.Hash, nep17recv.ModeAccept)
	r.Invoke(t, true, "claim")
	r.Invoke(t, 100, "received")
	c.Invoke(t, 0, "earned", r.Hash)
	c.CheckGASBalance(t, c.Hash, big.NewInt(100))
}

func TestDividend_ReentrantClaim(t *testing.T) {
	c, owner := newDividendInvoker(t, 200)
	r := newEligibleReceiver(t, c, owner, 100, nep17recv.ModeReenter)

	deposit(t, c, 200)

	r.Invoke(t, true, "claim")
	r.Invoke(t, false, "reentered")
	r.Invoke(t, 100, "received")
	c.Invoke(t, 0, "earned", r.Hash)
	c.CheckGASBalance(t, c.Hash, big.NewInt(100))
}

func TestDividend_Update(t *testing.T) {
	c, owner := newDividendInvoker(t, 100)

	ctr := neotest.CompileFile(t, c.CommitteeHash, ctrPath, path.Join(ctrPath, "config.yml"))
	rawNef, err := ctr.NEF.Bytes()
	require.NoError(t, err)
	rawManifest, err := json.Marshal(ctr.Manifest)
	require.NoError(t, err)

	c.WithSigners(owner).InvokeFail(t, "only committee can update contract", "update", rawNef, rawManifest, nil)
	c.InvokeFail(t, common.ErrAlreadyUpdated, "update", rawNef, rawManifest, nil)

	t.Run("from previous version", func(t *testing.T) {
		e := newExecutor(t)

		prev := neotest.CompileFile(t, e.CommitteeHash, prevPath, path.Join(prevPath, "config.yml"))
		e.DeployContract(t, prev, nil)

		p := e.CommitteeInvoker(prev.Hash)
		p.Invoke(t, common.PrevVersion, "version")
		p.Invoke(t, stackitem.Null{}, "update", rawNef, rawManifest, nil)

		p.Invoke(t, common.Version, "version")
		p.Invoke(t, "DIVI", "symbol")
		p.Invoke(t, 0, "totalSupply")
	})
}
