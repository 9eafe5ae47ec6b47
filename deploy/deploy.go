package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ahache/dividend-token/common"
	rpcdividend "github.com/ahache/dividend-token/rpc/dividend"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for the dividend contract deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by its
	// address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// CommonDeployPrm groups common deployment parameters of the smart contract.
type CommonDeployPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// Prm groups all parameters of the dividend contract deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance the contract is deployed to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	// Address of the first deployment depends on it. Updates are accepted
	// only if the account is the committee one.
	LocalAccount *wallet.Account

	Contract CommonDeployPrm

	// Address of the already deployed contract. Every release has its own
	// NEF checksum and so its own deployment address, so the contract can be
	// updated only when Address is set. If nil, the address of the Contract
	// deployed by LocalAccount is used and the contract is deployed if missing.
	Address *util.Uint160

	// Receiver of the initial supply.
	Owner util.Uint160

	// Amount of tokens minted at deployment.
	InitialSupply *big.Int
}

// Deploy makes sure the dividend contract from Prm is present in the network:
// it is deployed if missing and updated if the deployed version is older than
// common.Version. Deploy never deploys a new contract when Prm.Address is set.
// Deploy returns the contract address.
//
// Deploy can be called repeatedly: transactions sent within the same 100 block
// round are identical, so concurrent runs with the same account can't deploy
// the contract twice.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	switch {
	case prm.Blockchain == nil:
		return util.Uint160{}, errors.New("missing blockchain")
	case prm.LocalAccount == nil:
		return util.Uint160{}, errors.New("missing local account")
	case prm.InitialSupply == nil || prm.InitialSupply.Sign() < 0:
		return util.Uint160{}, errors.New("missing or negative initial supply")
	}

	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	localActor, err := actor.NewTuned(prm.Blockchain, []actor.SignerAccount{{
		Signer: transaction.Signer{
			Account: prm.LocalAccount.ScriptHash(),
			Scopes:  transaction.CalledByEntry,
		},
		Account: prm.LocalAccount,
	}}, actor.Options{
		CheckerModifier: roundedTransactionModifier(func() uint32 {
			h, err := prm.Blockchain.GetBlockCount()
			if err != nil {
				prm.Logger.Warn("failed to get block count, using zero height", zap.Error(err))
				return 0
			}
			return h
		}),
	})
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from local account: %w", err)
	}

	addr := state.CreateContractHash(prm.LocalAccount.ScriptHash(), prm.Contract.NEF.Checksum, prm.Contract.Manifest.Name)
	if prm.Address != nil {
		addr = *prm.Address
	}

	l := prm.Logger.With(zap.String("contract", prm.Contract.Manifest.Name), zap.Stringer("address", addr))

	if err = ctx.Err(); err != nil {
		return util.Uint160{}, err
	}

	_, err = prm.Blockchain.GetContractStateByHash(addr)
	if err != nil {
		if !isErrContractNotFound(err) {
			return util.Uint160{}, fmt.Errorf("get contract state: %w", err)
		}

		if prm.Address != nil {
			return util.Uint160{}, fmt.Errorf("contract %s is not deployed", addr.StringLE())
		}

		l.Info("contract is missing, deploying",
			zap.Stringer("owner", prm.Owner), zap.Stringer("initial supply", prm.InitialSupply))

		err = waitHalt(localActor.Wait(management.New(localActor).Deploy(&prm.Contract.NEF, &prm.Contract.Manifest,
			[]any{prm.Owner, prm.InitialSupply})))
		if err != nil {
			return util.Uint160{}, fmt.Errorf("deploy contract: %w", err)
		}

		l.Info("contract successfully deployed")

		return addr, nil
	}

	ctr := rpcdividend.New(localActor, addr)

	version, err := ctr.Version()
	if err != nil {
		return util.Uint160{}, fmt.Errorf("get deployed contract version: %w", err)
	}

	if version.Cmp(big.NewInt(common.Version)) >= 0 {
		l.Info("contract is already up to date", zap.Stringer("version", version))
		return addr, nil
	}

	if err = ctx.Err(); err != nil {
		return util.Uint160{}, err
	}

	rawNEF, err := prm.Contract.NEF.Bytes()
	if err != nil {
		return util.Uint160{}, fmt.Errorf("encode NEF: %w", err)
	}

	rawManifest, err := json.Marshal(prm.Contract.Manifest)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("encode manifest: %w", err)
	}

	l.Info("contract is outdated, updating", zap.Stringer("from", version), zap.Int("to", common.Version))

	err = waitHalt(localActor.Wait(ctr.Update(rawNEF, rawManifest, nil)))
	if err != nil {
		return util.Uint160{}, fmt.Errorf("update contract: %w", err)
	}

	l.Info("contract successfully updated")

	return addr, nil
}

func isErrContractNotFound(err error) bool {
	return strings.Contains(err.Error(), "Unknown contract")
}

func waitHalt(res *state.AppExecResult, err error) error {
	if err != nil {
		return err
	}

	if res.VMState != vmstate.Halt {
		return fmt.Errorf("transaction %s failed: %s", res.Container.StringLE(), res.FaultException)
	}

	return nil
}

// roundedTransactionModifier returns actor.TransactionCheckerModifier which
// checks that invocation finished with 'HALT' state and, if so, sets nonce
// and ValidUntilBlock of the transaction to the bounds of the current 100
// block round. Transactions made within one round are the same.
func roundedTransactionModifier(getBlockchainHeight func() uint32) actor.TransactionCheckerModifier {
	return func(r *result.Invoke, tx *transaction.Transaction) error {
		err := actor.DefaultCheckerModifier(r, tx)
		if err != nil {
			return err
		}

		const span = 100
		n := getBlockchainHeight() / span

		tx.Nonce = n * span

		if math.MaxUint32-span > tx.Nonce {
			tx.ValidUntilBlock = tx.Nonce + span
		} else {
			tx.ValidUntilBlock = math.MaxUint32
		}

		return nil
	}
}
