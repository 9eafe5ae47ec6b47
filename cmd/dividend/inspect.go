package main

import (
	"context"
	"fmt"
	"time"

	rpcdividend "github.com/ahache/dividend-token/rpc/dividend"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// contractInfo is a snapshot of the contract dividend state.
type contractInfo struct {
	Symbol              string        `yaml:"symbol"`
	Decimals            int           `yaml:"decimals"`
	Version             string        `yaml:"version"`
	TotalSupply         string        `yaml:"totalSupply"`
	TotalEligibleSupply string        `yaml:"totalEligibleSupply"`
	Accumulator         string        `yaml:"accumulator"`
	Accounts            []holderState `yaml:"accounts,omitempty"`
}

type holderState struct {
	Address         string `yaml:"address"`
	Balance         string `yaml:"balance"`
	Eligible        bool   `yaml:"eligible"`
	EligibleBalance string `yaml:"eligibleBalance"`
	Earned          string `yaml:"earned"`
}

// parseHash accepts both Neo address and little-endian hex script hash.
func parseHash(s string) (util.Uint160, error) {
	if h, err := util.Uint160DecodeStringLE(s); err == nil {
		return h, nil
	}

	h, err := address.StringToUint160(s)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("neither script hash nor address: %q", s)
	}

	return h, nil
}

// dialBlockchain opens initialized RPC connection, dial and every request are
// limited by 15s timeout.
func dialBlockchain(ctx context.Context, endpoint string) (*rpcclient.Client, error) {
	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{
		DialTimeout:    15 * time.Second,
		RequestTimeout: 15 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	if err = c.Init(); err != nil {
		c.Close()
		return nil, fmt.Errorf("RPC client init: %w", err)
	}

	return c, nil
}

func inspectContract(r *rpcdividend.ContractReader, accounts []util.Uint160, log *zap.Logger) (*contractInfo, error) {
	var (
		res contractInfo
		err error
	)

	if res.Symbol, err = r.Symbol(); err != nil {
		return nil, fmt.Errorf("symbol: %w", err)
	}

	if res.Decimals, err = r.Decimals(); err != nil {
		return nil, fmt.Errorf("decimals: %w", err)
	}

	version, err := r.Version()
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	res.Version = version.String()

	supply, err := r.TotalSupply()
	if err != nil {
		return nil, fmt.Errorf("total supply: %w", err)
	}
	res.TotalSupply = supply.String()

	eligible, err := r.TotalEligibleSupply()
	if err != nil {
		return nil, fmt.Errorf("total eligible supply: %w", err)
	}
	res.TotalEligibleSupply = eligible.String()

	acc, err := r.Accumulator()
	if err != nil {
		return nil, fmt.Errorf("accumulator: %w", err)
	}
	res.Accumulator = acc.String()

	for _, a := range accounts {
		log.Debug("inspecting account", zap.String("address", address.Uint160ToString(a)))

		st, err := inspectHolder(r, a)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", address.Uint160ToString(a), err)
		}

		res.Accounts = append(res.Accounts, st)
	}

	return &res, nil
}

func inspectHolder(r *rpcdividend.ContractReader, acc util.Uint160) (holderState, error) {
	res := holderState{Address: address.Uint160ToString(acc)}

	balance, err := r.BalanceOf(acc)
	if err != nil {
		return res, fmt.Errorf("balance: %w", err)
	}
	res.Balance = balance.String()

	if res.Eligible, err = r.IsEligible(acc); err != nil {
		return res, fmt.Errorf("eligibility: %w", err)
	}

	eligible, err := r.EligibleBalanceOf(acc)
	if err != nil {
		return res, fmt.Errorf("eligible balance: %w", err)
	}
	res.EligibleBalance = eligible.String()

	earned, err := r.Earned(acc)
	if err != nil {
		return res, fmt.Errorf("earned: %w", err)
	}
	res.Earned = earned.String()

	return res, nil
}
