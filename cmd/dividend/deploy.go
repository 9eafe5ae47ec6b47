package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ahache/dividend-token/deploy"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func readContract(nefPath, manifestPath string) (deploy.CommonDeployPrm, error) {
	var res deploy.CommonDeployPrm

	data, err := os.ReadFile(nefPath)
	if err != nil {
		return res, fmt.Errorf("read NEF: %w", err)
	}

	res.NEF, err = nef.FileFromBytes(data)
	if err != nil {
		return res, fmt.Errorf("decode NEF: %w", err)
	}

	data, err = os.ReadFile(manifestPath)
	if err != nil {
		return res, fmt.Errorf("read manifest: %w", err)
	}

	if err = json.Unmarshal(data, &res.Manifest); err != nil {
		return res, fmt.Errorf("decode manifest: %w", err)
	}

	return res, nil
}

// unlockAccount returns decrypted account of the wallet. The default wallet
// account is used if addr is empty.
func unlockAccount(walletPath, addr, password string) (*wallet.Account, error) {
	w, err := wallet.NewWalletFromFile(walletPath)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}
	defer w.Close()

	var acc *wallet.Account
	if addr == "" {
		if len(w.Accounts) == 0 {
			return nil, errors.New("wallet has no accounts")
		}

		h := w.GetChangeAddress()
		acc = w.GetAccount(h)
	} else {
		h, err := address.StringToUint160(addr)
		if err != nil {
			return nil, fmt.Errorf("account address: %w", err)
		}

		acc = w.GetAccount(h)
		if acc == nil {
			return nil, fmt.Errorf("account %s is missing in the wallet", addr)
		}
	}

	if err = acc.Decrypt(password, w.Scrypt); err != nil {
		return nil, fmt.Errorf("decrypt account: %w", err)
	}

	return acc, nil
}

func deployAction(c *cli.Context) error {
	switch {
	case c.String("rpc-endpoint") == "":
		return errors.New("missing Neo RPC endpoint")
	case c.String("wallet") == "":
		return errors.New("missing wallet")
	case c.String("nef") == "" || c.String("manifest") == "":
		return errors.New("missing contract files")
	case c.String("owner") == "":
		return errors.New("missing owner")
	}

	supply, ok := new(big.Int).SetString(c.String("supply"), 10)
	if !ok {
		return fmt.Errorf("invalid initial supply %q", c.String("supply"))
	}

	owner, err := parseHash(c.String("owner"))
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}

	var existing *util.Uint160
	if c.String("contract") != "" {
		h, err := parseHash(c.String("contract"))
		if err != nil {
			return fmt.Errorf("contract: %w", err)
		}
		existing = &h
	}

	ctr, err := readContract(c.String("nef"), c.String("manifest"))
	if err != nil {
		return err
	}

	acc, err := unlockAccount(c.String("wallet"), c.String("address"), c.String("password"))
	if err != nil {
		return err
	}

	log, err := newLogger(c.GlobalBool("debug"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	b, err := dialBlockchain(ctx, c.String("rpc-endpoint"))
	if err != nil {
		return err
	}
	defer b.Close()

	addr, err := deploy.Deploy(ctx, deploy.Prm{
		Logger:        log,
		Blockchain:    b,
		LocalAccount:  acc,
		Contract:      ctr,
		Address:       existing,
		Owner:         owner,
		InitialSupply: supply,
	})
	if err != nil {
		return err
	}

	log.Debug("deployment finished", zap.String("address", address.Uint160ToString(addr)))

	_, err = fmt.Fprintln(c.App.Writer, addr.StringLE())
	return err
}
