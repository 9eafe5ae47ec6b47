// Command dividend replays dividend scenarios through the accrual engine,
// deploys DIVI dividend token contract and inspects its state.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	rpcdividend "github.com/ahache/dividend-token/rpc/dividend"
	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "dividend"
	app.Usage = "DIVI dividend token tooling"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "Enable debug logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "simulate",
			Usage:     "Replay YAML scenario through the accrual engine",
			ArgsUsage: "<scenario.yml>",
			Action:    simulateAction,
		},
		{
			Name:      "inspect",
			Usage:     "Query dividend state of a deployed contract",
			ArgsUsage: "[account ...]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "rpc-endpoint, r",
					Usage: "Network address of the Neo RPC server",
				},
				cli.StringFlag{
					Name:  "contract, c",
					Usage: "Contract script hash (LE) or address",
				},
			},
			Action: inspectAction,
		},
		{
			Name:  "deploy",
			Usage: "Deploy or update the contract",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "rpc-endpoint, r",
					Usage: "Network address of the Neo RPC server",
				},
				cli.StringFlag{
					Name:  "wallet, w",
					Usage: "Path to the wallet with the deploying account",
				},
				cli.StringFlag{
					Name:  "address, a",
					Usage: "Address of the deploying account, wallet default is used if omitted",
				},
				cli.StringFlag{
					Name:   "password",
					Usage:  "Password of the deploying account",
					EnvVar: "DIVIDEND_WALLET_PASSWORD",
				},
				cli.StringFlag{
					Name:  "contract, c",
					Usage: "Deployed contract to update (script hash or address), new contract is deployed if omitted",
				},
				cli.StringFlag{
					Name:  "nef",
					Usage: "Path to the compiled contract",
				},
				cli.StringFlag{
					Name:  "manifest",
					Usage: "Path to the contract manifest",
				},
				cli.StringFlag{
					Name:  "owner",
					Usage: "Receiver of the initial supply (address or script hash)",
				},
				cli.StringFlag{
					Name:  "supply",
					Usage: "Initial supply in the smallest units",
					Value: "0",
				},
				cli.DurationFlag{
					Name:  "timeout, t",
					Usage: "Deployment timeout",
					Value: 2 * time.Minute,
				},
			},
			Action: deployAction,
		},
	}

	return app
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil

	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return cfg.Build()
}

func simulateAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("scenario file is required")
	}

	log, err := newLogger(c.GlobalBool("debug"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log = log.With(zap.Stringer("run", uuid.New()))

	s, err := loadScenario(c.Args().First())
	if err != nil {
		return err
	}

	sim, err := newSimulator(s, log)
	if err != nil {
		return fmt.Errorf("init simulator: %w", err)
	}

	log.Info("replaying scenario", zap.String("file", c.Args().First()), zap.Int("steps", len(s.Steps)))

	if err = sim.run(context.Background(), s.Steps); err != nil {
		return err
	}

	r, err := sim.report()
	if err != nil {
		return err
	}

	return writeYAML(c.App.Writer, r)
}

func inspectAction(c *cli.Context) error {
	endpoint := c.String("rpc-endpoint")
	switch {
	case endpoint == "":
		return errors.New("missing Neo RPC endpoint")
	case c.String("contract") == "":
		return errors.New("missing contract")
	}

	log, err := newLogger(c.GlobalBool("debug"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	contract, err := parseHash(c.String("contract"))
	if err != nil {
		return fmt.Errorf("contract: %w", err)
	}

	accounts := make([]util.Uint160, 0, c.NArg())
	for _, arg := range c.Args() {
		h, err := parseHash(arg)
		if err != nil {
			return fmt.Errorf("account: %w", err)
		}
		accounts = append(accounts, h)
	}

	b, err := dialBlockchain(context.Background(), endpoint)
	if err != nil {
		return err
	}
	defer b.Close()

	r := rpcdividend.NewReader(invoker.New(b, nil), contract)

	log.Debug("connected to RPC server", zap.String("endpoint", endpoint), zap.Stringer("contract", contract))

	info, err := inspectContract(r, accounts, log)
	if err != nil {
		return err
	}

	return writeYAML(c.App.Writer, info)
}
