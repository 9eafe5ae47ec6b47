package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ahache/dividend-token/accrual"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario operations.
const (
	opMint     = "mint"
	opBurn     = "burn"
	opTransfer = "transfer"
	opDeposit  = "deposit"
	opClaim    = "claim"
)

// scenario is a sequence of ledger operations replayed against a fresh
// Distributor.
type scenario struct {
	// Decimal exponent of the accumulator scalar, 18 if unset.
	Decimals uint8 `yaml:"decimals"`

	Accounts []scenarioAccount `yaml:"accounts"`
	Steps    []scenarioStep    `yaml:"steps"`
}

type scenarioAccount struct {
	Name string `yaml:"name"`
	// Optional Neo address, derived from the name if empty.
	Address string `yaml:"address"`
	// Contract accounts never receive dividends.
	Contract bool `yaml:"contract"`
}

type scenarioStep struct {
	Op      string `yaml:"op"`
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Account string `yaml:"account"`
	Amount  string `yaml:"amount"`
	// Makes payment sink reject this claim.
	FailPayout bool `yaml:"failPayout"`
	// Name of the error the step is expected to fail with.
	Expect string `yaml:"expect"`
}

// report is the final state of the simulation.
type report struct {
	Scalar              string          `yaml:"scalar"`
	Accumulator         string          `yaml:"accumulator"`
	TotalEligibleSupply string          `yaml:"totalEligibleSupply"`
	Deposited           string          `yaml:"deposited"`
	Claimed             string          `yaml:"claimed"`
	Outstanding         string          `yaml:"outstanding"`
	Forfeited           string          `yaml:"forfeited"`
	Accounts            []accountReport `yaml:"accounts"`
}

type accountReport struct {
	Name            string `yaml:"name"`
	Address         string `yaml:"address"`
	Eligible        bool   `yaml:"eligible"`
	EligibleBalance string `yaml:"eligibleBalance"`
	Earned          string `yaml:"earned"`
	Claimed         string `yaml:"claimed"`
}

var namedErrors = map[string]error{
	"NoEligibleSupply":            accrual.ErrNoEligibleSupply,
	"InsufficientEligibleBalance": accrual.ErrInsufficientEligibleBalance,
	"ArithmeticOverflow":          accrual.ErrArithmeticOverflow,
	"PayoutFailed":                accrual.ErrPayoutFailed,
}

var errPayoutRejected = errors.New("payout rejected by scenario")

func loadScenario(path string) (*scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	return decodeScenario(f)
}

func decodeScenario(r io.Reader) (*scenario, error) {
	var s scenario

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	if s.Decimals == 0 {
		s.Decimals = accrual.DefaultDecimals
	}

	return &s, nil
}

// simulator drives a Distributor and keeps the ledger of what was deposited
// and paid.
type simulator struct {
	log  *zap.Logger
	dist *accrual.Distributor

	names     []string
	addresses map[string]util.Uint160
	contracts map[util.Uint160]bool

	failPayout bool
	deposited  uint256.Int
	claimed    map[util.Uint160]*uint256.Int
}

func newSimulator(s *scenario, log *zap.Logger) (*simulator, error) {
	scalar, err := accrual.NewScalar(s.Decimals)
	if err != nil {
		return nil, err
	}

	sim := &simulator{
		log:       log,
		addresses: make(map[string]util.Uint160, len(s.Accounts)),
		contracts: make(map[util.Uint160]bool),
		claimed:   make(map[util.Uint160]*uint256.Int),
	}

	for _, a := range s.Accounts {
		if a.Name == "" {
			return nil, errors.New("account without name")
		}
		if _, ok := sim.addresses[a.Name]; ok {
			return nil, fmt.Errorf("duplicated account %q", a.Name)
		}

		var h util.Uint160
		if a.Address != "" {
			h, err = address.StringToUint160(a.Address)
			if err != nil {
				return nil, fmt.Errorf("account %q: %w", a.Name, err)
			}
		} else {
			h = hash.Hash160([]byte(a.Name))
		}

		sim.names = append(sim.names, a.Name)
		sim.addresses[a.Name] = h
		if a.Contract {
			sim.contracts[h] = true
		}
	}

	sim.dist, err = accrual.New(accrual.Prm{
		Scalar: scalar,
		Predicate: accrual.PredicateFunc(func(acc util.Uint160) bool {
			return !sim.contracts[acc]
		}),
		Sink:   accrual.PaymentSinkFunc(sim.pay),
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	return sim, nil
}

func (s *simulator) pay(_ context.Context, acc util.Uint160, amount *uint256.Int) error {
	if s.failPayout {
		return errPayoutRejected
	}

	total, ok := s.claimed[acc]
	if !ok {
		total = new(uint256.Int)
		s.claimed[acc] = total
	}
	total.Add(total, amount)

	return nil
}

func (s *simulator) account(name string) (util.Uint160, error) {
	h, ok := s.addresses[name]
	if !ok {
		return util.Uint160{}, fmt.Errorf("unknown account %q", name)
	}
	return h, nil
}

func (s *simulator) run(ctx context.Context, steps []scenarioStep) error {
	for i, st := range steps {
		err := s.step(ctx, st)

		if st.Expect != "" {
			expected, ok := namedErrors[st.Expect]
			if !ok {
				return fmt.Errorf("step #%d: unknown error %q", i, st.Expect)
			}
			if !errors.Is(err, expected) {
				return fmt.Errorf("step #%d (%s): expected %s error, got %v", i, st.Op, st.Expect, err)
			}

			s.log.Debug("step failed as expected", zap.Int("step", i), zap.Error(err))
			continue
		}

		if err != nil {
			return fmt.Errorf("step #%d (%s): %w", i, st.Op, err)
		}
	}

	return nil
}

func (s *simulator) step(ctx context.Context, st scenarioStep) error {
	var amount *uint256.Int

	if st.Op != opClaim {
		var err error

		amount, err = uint256.FromDecimal(st.Amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", st.Amount, err)
		}
	}

	switch st.Op {
	case opMint:
		to, err := s.account(st.To)
		if err != nil {
			return err
		}
		return s.dist.BalanceIncrease(to, amount)
	case opBurn:
		from, err := s.account(st.From)
		if err != nil {
			return err
		}
		return s.dist.BalanceDecrease(from, amount)
	case opTransfer:
		from, err := s.account(st.From)
		if err != nil {
			return err
		}
		to, err := s.account(st.To)
		if err != nil {
			return err
		}
		return s.dist.Transfer(from, to, amount)
	case opDeposit:
		if err := s.dist.Deposit(amount); err != nil {
			return err
		}
		s.deposited.Add(&s.deposited, amount)
		return nil
	case opClaim:
		acc, err := s.account(st.Account)
		if err != nil {
			return err
		}

		s.failPayout = st.FailPayout
		defer func() { s.failPayout = false }()

		_, err = s.dist.Claim(ctx, acc)
		return err
	default:
		return fmt.Errorf("unknown operation %q", st.Op)
	}
}

// report collects final state and checks that the value deposited is either
// claimed, still claimable, or lost to rounding.
func (s *simulator) report() (*report, error) {
	var claimed, outstanding, forfeited uint256.Int

	res := &report{
		Scalar:              s.dist.Scalar().String(),
		Accumulator:         s.dist.Accumulator().Dec(),
		TotalEligibleSupply: s.dist.TotalEligibleSupply().Dec(),
		Deposited:           s.deposited.Dec(),
	}

	names := make([]string, len(s.names))
	copy(names, s.names)
	sort.Strings(names)

	for _, name := range names {
		h := s.addresses[name]

		earned, err := s.dist.Earned(h)
		if err != nil {
			return nil, err
		}

		paid := new(uint256.Int)
		if v, ok := s.claimed[h]; ok {
			paid = v
		}

		outstanding.Add(&outstanding, earned)
		claimed.Add(&claimed, paid)

		res.Accounts = append(res.Accounts, accountReport{
			Name:            name,
			Address:         address.Uint160ToString(h),
			Eligible:        s.dist.IsEligible(h),
			EligibleBalance: s.dist.EligibleBalanceOf(h).Dec(),
			Earned:          earned.Dec(),
			Claimed:         paid.Dec(),
		})
	}

	if _, underflow := forfeited.SubOverflow(&s.deposited, &claimed); !underflow {
		_, underflow = forfeited.SubOverflow(&forfeited, &outstanding)
		if !underflow {
			res.Claimed = claimed.Dec()
			res.Outstanding = outstanding.Dec()
			res.Forfeited = forfeited.Dec()
			return res, nil
		}
	}

	return nil, fmt.Errorf("conservation violated: deposited %s, claimed %s, outstanding %s",
		s.deposited.Dec(), claimed.Dec(), outstanding.Dec())
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	return enc.Close()
}
