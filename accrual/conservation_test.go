package accrual

import (
	"context"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

// TestDistributor_Conservation runs a random sequence of ledger operations and
// checks that everything deposited is either claimed or still claimable, up
// to bounded rounding loss.
func TestDistributor_Conservation(t *testing.T) {
	for _, decimals := range []uint8{2, 9, 18} {
		t.Run(mustScalar(t, decimals).String(), func(t *testing.T) {
			testConservation(t, decimals, 1000)
		})
	}
}

func testConservation(t *testing.T, decimals uint8, steps int) {
	var (
		rnd      = rand.New(rand.NewSource(int64(decimals)))
		sink     = new(testSink)
		accounts = []util.Uint160{accA, accB, accC, accContract}
		balances = make(map[util.Uint160]uint64)

		deposited  uint64
		roundings  uint64
		lossBound  uint64
		totalSteps = steps
	)

	d, err := New(Prm{Scalar: mustScalar(t, decimals), Predicate: notContract, Sink: sink})
	require.NoError(t, err)

	scalar := d.Scalar().Int().Uint64()

	for _, acc := range accounts {
		require.NoError(t, d.BalanceIncrease(acc, u(1000)))
		balances[acc] = 1000
	}

	for i := 0; i < totalSteps; i++ {
		switch rnd.Intn(4) {
		case 0:
			amount := uint64(rnd.Intn(10_000))
			supply := d.TotalEligibleSupply().Uint64()
			if supply == 0 {
				require.ErrorIs(t, d.Deposit(u(amount)), ErrNoEligibleSupply)
				continue
			}
			require.NoError(t, d.Deposit(u(amount)))
			deposited += amount
			lossBound += supply/scalar + 1
		case 1:
			from, to := accounts[rnd.Intn(len(accounts))], accounts[rnd.Intn(len(accounts))]
			if balances[from] == 0 {
				continue
			}
			amount := uint64(rnd.Int63n(int64(balances[from]))) + 1
			require.NoError(t, d.Transfer(from, to, u(amount)))
			balances[from] -= amount
			balances[to] += amount
			roundings += 2
		case 2:
			acc := accounts[rnd.Intn(len(accounts))]
			amount := uint64(rnd.Intn(500))
			require.NoError(t, d.BalanceIncrease(acc, u(amount)))
			balances[acc] += amount
			roundings++
		case 3:
			_, err := d.Claim(context.Background(), accounts[rnd.Intn(len(accounts))])
			require.NoError(t, err)
			roundings++
		}
	}

	var (
		accounted  uint64
		eligibleSz uint64
	)

	for _, acc := range accounts {
		e, err := d.Earned(acc)
		require.NoError(t, err)
		accounted += e.Uint64() + sink.paid[acc]
		roundings++

		if acc.Equals(accContract) {
			require.Zero(t, e.Uint64())
			require.Zero(t, sink.paid[acc])
			continue
		}
		eligibleSz += balances[acc]
		require.Equal(t, u(balances[acc]), d.EligibleBalanceOf(acc))
	}

	require.Equal(t, uint256.NewInt(eligibleSz), d.TotalEligibleSupply())
	require.LessOrEqual(t, accounted, deposited)

	// every deposit loses less than supply/Scalar because of the accumulator
	// division, every reconciliation loses less than one unit
	require.LessOrEqual(t, deposited-accounted, lossBound+roundings)
}
