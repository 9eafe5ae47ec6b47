package accrual

import (
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

const (
	// DefaultDecimals is the precision used when Prm.Scalar is left unset.
	DefaultDecimals = 18

	// MaxDecimals is the largest power of ten that fits into 256 bits.
	MaxDecimals = 77
)

// Scalar is a fixed-point multiplier equal to 10^Decimals. It carries
// fractional reward per unit through integer-only arithmetic. The zero value
// is not usable, see NewScalar.
type Scalar struct {
	decimals uint8
	value    uint256.Int
}

// NewScalar returns Scalar equal to 10^decimals. Decimals must be in
// [1, MaxDecimals].
func NewScalar(decimals uint8) (Scalar, error) {
	if decimals == 0 || decimals > MaxDecimals {
		return Scalar{}, fmt.Errorf("%w: %d decimals, expected [1, %d]", ErrInvalidScalar, decimals, MaxDecimals)
	}

	var (
		ten = uint256.NewInt(10)
		v   = uint256.NewInt(1)
	)

	for i := uint8(0); i < decimals; i++ {
		v.Mul(v, ten)
	}

	return Scalar{decimals: decimals, value: *v}, nil
}

// DefaultScalar returns 10^DefaultDecimals.
func DefaultScalar() Scalar {
	s, _ := NewScalar(DefaultDecimals)
	return s
}

// Decimals returns the power of ten represented by s.
func (s Scalar) Decimals() uint8 {
	return s.decimals
}

// Int returns a copy of the multiplier value.
func (s Scalar) Int() *uint256.Int {
	return s.value.Clone()
}

// IsZero checks whether s is an unset Scalar.
func (s Scalar) IsZero() bool {
	return s.value.IsZero()
}

// String implements fmt.Stringer.
func (s Scalar) String() string {
	return "1e" + strconv.Itoa(int(s.decimals))
}

// perUnit returns amount*s/supply, the accumulator growth produced by
// sharing amount between supply units.
func (s Scalar) perUnit(amount, supply *uint256.Int) (uint256.Int, error) {
	var res uint256.Int

	if _, overflow := res.MulOverflow(amount, &s.value); overflow {
		return uint256.Int{}, fmt.Errorf("%w: scaling %s by %s", ErrArithmeticOverflow, amount.Dec(), s)
	}

	res.Div(&res, supply)
	return res, nil
}

// share returns balance*growth/s, the reward earned by balance units while the
// accumulator grew by growth.
func (s Scalar) share(balance, growth *uint256.Int) (uint256.Int, error) {
	var res uint256.Int

	if _, overflow := res.MulOverflow(balance, growth); overflow {
		return uint256.Int{}, fmt.Errorf("%w: share of %s units", ErrArithmeticOverflow, balance.Dec())
	}

	res.Div(&res, &s.value)
	return res, nil
}
