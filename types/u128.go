package types

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// MaxU128 is 2^128 - 1, the saturation ceiling for every balance/supply
// field in the data model.
var MaxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// U128 is a non-negative integer bounded by 2^128-1. All arithmetic
// saturates at zero and at MaxU128; overflow is never a panic path.
// Values are carried on math/big.Int, the widest stdlib integer type,
// so that ratio math (numerator * value) never silently truncates
// before the final division.
type U128 struct {
	v *big.Int
}

func Zero() U128 { return U128{v: big.NewInt(0)} }

func FromUint64(n uint64) U128 {
	return U128{v: new(big.Int).SetUint64(n)}
}

func FromBigInt(b *big.Int) U128 {
	return U128{v: clamp(new(big.Int).Set(b))}
}

func clamp(b *big.Int) *big.Int {
	if b.Sign() < 0 {
		return big.NewInt(0)
	}
	if b.Cmp(MaxU128) > 0 {
		return new(big.Int).Set(MaxU128)
	}
	return b
}

func (u U128) big() *big.Int {
	if u.v == nil {
		return big.NewInt(0)
	}
	return u.v
}

func (u U128) IsZero() bool { return u.big().Sign() == 0 }

func (u U128) Cmp(other U128) int { return u.big().Cmp(other.big()) }

func (u U128) Uint64() uint64 { return u.big().Uint64() }

func (u U128) String() string { return u.big().String() }

func (u U128) Add(other U128) U128 {
	return U128{v: clamp(new(big.Int).Add(u.big(), other.big()))}
}

func (u U128) Sub(other U128) U128 {
	return U128{v: clamp(new(big.Int).Sub(u.big(), other.big()))}
}

func (u U128) Mul(other U128) U128 {
	return U128{v: clamp(new(big.Int).Mul(u.big(), other.big()))}
}

// Div performs u/other, returning zero if other is zero (callers must
// validate non-zero denominators themselves where that's a Flaw).
func (u U128) Div(other U128) U128 {
	if other.IsZero() {
		return Zero()
	}
	return U128{v: clamp(new(big.Int).Div(u.big(), other.big()))}
}

// MulDiv computes (u * num) / den with a wide intermediate, avoiding the
// overflow a naive u128*u128 then /u128 would risk. Used for every
// fixed-ratio and AMM-share computation in the executor.
func (u U128) MulDiv(num, den U128) U128 {
	if den.IsZero() {
		return Zero()
	}
	wide := new(big.Int).Mul(u.big(), num.big())
	wide.Div(wide, den.big())
	return U128{v: clamp(wide)}
}

// Min returns the smaller of u and other.
func (u U128) Min(other U128) U128 {
	if u.Cmp(other) <= 0 {
		return u
	}
	return other
}

func (u U128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.big().String())
}

func (u *U128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return fmt.Errorf("u128: invalid decimal string %q", s)
		}
		u.v = clamp(b)
		return nil
	}
	// fall back to a raw JSON number for callers that hand-encode fixtures
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("u128: %w", err)
	}
	b, ok := new(big.Int).SetString(n.String(), 10)
	if !ok {
		return fmt.Errorf("u128: invalid number %q", n.String())
	}
	u.v = clamp(b)
	return nil
}
