// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package numeric

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// DecimalPlaces is the number of fractional digits a Decimal holds.
const DecimalPlaces = 18

// decimalFractional is 10^DecimalPlaces.
var decimalFractional = uint256.NewInt(1_000_000_000_000_000_000)

// Decimal is an unsigned fixed point number with 18 fractional digits. The
// value is stored as atomics, i.e. value * 10^18, which must fit into 128
// bits.
//
// Decimal is JSON encoded as a base 10 string, e.g. "0.5".
type Decimal struct {
	atomics uint256.Int
}

// DecimalOne returns a Decimal equal to 1.
func DecimalOne() Decimal {
	return Decimal{atomics: *decimalFractional}
}

// Percent returns a Decimal equal to p / 100.
func Percent(p uint64) Decimal {
	var d Decimal
	d.atomics.Mul(uint256.NewInt(p), uint256.NewInt(10_000_000_000_000_000))
	return d
}

// Permille returns a Decimal equal to p / 1000.
func Permille(p uint64) Decimal {
	var d Decimal
	d.atomics.Mul(uint256.NewInt(p), uint256.NewInt(1_000_000_000_000_000))
	return d
}

// DecimalFromRatio returns floor(num * 10^18 / denom) as a Decimal.
func DecimalFromRatio(num, denom Uint128) (Decimal, error) {
	a, err := num.MulDiv(Uint128{i: *decimalFractional}, denom)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{atomics: a.i}, nil
}

// DecimalFromString parses a base 10 string, e.g. "0.75", into a Decimal.
// Negative values and values with more than 18 fractional digits are not
// allowed.
func DecimalFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %v", s, err)
	}
	if d.Sign() < 0 {
		return Decimal{}, fmt.Errorf("invalid decimal %q: negative", s)
	}
	shifted := d.Shift(DecimalPlaces)
	if !shifted.IsInteger() {
		return Decimal{}, fmt.Errorf("invalid decimal %q: more than %v "+
			"fractional digits", s, DecimalPlaces)
	}
	a, overflow := uint256.FromBig(shifted.BigInt())
	if overflow || a.BitLen() > 128 {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %v", s, ErrOverflow)
	}
	return Decimal{atomics: *a}, nil
}

// Atomics returns a copy of the raw atomics, i.e. value * 10^18.
func (d Decimal) Atomics() *uint256.Int {
	return new(uint256.Int).Set(&d.atomics)
}

// IsZero returns whether the value is zero.
func (d Decimal) IsZero() bool {
	return d.atomics.IsZero()
}

// Cmp compares d and e and returns -1 if d < e, 0 if d == e and 1 if d > e.
func (d Decimal) Cmp(e Decimal) int {
	return d.atomics.Cmp(&e.atomics)
}

// Equal returns whether d == e.
func (d Decimal) Equal(e Decimal) bool {
	return d.atomics.Eq(&e.atomics)
}

// Sub returns d - e. ErrOverflow is returned if e > d.
func (d Decimal) Sub(e Decimal) (Decimal, error) {
	var r uint256.Int
	_, underflow := r.SubOverflow(&d.atomics, &e.atomics)
	if underflow {
		return Decimal{}, ErrOverflow
	}
	return Decimal{atomics: r}, nil
}

// MulCeil returns ceil(u * d) as a Uint128.
func (d Decimal) MulCeil(u Uint128) (Uint128, error) {
	var p, q, r uint256.Int
	p.Mul(&u.i, &d.atomics)
	q.DivMod(&p, decimalFractional, &r)
	if !r.IsZero() {
		q.AddUint64(&q, 1)
	}
	return fromInt(&q)
}

// String returns the shortest base 10 representation of the value.
func (d Decimal) String() string {
	return decimal.NewFromBigInt(d.atomics.ToBig(), -DecimalPlaces).String()
}

// MarshalJSON satisfies the json.Marshaler interface.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON satisfies the json.Unmarshaler interface.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := DecimalFromString(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
