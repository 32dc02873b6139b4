// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package numeric provides the fixed width integer and fixed point decimal
// types that are used for all token amounts and voting power computations.
// All arithmetic is checked. Intermediate products are computed using 256
// bits so that multiplying two 128 bit values can never overflow.
package numeric

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when the result of an operation does not
	// fit into 128 bits or would be negative.
	ErrOverflow = errors.New("numeric overflow")

	// ErrDivideByZero is returned when dividing by zero.
	ErrDivideByZero = errors.New("divide by zero")

	// maxUint128 is 2^128 - 1.
	maxUint128 = func() uint256.Int {
		var m uint256.Int
		m.Lsh(uint256.NewInt(1), 128)
		m.Sub(&m, uint256.NewInt(1))
		return m
	}()
)

// Uint128 is an unsigned 128 bit integer. The zero value is ready to use.
//
// Uint128 is JSON encoded as a base 10 string so that values above 2^53 do
// not lose precision in JSON clients.
type Uint128 struct {
	i uint256.Int
}

// NewUint128 returns a new Uint128 set to v.
func NewUint128(v uint64) Uint128 {
	var u Uint128
	u.i.SetUint64(v)
	return u
}

// MaxUint128 returns 2^128 - 1.
func MaxUint128() Uint128 {
	return Uint128{i: maxUint128}
}

// fromInt converts a 256 bit integer into a Uint128. ErrOverflow is returned
// if the value does not fit into 128 bits.
func fromInt(i *uint256.Int) (Uint128, error) {
	if i.BitLen() > 128 {
		return Uint128{}, ErrOverflow
	}
	return Uint128{i: *i}, nil
}

// Uint128FromString parses a base 10 string into a Uint128.
func Uint128FromString(s string) (Uint128, error) {
	i, err := uint256.FromDecimal(s)
	if err != nil {
		return Uint128{}, fmt.Errorf("invalid uint128 %q: %v", s, err)
	}
	u, err := fromInt(i)
	if err != nil {
		return Uint128{}, fmt.Errorf("invalid uint128 %q: %v", s, err)
	}
	return u, nil
}

// Int returns a copy of the value as a 256 bit integer.
func (u Uint128) Int() *uint256.Int {
	return new(uint256.Int).Set(&u.i)
}

// IsZero returns whether the value is zero.
func (u Uint128) IsZero() bool {
	return u.i.IsZero()
}

// Cmp compares u and v and returns -1 if u < v, 0 if u == v and 1 if u > v.
func (u Uint128) Cmp(v Uint128) int {
	return u.i.Cmp(&v.i)
}

// Equal returns whether u == v.
func (u Uint128) Equal(v Uint128) bool {
	return u.i.Eq(&v.i)
}

// Lt returns whether u < v.
func (u Uint128) Lt(v Uint128) bool {
	return u.i.Lt(&v.i)
}

// Gt returns whether u > v.
func (u Uint128) Gt(v Uint128) bool {
	return u.i.Gt(&v.i)
}

// Add returns u + v.
func (u Uint128) Add(v Uint128) (Uint128, error) {
	var r uint256.Int
	r.Add(&u.i, &v.i)
	return fromInt(&r)
}

// Sub returns u - v. ErrOverflow is returned if v > u.
func (u Uint128) Sub(v Uint128) (Uint128, error) {
	var r uint256.Int
	_, underflow := r.SubOverflow(&u.i, &v.i)
	if underflow {
		return Uint128{}, ErrOverflow
	}
	return Uint128{i: r}, nil
}

// SaturatingSub returns u - v, or zero if v > u.
func (u Uint128) SaturatingSub(v Uint128) Uint128 {
	r, err := u.Sub(v)
	if err != nil {
		return Uint128{}
	}
	return r
}

// MulDiv returns floor(u * num / denom). The product is computed using 256
// bits.
func (u Uint128) MulDiv(num, denom Uint128) (Uint128, error) {
	if denom.IsZero() {
		return Uint128{}, ErrDivideByZero
	}
	var r uint256.Int
	r.Mul(&u.i, &num.i)
	r.Div(&r, &denom.i)
	return fromInt(&r)
}

// Uint64 returns the low 64 bits of the value.
func (u Uint128) Uint64() uint64 {
	return u.i.Uint64()
}

// String returns the base 10 representation of the value.
func (u Uint128) String() string {
	return u.i.Dec()
}

// MarshalJSON satisfies the json.Marshaler interface.
func (u Uint128) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(u.String())), nil
}

// UnmarshalJSON satisfies the json.Unmarshaler interface. Both quoted and
// bare numbers are accepted.
func (u *Uint128) UnmarshalJSON(b []byte) error {
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := Uint128FromString(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Sum returns the sum of the provided values.
func Sum(values ...Uint128) (Uint128, error) {
	var (
		total Uint128
		err   error
	)
	for _, v := range values {
		total, err = total.Add(v)
		if err != nil {
			return Uint128{}, err
		}
	}
	return total, nil
}
