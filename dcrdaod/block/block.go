// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package block contains the block clock types. A block is identified by its
// height and its unix timestamp. Durations and expirations may be expressed
// in either unit.
package block

import (
	"errors"
	"fmt"
)

// UnitsT represents the units of a duration or expiration.
type UnitsT string

const (
	// UnitsNever is only valid for expirations and indicates an
	// expiration that never expires. The empty string is treated the
	// same way.
	UnitsNever UnitsT = "never"

	// UnitsHeight is a block height.
	UnitsHeight UnitsT = "height"

	// UnitsTime is a unix timestamp, in seconds.
	UnitsTime UnitsT = "time"
)

var (
	// ErrUnitsMismatch is returned when combining a duration and an
	// expiration that use different units.
	ErrUnitsMismatch = errors.New("duration and expiration units mismatch")

	// ErrUnitsInvalid is returned when the units are not recognized.
	ErrUnitsInvalid = errors.New("invalid units")
)

// Info describes the block that an operation is executed in.
type Info struct {
	Height  uint64 `json:"height"`
	Time    uint64 `json:"time"` // Unix timestamp, seconds
	ChainID string `json:"chainid"`
}

// Next returns the block info after advancing the provided number of blocks
// and seconds.
func (i Info) Next(heights, seconds uint64) Info {
	return Info{
		Height:  i.Height + heights,
		Time:    i.Time + seconds,
		ChainID: i.ChainID,
	}
}

// Duration is a period of blocks or seconds.
type Duration struct {
	Units UnitsT `json:"units"`
	Value uint64 `json:"value"`
}

// Height returns a duration of n blocks.
func Height(n uint64) Duration {
	return Duration{Units: UnitsHeight, Value: n}
}

// Time returns a duration of n seconds.
func Time(n uint64) Duration {
	return Duration{Units: UnitsTime, Value: n}
}

// Validate verifies that the duration units are valid.
func (d Duration) Validate() error {
	switch d.Units {
	case UnitsHeight, UnitsTime:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnitsInvalid, d.Units)
}

// IsZero returns whether the duration is zero.
func (d Duration) IsZero() bool {
	return d.Value == 0
}

// SameUnits returns whether both durations use the same units.
func (d Duration) SameUnits(e Duration) bool {
	return d.Units == e.Units
}

// After returns the expiration that is the duration after the provided
// block.
func (d Duration) After(b Info) Expiration {
	switch d.Units {
	case UnitsHeight:
		return AtHeight(b.Height + d.Value)
	case UnitsTime:
		return AtTime(b.Time + d.Value)
	}
	return Never()
}

// String satisfies the fmt.Stringer interface.
func (d Duration) String() string {
	switch d.Units {
	case UnitsHeight:
		return fmt.Sprintf("%v blocks", d.Value)
	case UnitsTime:
		return fmt.Sprintf("%v seconds", d.Value)
	}
	return fmt.Sprintf("%v %v", d.Value, d.Units)
}

// Expiration is a point in the future that is expressed as either a block
// height or a unix timestamp. An expiration may also never expire.
type Expiration struct {
	Units UnitsT `json:"units"`
	Value uint64 `json:"value,omitempty"`
}

// Never returns an expiration that never expires.
func Never() Expiration {
	return Expiration{Units: UnitsNever}
}

// AtHeight returns an expiration at the provided block height.
func AtHeight(h uint64) Expiration {
	return Expiration{Units: UnitsHeight, Value: h}
}

// AtTime returns an expiration at the provided unix timestamp.
func AtTime(t uint64) Expiration {
	return Expiration{Units: UnitsTime, Value: t}
}

// IsNever returns whether the expiration never expires.
func (e Expiration) IsNever() bool {
	return e.Units == UnitsNever || e.Units == ""
}

// IsExpired returns whether the expiration has been reached by the provided
// block.
func (e Expiration) IsExpired(b Info) bool {
	switch e.Units {
	case UnitsHeight:
		return b.Height >= e.Value
	case UnitsTime:
		return b.Time >= e.Value
	}
	return false
}

// Add returns the expiration pushed back by the provided duration. A never
// expiration stays a never expiration.
func (e Expiration) Add(d Duration) (Expiration, error) {
	switch {
	case e.IsNever():
		return e, nil
	case e.Units != d.Units:
		return Expiration{}, ErrUnitsMismatch
	}
	return Expiration{Units: e.Units, Value: e.Value + d.Value}, nil
}

// String satisfies the fmt.Stringer interface.
func (e Expiration) String() string {
	switch e.Units {
	case UnitsHeight:
		return fmt.Sprintf("expiration height: %v", e.Value)
	case UnitsTime:
		return fmt.Sprintf("expiration time: %v", e.Value)
	}
	return "expiration: never"
}
