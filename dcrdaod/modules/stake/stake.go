// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stake defines the API of the stake voting module. Token holders
// stake tokens of a token module and receive voting power equal to their
// staked balance.
package stake

import (
	"encoding/json"

	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	// ID is the module ID.
	ID = "stake"

	// Version is the version of the module.
	Version = "1"

	// Commands
	CmdReceive               = "receive"               // Token send hook
	CmdUnstake               = "unstake"               // Unstake tokens
	CmdClaim                 = "claim"                 // Claim unstaked tokens
	CmdUpdateConfig          = "updateconfig"          // Update config
	CmdUpdateActiveThreshold = "updateactivethreshold" // Update threshold
	CmdAddHook               = "addhook"               // Add stake hook
	CmdRemoveHook            = "removehook"            // Remove stake hook

	// Queries
	CmdStakedBalanceAtHeight = "stakedbalanceatheight" // Get staked balance
	CmdTotalStakedAtHeight   = "totalstakedatheight"   // Get total staked
	CmdStakedValue           = "stakedvalue"           // Get staked value
	CmdTotalValue            = "totalvalue"            // Get total value
	CmdClaims                = "claims"                // Get claims
	CmdListStakers           = "liststakers"           // List stakers
	CmdConfig                = "config"                // Get config
	CmdGetHooks              = "gethooks"              // Get stake hooks
	CmdActiveThreshold       = "activethreshold"       // Get threshold
)

const (
	// MaxClaims is the maximum number of pending claims an address may
	// have.
	MaxClaims = 70

	// DefaultLimit is the number of stakers that are returned by the list
	// stakers query when no limit is provided.
	DefaultLimit = 10

	// MaxLimit is the maximum number of stakers that are returned by the
	// list stakers query.
	MaxLimit = 30
)

// ErrorCodeT represents a error that was caused by the user.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodeUnauthorized is returned when a DAO only command is
	// executed by another address.
	ErrorCodeUnauthorized ErrorCodeT = 1

	// ErrorCodeNothingStaked is returned when tokens are unstaked while
	// nothing is staked.
	ErrorCodeNothingStaked ErrorCodeT = 2

	// ErrorCodeImpossibleUnstake is returned when more tokens are
	// unstaked than are staked.
	ErrorCodeImpossibleUnstake ErrorCodeT = 3

	// ErrorCodeTooManyClaims is returned when an address already has
	// the maximum number of pending claims.
	ErrorCodeTooManyClaims ErrorCodeT = 4

	// ErrorCodeNothingToClaim is returned when an address has no matured
	// claims.
	ErrorCodeNothingToClaim ErrorCodeT = 5

	// ErrorCodeInvalidUnstakingDuration is returned when the unstaking
	// duration is zero.
	ErrorCodeInvalidUnstakingDuration ErrorCodeT = 6

	// ErrorCodeInvalidToken is returned when tokens of another token
	// module are received or when the token module is not valid.
	ErrorCodeInvalidToken ErrorCodeT = 7

	// ErrorCodeInvalidActiveCount is returned when the absolute count
	// active threshold is zero or larger than the token supply.
	ErrorCodeInvalidActiveCount ErrorCodeT = 8

	// ErrorCodeInvalidActivePercentage is returned when the percentage
	// active threshold is not in (0, 1].
	ErrorCodeInvalidActivePercentage ErrorCodeT = 9

	// ErrorCodeZeroAmount is returned when zero tokens are staked or
	// unstaked.
	ErrorCodeZeroAmount ErrorCodeT = 10

	// ErrorCodeLast is used by unit tests to verify that all error codes
	// have a human readable entry in the ErrorCodes map. This error will
	// never be returned.
	ErrorCodeLast ErrorCodeT = 11
)

var (
	// ErrorCodes contains the human readable error messages.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:                  "error code invalid",
		ErrorCodeUnauthorized:             "unauthorized",
		ErrorCodeNothingStaked:            "nothing staked",
		ErrorCodeImpossibleUnstake:        "can not unstake more than has been staked",
		ErrorCodeTooManyClaims:            "too many outstanding claims",
		ErrorCodeNothingToClaim:           "nothing to claim",
		ErrorCodeInvalidUnstakingDuration: "invalid unstaking duration",
		ErrorCodeInvalidToken:             "invalid token",
		ErrorCodeInvalidActiveCount:       "active threshold count is invalid",
		ErrorCodeInvalidActivePercentage:  "active threshold percentage is invalid",
		ErrorCodeZeroAmount:               "amount must be greater than zero",
	}
)

// ActiveThresholdT represents the type of an active threshold.
type ActiveThresholdT uint32

const (
	// ActiveThresholdInvalid is an invalid active threshold.
	ActiveThresholdInvalid ActiveThresholdT = 0

	// ActiveThresholdAbsoluteCount requires an absolute number of tokens
	// to be staked.
	ActiveThresholdAbsoluteCount ActiveThresholdT = 1

	// ActiveThresholdPercentage requires a percentage of the token
	// supply to be staked.
	ActiveThresholdPercentage ActiveThresholdT = 2

	// ActiveThresholdLast is used for unit test validation of human
	// readable active thresholds.
	ActiveThresholdLast ActiveThresholdT = 3
)

var (
	// ActiveThresholds contains the human readable active thresholds.
	ActiveThresholds = map[ActiveThresholdT]string{
		ActiveThresholdInvalid:       "invalid",
		ActiveThresholdAbsoluteCount: "absolute count",
		ActiveThresholdPercentage:    "percentage",
	}
)

// ActiveThreshold is the amount of staked tokens that is required for the
// DAO to be active. Proposals can only be created by active DAOs.
type ActiveThreshold struct {
	Type    ActiveThresholdT `json:"type"`
	Count   *numeric.Uint128 `json:"count,omitempty"`
	Percent *numeric.Decimal `json:"percent,omitempty"`
}

// Instantiate is the payload used to instantiate the module. The sender of
// the instantiation is the DAO. Unstaked tokens are returned immediately
// when no unstaking duration is set.
type Instantiate struct {
	TokenAddress      string           `json:"tokenaddress"`
	UnstakingDuration *block.Duration  `json:"unstakingduration,omitempty"`
	ActiveThreshold   *ActiveThreshold `json:"activethreshold,omitempty"`
}

// Stake stakes the tokens that were sent to the module.
type Stake struct{}

// Fund adds the tokens that were sent to the module to the staked value
// without staking them. This increases the value of every stake.
type Fund struct{}

// ReceiveMsg is the message that is embedded in a token send to the module.
// Exactly one field must be set.
type ReceiveMsg struct {
	Stake *Stake `json:"stake,omitempty"`
	Fund  *Fund  `json:"fund,omitempty"`
}

// EncodeStake returns the JSON encoded receive message that stakes tokens.
func EncodeStake() json.RawMessage {
	return json.RawMessage(`{"stake":{}}`)
}

// EncodeFund returns the JSON encoded receive message that funds the module.
func EncodeFund() json.RawMessage {
	return json.RawMessage(`{"fund":{}}`)
}

// Unstake unstakes tokens.
type Unstake struct {
	Amount numeric.Uint128 `json:"amount"`
}

// Claim pays out all matured claims of the sender.
type Claim struct{}

// UpdateConfig updates the unstaking duration.
type UpdateConfig struct {
	Duration *block.Duration `json:"duration,omitempty"`
}

// UpdateActiveThreshold updates the active threshold. A nil threshold
// removes it.
type UpdateActiveThreshold struct {
	Threshold *ActiveThreshold `json:"threshold,omitempty"`
}

// TokenClaim is an amount of unstaked tokens that can be claimed once it has
// been released.
type TokenClaim struct {
	Amount    numeric.Uint128  `json:"amount"`
	ReleaseAt block.Expiration `json:"releaseat"`
}

// StakedBalanceAtHeight requests the staked balance of an address.
type StakedBalanceAtHeight struct {
	Address string  `json:"address"`
	Height  *uint64 `json:"height,omitempty"`
}

// StakedBalanceAtHeightReply is the reply to the StakedBalanceAtHeight
// query.
type StakedBalanceAtHeightReply struct {
	Balance numeric.Uint128 `json:"balance"`
	Height  uint64          `json:"height"`
}

// TotalStakedAtHeight requests the total staked balance.
type TotalStakedAtHeight struct {
	Height *uint64 `json:"height,omitempty"`
}

// TotalStakedAtHeightReply is the reply to the TotalStakedAtHeight query.
type TotalStakedAtHeightReply struct {
	Total  numeric.Uint128 `json:"total"`
	Height uint64          `json:"height"`
}

// StakedValue requests the amount of tokens an address would receive if it
// unstaked everything.
type StakedValue struct {
	Address string `json:"address"`
}

// StakedValueReply is the reply to the StakedValue query.
type StakedValueReply struct {
	Value numeric.Uint128 `json:"value"`
}

// TotalValue requests the amount of tokens held by the module.
type TotalValue struct{}

// TotalValueReply is the reply to the TotalValue query.
type TotalValueReply struct {
	Total numeric.Uint128 `json:"total"`
}

// Claims requests the pending claims of an address.
type Claims struct {
	Address string `json:"address"`
}

// ClaimsReply is the reply to the Claims query.
type ClaimsReply struct {
	Claims []TokenClaim `json:"claims"`
}

// ListStakers requests a page of stakers in ascending address order.
type ListStakers struct {
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// StakerBalance is the staked balance of an address.
type StakerBalance struct {
	Address string          `json:"address"`
	Balance numeric.Uint128 `json:"balance"`
}

// ListStakersReply is the reply to the ListStakers query.
type ListStakersReply struct {
	Stakers []StakerBalance `json:"stakers"`
}

// Config requests the module config.
type Config struct{}

// ConfigReply is the reply to the Config query.
type ConfigReply struct {
	TokenAddress      string          `json:"tokenaddress"`
	UnstakingDuration *block.Duration `json:"unstakingduration,omitempty"`
}

// ActiveThresholdQuery requests the active threshold.
type ActiveThresholdQuery struct{}

// ActiveThresholdReply is the reply to the ActiveThresholdQuery query.
type ActiveThresholdReply struct {
	ActiveThreshold *ActiveThreshold `json:"activethreshold,omitempty"`
}
