// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package token provides a fungible token module. Tokens are held in
// balances that are kept by the module, independent of the native balances
// of the runtime. The token can be staked for voting power and used for
// proposal deposits.
package token

import (
	"encoding/json"

	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	// ID is the unique identifier of this module.
	ID      = "token"
	Version = "1"

	// Module commands
	CmdTransfer          = "transfer"          // Transfer tokens
	CmdSend              = "send"              // Send tokens to a contract
	CmdBurn              = "burn"              // Burn tokens
	CmdMint              = "mint"              // Mint new tokens
	CmdIncreaseAllowance = "increaseallowance" // Increase an allowance
	CmdDecreaseAllowance = "decreaseallowance" // Decrease an allowance
	CmdTransferFrom      = "transferfrom"      // Transfer using an allowance
	CmdSendFrom          = "sendfrom"          // Send using an allowance
	CmdBurnFrom          = "burnfrom"          // Burn using an allowance

	// Module queries
	CmdBalance     = "balance"     // Get the balance of an address
	CmdTokenInfo   = "tokeninfo"   // Get the token info
	CmdMinter      = "minter"      // Get the minter
	CmdAllowance   = "allowance"   // Get an allowance
	CmdAllAccounts = "allaccounts" // List accounts
	CmdInfo        = "info"        // Get the contract version

	// CmdReceive is executed on the contract that tokens are sent to.
	CmdReceive = "receive"

	// Pagination defaults
	DefaultLimit = 10
	MaxLimit     = 30

	// Token info limits
	MinNameLength   = 3
	MaxNameLength   = 50
	MinSymbolLength = 3
	MaxSymbolLength = 12
	MaxDecimals     = 18
)

// ErrorCodeT represents a error that was caused by the user.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodeZeroAmount is returned when an amount is zero.
	ErrorCodeZeroAmount ErrorCodeT = 1

	// ErrorCodeInsufficientFunds is returned when a balance is too low.
	ErrorCodeInsufficientFunds ErrorCodeT = 2

	// ErrorCodeUnauthorized is returned when the sender is not allowed
	// to perform the command.
	ErrorCodeUnauthorized ErrorCodeT = 3

	// ErrorCodeNoAllowance is returned when an allowance does not exist
	// or is too low.
	ErrorCodeNoAllowance ErrorCodeT = 4

	// ErrorCodeAllowanceExpired is returned when an allowance has
	// expired.
	ErrorCodeAllowanceExpired ErrorCodeT = 5

	// ErrorCodeCannotExceedCap is returned when minting would exceed the
	// minting cap.
	ErrorCodeCannotExceedCap ErrorCodeT = 6

	// ErrorCodeDuplicateInitialBalance is returned when an address has
	// more than one initial balance.
	ErrorCodeDuplicateInitialBalance ErrorCodeT = 7

	// ErrorCodeTokenInfoInvalid is returned when the name, symbol or
	// decimals of the token are invalid.
	ErrorCodeTokenInfoInvalid ErrorCodeT = 8

	// ErrorCodeCannotSetOwnAccount is returned when an allowance is
	// set for the owner itself.
	ErrorCodeCannotSetOwnAccount ErrorCodeT = 9

	// ErrorCodeInvalidExpiration is returned when an allowance is set
	// with an expiration that already expired.
	ErrorCodeInvalidExpiration ErrorCodeT = 10

	// ErrorCodeLast is used by unit tests to verify that all error codes
	// have a human readable entry in the ErrorCodes map. This error will
	// never be returned.
	ErrorCodeLast ErrorCodeT = 11
)

var (
	// ErrorCodes contains the human readable error messages.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:                 "error code invalid",
		ErrorCodeZeroAmount:              "invalid zero amount",
		ErrorCodeInsufficientFunds:       "insufficient funds",
		ErrorCodeUnauthorized:            "unauthorized",
		ErrorCodeNoAllowance:             "no allowance for this account",
		ErrorCodeAllowanceExpired:        "allowance is expired",
		ErrorCodeCannotExceedCap:         "minting cannot exceed the cap",
		ErrorCodeDuplicateInitialBalance: "duplicate initial balance addresses",
		ErrorCodeTokenInfoInvalid:        "token info invalid",
		ErrorCodeCannotSetOwnAccount:     "cannot set allowance to own account",
		ErrorCodeInvalidExpiration:       "invalid expiration value",
	}
)

// Balance is the token balance of an address.
type Balance struct {
	Address string          `json:"address"`
	Amount  numeric.Uint128 `json:"amount"`
}

// Minter is allowed to mint new tokens up to an optional cap on the total
// supply.
type Minter struct {
	Minter string           `json:"minter"`
	Cap    *numeric.Uint128 `json:"cap,omitempty"`
}

// Instantiate is the instantiate payload of the module.
type Instantiate struct {
	Name            string    `json:"name"`
	Symbol          string    `json:"symbol"`
	Decimals        uint8     `json:"decimals"`
	InitialBalances []Balance `json:"initialbalances"`
	Mint            *Minter   `json:"mint,omitempty"`
}

// Transfer transfers tokens from the sender to the recipient.
type Transfer struct {
	Recipient string          `json:"recipient"`
	Amount    numeric.Uint128 `json:"amount"`
}

// Send transfers tokens to a contract and executes the receive command on
// it. Msg is passed through to the contract.
type Send struct {
	Contract string          `json:"contract"`
	Amount   numeric.Uint128 `json:"amount"`
	Msg      json.RawMessage `json:"msg"`
}

// Receive is the payload of the receive command that is executed on the
// contract that tokens were sent to.
type Receive struct {
	Sender string          `json:"sender"`
	Amount numeric.Uint128 `json:"amount"`
	Msg    json.RawMessage `json:"msg"`
}

// Burn destroys tokens of the sender.
type Burn struct {
	Amount numeric.Uint128 `json:"amount"`
}

// Mint creates new tokens. Only the minter may mint.
type Mint struct {
	Recipient string          `json:"recipient"`
	Amount    numeric.Uint128 `json:"amount"`
}

// IncreaseAllowance increases the amount the spender may spend on behalf of
// the sender. The expiration replaces the existing expiration when set.
type IncreaseAllowance struct {
	Spender string            `json:"spender"`
	Amount  numeric.Uint128   `json:"amount"`
	Expires *block.Expiration `json:"expires,omitempty"`
}

// DecreaseAllowance decreases an allowance. The allowance is removed when it
// reaches zero.
type DecreaseAllowance struct {
	Spender string            `json:"spender"`
	Amount  numeric.Uint128   `json:"amount"`
	Expires *block.Expiration `json:"expires,omitempty"`
}

// TransferFrom transfers tokens of the owner using an allowance.
type TransferFrom struct {
	Owner     string          `json:"owner"`
	Recipient string          `json:"recipient"`
	Amount    numeric.Uint128 `json:"amount"`
}

// SendFrom sends tokens of the owner to a contract using an allowance.
type SendFrom struct {
	Owner    string          `json:"owner"`
	Contract string          `json:"contract"`
	Amount   numeric.Uint128 `json:"amount"`
	Msg      json.RawMessage `json:"msg"`
}

// BurnFrom burns tokens of the owner using an allowance.
type BurnFrom struct {
	Owner  string          `json:"owner"`
	Amount numeric.Uint128 `json:"amount"`
}

// BalanceQuery requests the balance of an address.
type BalanceQuery struct {
	Address string `json:"address"`
}

// BalanceReply is the reply to the BalanceQuery query.
type BalanceReply struct {
	Balance numeric.Uint128 `json:"balance"`
}

// TokenInfo requests the token info.
type TokenInfo struct{}

// TokenInfoReply is the reply to the TokenInfo query.
type TokenInfoReply struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Decimals    uint8           `json:"decimals"`
	TotalSupply numeric.Uint128 `json:"totalsupply"`
}

// MinterQuery requests the minter.
type MinterQuery struct{}

// MinterReply is the reply to the MinterQuery query. Minter is nil when the
// token can not be minted.
type MinterReply struct {
	Minter *Minter `json:"minter,omitempty"`
}

// Allowance requests the allowance of a spender.
type Allowance struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

// AllowanceReply is the reply to the Allowance query.
type AllowanceReply struct {
	Allowance numeric.Uint128  `json:"allowance"`
	Expires   block.Expiration `json:"expires"`
}

// AllAccounts requests the addresses that hold tokens.
type AllAccounts struct {
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// AllAccountsReply is the reply to the AllAccounts query.
type AllAccountsReply struct {
	Accounts []string `json:"accounts"`
}
