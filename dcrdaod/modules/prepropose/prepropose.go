// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package prepropose defines the API of the pre-propose module. The module
// sits in front of a proposal module, takes a deposit from the proposer,
// forwards the proposal and refunds or keeps the deposit once the proposal
// completes.
package prepropose

import (
	"encoding/json"

	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	// ID is the module ID.
	ID = "prepropose"

	// Version is the version of the module.
	Version = "1"

	// Commands
	CmdPropose                     = "propose"                     // Submit a proposal
	CmdUpdateConfig                = "updateconfig"                // Update the config
	CmdWithdraw                    = "withdraw"                    // Withdraw to the DAO
	CmdAddProposalSubmittedHook    = "addproposalsubmittedhook"    // Add a hook
	CmdRemoveProposalSubmittedHook = "removeproposalsubmittedhook" // Remove a hook

	// Queries
	CmdProposalModule         = "proposalmodule"         // Get proposal module
	CmdDao                    = "dao"                    // Get DAO address
	CmdConfig                 = "config"                 // Get the config
	CmdDepositInfo            = "depositinfo"            // Get a deposit
	CmdProposalSubmittedHooks = "proposalsubmittedhooks" // Get hooks
	CmdInfo                   = "info"                   // Get contract version
)

// ErrorCodeT represents a user error code.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodeNotModule is returned when a completed hook is not sent
	// by the proposal module.
	ErrorCodeNotModule ErrorCodeT = 1

	// ErrorCodeNotDao is returned when a DAO only command is not sent by
	// the DAO.
	ErrorCodeNotDao ErrorCodeT = 2

	// ErrorCodeNotMember is returned when proposal submission is not open
	// and the proposer has no voting power.
	ErrorCodeNotMember ErrorCodeT = 3

	// ErrorCodeInvalidDeposit is returned when the funds sent with a
	// proposal do not match the native deposit.
	ErrorCodeInvalidDeposit ErrorCodeT = 4

	// ErrorCodeZeroDeposit is returned when a deposit has a zero amount.
	ErrorCodeZeroDeposit ErrorCodeT = 5

	// ErrorCodeInvalidCw20 is returned when a deposit token does not
	// answer the token info query.
	ErrorCodeInvalidCw20 ErrorCodeT = 6

	// ErrorCodeNoWithdrawalDenom is returned when a withdrawal does not
	// name a denomination and no deposit is configured.
	ErrorCodeNoWithdrawalDenom ErrorCodeT = 7

	// ErrorCodeNothingToWithdraw is returned when the module holds no
	// funds of the withdrawal denomination.
	ErrorCodeNothingToWithdraw ErrorCodeT = 8

	// ErrorCodeNotClosedOrExecuted is returned when a completed hook
	// carries a status that is not final.
	ErrorCodeNotClosedOrExecuted ErrorCodeT = 9

	// ErrorCodeInvalidDenom is returned when a deposit denomination is
	// malformed.
	ErrorCodeInvalidDenom ErrorCodeT = 10

	// ErrorCodeInvalidRefundPolicy is returned when a deposit refund
	// policy is not supported.
	ErrorCodeInvalidRefundPolicy ErrorCodeT = 11

	// ErrorCodeNoSuchDeposit is returned when no deposit is recorded for
	// a proposal.
	ErrorCodeNoSuchDeposit ErrorCodeT = 12

	// ErrorCodeLast is used by unit tests to verify that all error codes
	// have a human readable entry in the ErrorCodes map. This error code
	// will never be returned.
	ErrorCodeLast ErrorCodeT = 13
)

var (
	// ErrorCodes contains the human readable errors.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:             "error code invalid",
		ErrorCodeNotModule:           "not the proposal module",
		ErrorCodeNotDao:              "not the dao",
		ErrorCodeNotMember:           "must be a member to propose",
		ErrorCodeInvalidDeposit:      "invalid deposit",
		ErrorCodeZeroDeposit:         "deposit amount is zero",
		ErrorCodeInvalidCw20:         "invalid cw20 token",
		ErrorCodeNoWithdrawalDenom:   "no withdrawal denomination",
		ErrorCodeNothingToWithdraw:   "nothing to withdraw",
		ErrorCodeNotClosedOrExecuted: "proposal is not closed or executed",
		ErrorCodeInvalidDenom:        "denomination invalid",
		ErrorCodeInvalidRefundPolicy: "refund policy invalid",
		ErrorCodeNoSuchDeposit:       "deposit not found",
	}
)

// DenomT represents the type of a denomination.
type DenomT uint32

const (
	// DenomInvalid is an invalid denomination type.
	DenomInvalid DenomT = 0

	// DenomNative is a native denomination of the runtime bank.
	DenomNative DenomT = 1

	// DenomCw20 is a token contract.
	DenomCw20 DenomT = 2

	// DenomLast is used for unit test validation of human readable
	// denomination types.
	DenomLast DenomT = 3
)

var (
	// Denoms contains the human readable denomination types.
	Denoms = map[DenomT]string{
		DenomInvalid: "invalid",
		DenomNative:  "native",
		DenomCw20:    "cw20",
	}
)

// Denom is a native denomination or the address of a token contract.
type Denom struct {
	Type  DenomT `json:"type"`
	Denom string `json:"denom"`
}

// String satisfies the fmt.Stringer interface.
func (d Denom) String() string {
	return Denoms[d.Type] + ":" + d.Denom
}

// DepositTokenT represents the way a deposit token is chosen.
type DepositTokenT uint32

const (
	// DepositTokenInvalid is an invalid deposit token type.
	DepositTokenInvalid DepositTokenT = 0

	// DepositTokenToken uses the provided denomination.
	DepositTokenToken DepositTokenT = 1

	// DepositTokenVotingModule uses the token contract of the DAO's
	// voting module.
	DepositTokenVotingModule DepositTokenT = 2

	// DepositTokenLast is used for unit test validation of human readable
	// deposit token types.
	DepositTokenLast DepositTokenT = 3
)

var (
	// DepositTokens contains the human readable deposit token types.
	DepositTokens = map[DepositTokenT]string{
		DepositTokenInvalid:      "invalid",
		DepositTokenToken:        "token",
		DepositTokenVotingModule: "votingmoduletoken",
	}
)

// DepositToken selects the token of a deposit. Denom is only used by the
// token type.
type DepositToken struct {
	Type  DepositTokenT `json:"type"`
	Denom *Denom        `json:"denom,omitempty"`
}

// RefundPolicyT represents when a deposit is returned to the proposer.
type RefundPolicyT uint32

const (
	// RefundInvalid is an invalid refund policy.
	RefundInvalid RefundPolicyT = 0

	// RefundAlways returns the deposit once the proposal completes.
	RefundAlways RefundPolicyT = 1

	// RefundOnlyPassed returns the deposit if the proposal passed.
	RefundOnlyPassed RefundPolicyT = 2

	// RefundNever sends the deposit to the DAO.
	RefundNever RefundPolicyT = 3

	// RefundLast is used for unit test validation of human readable
	// refund policies.
	RefundLast RefundPolicyT = 4
)

var (
	// RefundPolicies contains the human readable refund policies.
	RefundPolicies = map[RefundPolicyT]string{
		RefundInvalid:    "invalid",
		RefundAlways:     "always",
		RefundOnlyPassed: "onlypassed",
		RefundNever:      "never",
	}
)

// String satisfies the fmt.Stringer interface.
func (r RefundPolicyT) String() string {
	return RefundPolicies[r]
}

// UncheckedDepositInfo is the deposit as it is provided by the DAO.
type UncheckedDepositInfo struct {
	Denom        DepositToken    `json:"denom"`
	Amount       numeric.Uint128 `json:"amount"`
	RefundPolicy RefundPolicyT   `json:"refundpolicy"`
}

// DepositInfo is a validated deposit.
type DepositInfo struct {
	Denom        Denom           `json:"denom"`
	Amount       numeric.Uint128 `json:"amount"`
	RefundPolicy RefundPolicyT   `json:"refundpolicy"`
}

// Config is the module config.
type Config struct {
	Deposit                *DepositInfo `json:"deposit,omitempty"`
	OpenProposalSubmission bool         `json:"openproposalsubmission"`
}

// Instantiate is the payload used to instantiate the module. The sender of
// the instantiation is the proposal module.
type Instantiate struct {
	Deposit                *UncheckedDepositInfo `json:"deposit,omitempty"`
	OpenProposalSubmission bool                  `json:"openproposalsubmission"`
}

// Propose submits a proposal. Msg is the propose payload of the proposal
// module without a proposer.
type Propose struct {
	Msg json.RawMessage `json:"msg"`
}

// UpdateConfig replaces the config. Deposits of existing proposals are
// not affected.
type UpdateConfig struct {
	Deposit                *UncheckedDepositInfo `json:"deposit,omitempty"`
	OpenProposalSubmission bool                  `json:"openproposalsubmission"`
}

// Withdraw sends the balance of a denomination to the DAO. The deposit
// denomination is used when none is provided.
type Withdraw struct {
	Denom *Denom `json:"denom,omitempty"`
}

// ProposalModuleQuery requests the proposal module.
type ProposalModuleQuery struct{}

// ProposalModuleReply is the reply to the ProposalModuleQuery query.
type ProposalModuleReply struct {
	ProposalModule string `json:"proposalmodule"`
}

// ConfigQuery requests the config.
type ConfigQuery struct{}

// ConfigReply is the reply to the ConfigQuery query.
type ConfigReply struct {
	Config Config `json:"config"`
}

// DepositInfoQuery requests the deposit of a proposal.
type DepositInfoQuery struct {
	ProposalID uint64 `json:"proposalid"`
}

// DepositInfoReply is the reply to the DepositInfoQuery query. Deposit is
// nil when no deposit was required.
type DepositInfoReply struct {
	Deposit  *DepositInfo `json:"deposit,omitempty"`
	Proposer string       `json:"proposer"`
}
