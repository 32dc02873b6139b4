// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package v1 contains the dcrdaod HTTP API. Module commands and queries are
// forwarded to the module runtime as JSON encoded payloads. The payload
// types of the individual modules are defined by the module API packages.
package v1

import "fmt"

const (
	// APIRoute is prefixed onto all routes in this package.
	APIRoute = "/v1"

	// Public routes
	RouteVersion        = "/version"
	RouteExecute        = "/execute"
	RouteInstantiate    = "/instantiate"
	RouteQuery          = "/query"
	RouteBalance        = "/balance"
	RouteBlock          = "/block"
	RouteCodes          = "/codes"
	RouteContract       = "/contract"
	RouteIndexProposals = "/index/proposals"
	RouteIndexVotes     = "/index/votes"

	// Routes that require auth
	RouteMint    = "/admin/mint"
	RouteAdvance = "/admin/advance"

	// RouteMetrics serves the prometheus metrics. It is not prefixed
	// with the API route.
	RouteMetrics = "/metrics"

	// DefaultMainnetPort is the default port that the daemon listens on.
	DefaultMainnetPort = "49380"

	// DefaultTestnetPort is the default port when the chain ID is a
	// test chain.
	DefaultTestnetPort = "59380"
)

// ErrorCodeT represents a user error code.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodeInputInvalid is returned when the request body or the
	// query string could not be decoded.
	ErrorCodeInputInvalid ErrorCodeT = 1

	// ErrorCodePayloadInvalid is returned when a module could not decode
	// the command payload.
	ErrorCodePayloadInvalid ErrorCodeT = 2

	// ErrorCodeContractNotFound is returned when a contract does not
	// exist.
	ErrorCodeContractNotFound ErrorCodeT = 3

	// ErrorCodeCodeNotFound is returned when a code ID has not been
	// registered.
	ErrorCodeCodeNotFound ErrorCodeT = 4

	// ErrorCodeCmdInvalid is returned when a module does not know the
	// command.
	ErrorCodeCmdInvalid ErrorCodeT = 5

	// ErrorCodeAddressInvalid is returned when an address is malformed.
	ErrorCodeAddressInvalid ErrorCodeT = 6

	// ErrorCodeCallDepth is returned when a chain of sub-messages
	// exceeds the maximum call depth.
	ErrorCodeCallDepth ErrorCodeT = 7

	// ErrorCodeMsgInvalid is returned when a message does not contain
	// exactly one action.
	ErrorCodeMsgInvalid ErrorCodeT = 8

	// ErrorCodeInsufficientFunds is returned when the sender does not
	// have the funds that it attempts to send.
	ErrorCodeInsufficientFunds ErrorCodeT = 9

	// ErrorCodeCoinsInvalid is returned when a coin is malformed.
	ErrorCodeCoinsInvalid ErrorCodeT = 10

	// ErrorCodeIndexDisabled is returned when an index route is called
	// and the daemon has no index configured.
	ErrorCodeIndexDisabled ErrorCodeT = 11

	// ErrorCodeInvalidCredentials is returned when the credentials of
	// an admin route are invalid.
	ErrorCodeInvalidCredentials ErrorCodeT = 12

	// ErrorCodeLast is used by unit tests to verify that all error
	// codes have a human readable entry in the ErrorCodes map. This
	// error will never be returned.
	ErrorCodeLast ErrorCodeT = 13
)

var (
	// ErrorCodes contains the human readable error codes.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:            "error invalid",
		ErrorCodeInputInvalid:       "input invalid",
		ErrorCodePayloadInvalid:     "payload invalid",
		ErrorCodeContractNotFound:   "contract not found",
		ErrorCodeCodeNotFound:       "code not found",
		ErrorCodeCmdInvalid:         "command invalid",
		ErrorCodeAddressInvalid:     "address invalid",
		ErrorCodeCallDepth:          "max call depth exceeded",
		ErrorCodeMsgInvalid:         "message invalid",
		ErrorCodeInsufficientFunds:  "insufficient funds",
		ErrorCodeCoinsInvalid:       "coins invalid",
		ErrorCodeIndexDisabled:      "index disabled",
		ErrorCodeInvalidCredentials: "invalid credentials",
	}
)

// UserErrorReply is the reply that the server returns when it encounters an
// error that is caused by something that the user did (malformed input, bad
// timing, etc). The HTTP status code will be 400.
type UserErrorReply struct {
	ErrorCode    ErrorCodeT `json:"errorcode"`
	ErrorContext string     `json:"errorcontext,omitempty"`
}

// Error satisfies the error interface.
func (e UserErrorReply) Error() string {
	return fmt.Sprintf("user error code: %v", e.ErrorCode)
}

// ModuleErrorReply is the reply that the server returns when a module
// rejects a command because of something the user did. The error codes are
// defined by the module API packages. The HTTP status code will be 400.
type ModuleErrorReply struct {
	ModuleID     string `json:"moduleid"`
	ErrorCode    uint32 `json:"errorcode"`
	ErrorContext string `json:"errorcontext,omitempty"`
}

// Error satisfies the error interface.
func (e ModuleErrorReply) Error() string {
	return fmt.Sprintf("module %v error code: %v", e.ModuleID, e.ErrorCode)
}

// ServerErrorReply is the reply that the server returns when it encounters
// an unrecoverable error while executing a command. The HTTP status code
// will be 500 and the ErrorCode field will contain a UNIX timestamp that the
// user can provide to the server admin to track down the error details in
// the logs.
type ServerErrorReply struct {
	ErrorCode int64 `json:"errorcode"`
}

// Error satisfies the error interface.
func (e ServerErrorReply) Error() string {
	return fmt.Sprintf("server error: %v", e.ErrorCode)
}

// Coin is an amount of a native denomination. The amount is a base 10
// encoded unsigned 128 bit integer.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Attribute is a key-value pair of an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is emitted when a message is processed.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Version requests the server version and the current block.
type Version struct{}

// VersionReply is the reply to the Version command.
type VersionReply struct {
	Version string `json:"version"`
	Height  uint64 `json:"height"`
	Time    uint64 `json:"time"`
}

// Execute executes a command on a contract on behalf of the sender.
type Execute struct {
	Sender   string `json:"sender"`
	Contract string `json:"contract"`
	Cmd      string `json:"cmd"`
	Payload  string `json:"payload"` // JSON encoded
	Funds    []Coin `json:"funds,omitempty"`
}

// ExecuteReply is the reply to the Execute command.
type ExecuteReply struct {
	Events []Event `json:"events"`
	Data   string  `json:"data,omitempty"`
}

// Instantiate instantiates a contract from a registered code.
type Instantiate struct {
	Sender  string `json:"sender"`
	CodeID  uint64 `json:"codeid"`
	Label   string `json:"label"`
	Admin   string `json:"admin,omitempty"`
	Payload string `json:"payload"` // JSON encoded
	Funds   []Coin `json:"funds,omitempty"`
}

// InstantiateReply is the reply to the Instantiate command.
type InstantiateReply struct {
	Address string  `json:"address"`
	Events  []Event `json:"events"`
	Data    string  `json:"data,omitempty"`
}

// Query performs a read only query on a contract.
type Query struct {
	Contract string `json:"contract"`
	Cmd      string `json:"cmd"`
	Payload  string `json:"payload"` // JSON encoded
}

// QueryReply is the reply to the Query command.
type QueryReply struct {
	Payload string `json:"payload"` // JSON encoded
}

// Balance requests the native balance of an address.
type Balance struct {
	Address string `schema:"address"`
	Denom   string `schema:"denom"`
}

// BalanceReply is the reply to the Balance command.
type BalanceReply struct {
	Amount string `json:"amount"`
}

// Block requests the current block.
type Block struct{}

// BlockReply is the reply to the Block and Advance commands.
type BlockReply struct {
	Height  uint64 `json:"height"`
	Time    uint64 `json:"time"` // Unix timestamp, seconds
	ChainID string `json:"chainid"`
}

// Codes requests the registered module implementations.
type Codes struct{}

// Code is a registered module implementation.
type Code struct {
	CodeID uint64 `json:"codeid"`
	Name   string `json:"name"`
}

// CodesReply is the reply to the Codes command.
type CodesReply struct {
	Codes []Code `json:"codes"`
}

// Contract requests the info of a contract.
type Contract struct {
	Address string `schema:"address"`
}

// ContractReply is the reply to the Contract command.
type ContractReply struct {
	Address string `json:"address"`
	CodeID  uint64 `json:"codeid"`
	Creator string `json:"creator"`
	Admin   string `json:"admin,omitempty"`
	Label   string `json:"label"`
}

// IndexProposals requests the indexed proposals. Empty fields match all
// proposals.
type IndexProposals struct {
	Module string `schema:"module"`
	Status string `schema:"status"`
	Offset int    `schema:"offset"`
	Limit  int    `schema:"limit"`
}

// IndexProposal is an indexed proposal.
type IndexProposal struct {
	Module     string `json:"module"`
	ProposalID uint64 `json:"proposalid"`
	Proposer   string `json:"proposer"`
	Status     string `json:"status"`
	Height     uint64 `json:"height"`
	Timestamp  int64  `json:"timestamp"`
}

// IndexProposalsReply is the reply to the IndexProposals command.
type IndexProposalsReply struct {
	Proposals []IndexProposal `json:"proposals"`
}

// IndexVotes requests the indexed votes of a proposal.
type IndexVotes struct {
	Module     string `schema:"module"`
	ProposalID uint64 `schema:"proposalid"`
}

// IndexVote is an indexed vote.
type IndexVote struct {
	Voter  string `json:"voter"`
	Vote   string `json:"vote"`
	Power  string `json:"power"`
	Height uint64 `json:"height"`
}

// IndexVotesReply is the reply to the IndexVotes command.
type IndexVotesReply struct {
	Votes []IndexVote `json:"votes"`
}

// Mint credits native funds to an address.
type Mint struct {
	Address string `json:"address"`
	Amount  Coin   `json:"amount"`
}

// MintReply is the reply to the Mint command.
type MintReply struct{}

// Advance moves the block clock forward.
type Advance struct {
	Heights uint64 `json:"heights"`
	Seconds uint64 `json:"seconds"`
}

// AdvanceReply is the reply to the Advance command.
type AdvanceReply struct {
	Block BlockReply `json:"block"`
}
