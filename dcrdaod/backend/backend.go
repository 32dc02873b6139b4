// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package backend

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

var (
	// ErrShutdown is returned when the backend is shutdown.
	ErrShutdown = errors.New("backend is shutdown")

	// ErrContractNotFound is returned when a message is sent to an
	// address that does not belong to a contract.
	ErrContractNotFound = errors.New("contract not found")

	// ErrCodeNotFound is returned when an instantiation references a
	// code ID that has not been registered.
	ErrCodeNotFound = errors.New("code not found")

	// ErrCmdInvalid is returned when a module does not recognize the
	// provided command.
	ErrCmdInvalid = errors.New("command invalid")

	// ErrAddressInvalid is returned when an address is malformed.
	ErrAddressInvalid = errors.New("address invalid")

	// ErrCallDepth is returned when a chain of sub-messages exceeds
	// the maximum call depth.
	ErrCallDepth = errors.New("max call depth exceeded")

	// ErrMsgInvalid is returned when a message does not contain
	// exactly one action.
	ErrMsgInvalid = errors.New("message invalid")

	// ErrInsufficientFunds is returned when an address does not have
	// the funds that it attempts to send.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCoinsInvalid is returned when a list of coins contains an
	// invalid denomination or a zero amount.
	ErrCoinsInvalid = errors.New("coins invalid")

	// ErrPayloadInvalid is returned when a command payload can not be
	// decoded.
	ErrPayloadInvalid = errors.New("payload invalid")

	// regexpAddress matches valid account and contract addresses.
	regexpAddress = regexp.MustCompile(`^[a-z][a-z0-9]{2,63}$`)

	// regexpDenom matches valid native denominations.
	regexpDenom = regexp.MustCompile(`^[a-z][a-z0-9/]{1,127}$`)
)

// ValidateAddress returns ErrAddressInvalid if the provided address is not a
// well formed address.
func ValidateAddress(addr string) error {
	if !regexpAddress.MatchString(addr) {
		return fmt.Errorf("%w: %q", ErrAddressInvalid, addr)
	}
	return nil
}

// Coin is an amount of a native denomination.
type Coin struct {
	Denom  string          `json:"denom"`
	Amount numeric.Uint128 `json:"amount"`
}

// ValidateCoins verifies that every coin has a valid denomination and a non
// zero amount.
func ValidateCoins(coins []Coin) error {
	for _, c := range coins {
		if !regexpDenom.MatchString(c.Denom) {
			return fmt.Errorf("%w: denom %q", ErrCoinsInvalid, c.Denom)
		}
		if c.Amount.IsZero() {
			return fmt.Errorf("%w: zero amount of %v", ErrCoinsInvalid, c.Denom)
		}
	}
	return nil
}

// NewCoin returns a new Coin.
func NewCoin(amount uint64, denom string) Coin {
	return Coin{
		Denom:  denom,
		Amount: numeric.NewUint128(amount),
	}
}

// ExecuteMsg executes a command on a contract.
type ExecuteMsg struct {
	Contract string `json:"contract"`
	Cmd      string `json:"cmd"`
	Payload  string `json:"payload"` // JSON encoded
	Funds    []Coin `json:"funds,omitempty"`
}

// InstantiateMsg creates a new contract from a registered code ID.
type InstantiateMsg struct {
	CodeID  uint64 `json:"codeid"`
	Label   string `json:"label"`
	Admin   string `json:"admin,omitempty"`
	Payload string `json:"payload"` // JSON encoded
	Funds   []Coin `json:"funds,omitempty"`
}

// BankSendMsg sends native funds from the sender to an address.
type BankSendMsg struct {
	ToAddress string `json:"toaddress"`
	Amount    []Coin `json:"amount"`
}

// Msg is a message that can be dispatched by an account or a contract.
// Exactly one of the fields must be set.
type Msg struct {
	Execute     *ExecuteMsg     `json:"execute,omitempty"`
	Instantiate *InstantiateMsg `json:"instantiate,omitempty"`
	BankSend    *BankSendMsg    `json:"banksend,omitempty"`
}

// Validate verifies that exactly one action is set.
func (m Msg) Validate() error {
	var n int
	if m.Execute != nil {
		n++
	}
	if m.Instantiate != nil {
		n++
	}
	if m.BankSend != nil {
		n++
	}
	if n != 1 {
		return ErrMsgInvalid
	}
	return nil
}

// AdminT represents the type of admin a module is instantiated with.
type AdminT uint32

const (
	// AdminInvalid is an invalid admin type.
	AdminInvalid AdminT = 0

	// AdminAddress sets the admin to the provided address.
	AdminAddress AdminT = 1

	// AdminCore sets the admin to the core module that is
	// instantiating the module.
	AdminCore AdminT = 2

	// AdminLast is used for unit test validation of human readable
	// admin types.
	AdminLast AdminT = 3
)

var (
	// Admins contains the human readable admin types.
	Admins = map[AdminT]string{
		AdminInvalid: "invalid",
		AdminAddress: "address",
		AdminCore:    "core",
	}
)

// Admin describes the admin of an instantiated module.
type Admin struct {
	Type    AdminT `json:"type"`
	Address string `json:"address,omitempty"`
}

// ModuleInstantiateInfo contains the information needed to instantiate a
// module on behalf of a DAO.
type ModuleInstantiateInfo struct {
	CodeID  uint64 `json:"codeid"`
	Payload string `json:"payload"` // JSON encoded
	Admin   *Admin `json:"admin,omitempty"`
	Label   string `json:"label"`
	Funds   []Coin `json:"funds,omitempty"`
}

// Msg returns the instantiate message for the module. The core address is
// used as the admin when the admin type is AdminCore.
func (m ModuleInstantiateInfo) Msg(core string) Msg {
	var admin string
	if m.Admin != nil {
		switch m.Admin.Type {
		case AdminAddress:
			admin = m.Admin.Address
		case AdminCore:
			admin = core
		}
	}
	return Msg{
		Instantiate: &InstantiateMsg{
			CodeID:  m.CodeID,
			Label:   m.Label,
			Admin:   admin,
			Payload: m.Payload,
			Funds:   m.Funds,
		},
	}
}

// Attribute is a key-value pair that is attached to an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is emitted by the backend when a message is processed.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Attr returns the value of the first attribute with the provided key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Result is returned by the backend when a message is processed
// successfully.
type Result struct {
	Events []Event `json:"events"`
	Data   string  `json:"data,omitempty"`
}

// InstantiateResult is returned when a contract is instantiated.
type InstantiateResult struct {
	Address string  `json:"address"`
	Events  []Event `json:"events"`
	Data    string  `json:"data,omitempty"`
}

// ContractInfo describes an instantiated contract.
type ContractInfo struct {
	Address string `json:"address"`
	CodeID  uint64 `json:"codeid"`
	Creator string `json:"creator"`
	Admin   string `json:"admin,omitempty"`
	Label   string `json:"label"`
}

// Code describes a registered module implementation.
type Code struct {
	CodeID uint64 `json:"codeid"`
	Name   string `json:"name"`
}

// ContractVersion identifies the module implementation and the version of a
// contract.
type ContractVersion struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

// ModuleError represents an error that occurred during module execution
// that was caused by the user.
type ModuleError struct {
	ModuleID     string
	ErrorCode    uint32
	ErrorContext string
}

// Error satisfies the error interface.
func (e ModuleError) Error() string {
	if e.ErrorContext == "" {
		return fmt.Sprintf("%v module error code %v",
			e.ModuleID, e.ErrorCode)
	}
	return fmt.Sprintf("%v module error code %v: %v",
		e.ModuleID, e.ErrorCode, e.ErrorContext)
}

// EventHandler is called with the events of every committed transaction.
type EventHandler func(block.Info, []Event)

// Backend provides an API for instantiating and interacting with DAO
// modules.
type Backend interface {
	// Instantiate creates a new contract.
	Instantiate(sender string, msg InstantiateMsg) (*InstantiateResult, error)

	// Execute executes a command on a contract.
	Execute(sender string, msg ExecuteMsg) (*Result, error)

	// Query performs a read only query on a contract. The reply
	// payload is JSON encoded.
	Query(contract, cmd, payload string) (string, error)

	// Balance returns the native balance of an address.
	Balance(address, denom string) (numeric.Uint128, error)

	// Mint credits native funds to an address.
	Mint(address string, c Coin) error

	// Block returns the current block info.
	Block() (block.Info, error)

	// AdvanceBlock moves the block clock forward.
	AdvanceBlock(heights, seconds uint64) (*block.Info, error)

	// Codes returns the registered module implementations.
	Codes() []Code

	// ContractInfo returns information about a contract.
	ContractInfo(address string) (*ContractInfo, error)

	// Subscribe registers a handler for the events of committed
	// transactions.
	Subscribe(EventHandler)

	// Close performs cleanup of the backend.
	Close()
}
