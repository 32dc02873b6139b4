// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package core defines the API of the DAO core module. The core module is
// the DAO. It holds the treasury, registers the voting module and the
// proposal modules, and executes the messages of passed proposals.
package core

import (
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	// ID is the module ID.
	ID = "core"

	// Version is the version of the module.
	Version = "1"

	// Commands
	CmdExecuteAdminMsgs        = "executeadminmsgs"        // Admin msgs
	CmdExecuteProposalHook     = "executeproposalhook"     // Proposal msgs
	CmdPause                   = "pause"                   // Pause the DAO
	CmdUpdateConfig            = "updateconfig"            // Update config
	CmdUpdateVotingModule      = "updatevotingmodule"      // Swap voting
	CmdUpdateProposalModules   = "updateproposalmodules"   // Add/disable
	CmdSetItem                 = "setitem"                 // Set an item
	CmdRemoveItem              = "removeitem"              // Remove an item
	CmdNominateAdmin           = "nominateadmin"           // Nominate admin
	CmdAcceptAdminNomination   = "acceptadminnomination"   // Accept
	CmdWithdrawAdminNomination = "withdrawadminnomination" // Withdraw
	CmdUpdateSubDaos           = "updatesubdaos"           // Update sub-DAOs
	CmdUpdateCw20List          = "updatecw20list"          // Update tokens
	CmdReceive                 = "receive"                 // Token hook

	// Queries
	CmdAdmin                 = "admin"                 // Get admin
	CmdAdminNomination       = "adminnomination"       // Get nomination
	CmdConfig                = "config"                // Get config
	CmdDumpState             = "dumpstate"             // Get full state
	CmdGetItem               = "getitem"               // Get an item
	CmdListItems             = "listitems"             // List items
	CmdProposalModules       = "proposalmodules"       // List modules
	CmdActiveProposalModules = "activeproposalmodules" // List enabled
	CmdProposalModuleCount   = "proposalmodulecount"   // Module counts
	CmdPauseInfo             = "pauseinfo"             // Get pause info
	CmdVotingModule          = "votingmodule"          // Get voting module
	CmdListSubDaos           = "listsubdaos"           // List sub-DAOs
	CmdDaoURI                = "daouri"                // Get DAO URI
	CmdCw20List              = "cw20list"              // List tokens
	CmdCw20Balances          = "cw20balances"          // List token balances
)

const (
	// DefaultLimit is the number of entries that are returned by the
	// paginated queries when no limit is provided.
	DefaultLimit = 10

	// MaxLimit is the maximum number of entries that are returned by
	// the paginated queries.
	MaxLimit = 30
)

// ErrorCodeT represents a error that was caused by the user.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodeUnauthorized is returned when the sender may not execute
	// the command.
	ErrorCodeUnauthorized ErrorCodeT = 1

	// ErrorCodePaused is returned when a command is executed while the
	// DAO is paused.
	ErrorCodePaused ErrorCodeT = 2

	// ErrorCodeNoActiveProposalModules is returned when an update would
	// leave the DAO without an enabled proposal module.
	ErrorCodeNoActiveProposalModules ErrorCodeT = 3

	// ErrorCodeModuleDisabledCannotExecute is returned when a disabled
	// proposal module attempts to execute a proposal.
	ErrorCodeModuleDisabledCannotExecute ErrorCodeT = 4

	// ErrorCodeProposalModuleDoesNotExist is returned when a proposal
	// module that is not registered is disabled.
	ErrorCodeProposalModuleDoesNotExist ErrorCodeT = 5

	// ErrorCodeModuleAlreadyDisabled is returned when a disabled
	// proposal module is disabled again.
	ErrorCodeModuleAlreadyDisabled ErrorCodeT = 6

	// ErrorCodeKeyMissing is returned when an item that does not exist
	// is removed.
	ErrorCodeKeyMissing ErrorCodeT = 7

	// ErrorCodePendingNomination is returned when an admin is nominated
	// while another nomination is pending.
	ErrorCodePendingNomination ErrorCodeT = 8

	// ErrorCodeNoAdminNomination is returned when a nomination is
	// accepted or withdrawn while none is pending.
	ErrorCodeNoAdminNomination ErrorCodeT = 9

	// ErrorCodeInvalidCw20 is returned when a token list entry is not a
	// token module.
	ErrorCodeInvalidCw20 ErrorCodeT = 10

	// ErrorCodeInvalidDuration is returned when a pause duration is
	// zero.
	ErrorCodeInvalidDuration ErrorCodeT = 11

	// ErrorCodeUnknownReplyID is returned when a reply with an unknown
	// ID is delivered.
	ErrorCodeUnknownReplyID ErrorCodeT = 12

	// ErrorCodeLast is used by unit tests to verify that all error codes
	// have a human readable entry in the ErrorCodes map. This error will
	// never be returned.
	ErrorCodeLast ErrorCodeT = 13
)

var (
	// ErrorCodes contains the human readable error messages.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:                     "error code invalid",
		ErrorCodeUnauthorized:                "unauthorized",
		ErrorCodePaused:                      "dao is paused",
		ErrorCodeNoActiveProposalModules:     "dao must have at least one active proposal module",
		ErrorCodeModuleDisabledCannotExecute: "proposal module is disabled and can not execute messages",
		ErrorCodeProposalModuleDoesNotExist:  "proposal module does not exist",
		ErrorCodeModuleAlreadyDisabled:       "proposal module is already disabled",
		ErrorCodeKeyMissing:                  "key is missing from storage",
		ErrorCodePendingNomination:           "an admin nomination is already pending",
		ErrorCodeNoAdminNomination:           "no admin nomination is pending",
		ErrorCodeInvalidCw20:                 "token is not a token module",
		ErrorCodeInvalidDuration:             "duration must not be zero",
		ErrorCodeUnknownReplyID:              "unknown reply id",
	}
)

// ProposalModuleStatusT represents the status of a proposal module.
type ProposalModuleStatusT uint32

const (
	// ProposalModuleStatusInvalid is an invalid status.
	ProposalModuleStatusInvalid ProposalModuleStatusT = 0

	// ProposalModuleStatusEnabled is the status of a module that may
	// execute proposals.
	ProposalModuleStatusEnabled ProposalModuleStatusT = 1

	// ProposalModuleStatusDisabled is the status of a module that may
	// no longer execute proposals.
	ProposalModuleStatusDisabled ProposalModuleStatusT = 2

	// ProposalModuleStatusLast is used for unit test validation of
	// human readable statuses.
	ProposalModuleStatusLast ProposalModuleStatusT = 3
)

var (
	// ProposalModuleStatuses contains the human readable statuses.
	ProposalModuleStatuses = map[ProposalModuleStatusT]string{
		ProposalModuleStatusInvalid:  "invalid",
		ProposalModuleStatusEnabled:  "enabled",
		ProposalModuleStatusDisabled: "disabled",
	}
)

// ProposalModule is a registered proposal module. The prefix is derived
// from the registration order and is used to build human readable proposal
// IDs such as A1 or B12.
type ProposalModule struct {
	Address string                `json:"address"`
	Prefix  string                `json:"prefix"`
	Status  ProposalModuleStatusT `json:"status"`
}

// Config is the DAO config.
type Config struct {
	Name                  string `json:"name"`
	Description           string `json:"description"`
	ImageURL              string `json:"imageurl,omitempty"`
	AutomaticallyAddCw20s bool   `json:"automaticallyaddcw20s"`
	DaoURI                string `json:"daouri,omitempty"`
}

// Item is a key-value pair that is saved by the DAO.
type Item struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Instantiate is the payload used to instantiate the module. The voting
// module and the proposal modules are instantiated by the core. The admin
// defaults to the core itself.
type Instantiate struct {
	Name                  string                          `json:"name"`
	Description           string                          `json:"description"`
	ImageURL              string                          `json:"imageurl,omitempty"`
	AutomaticallyAddCw20s bool                            `json:"automaticallyaddcw20s"`
	DaoURI                string                          `json:"daouri,omitempty"`
	Admin                 string                          `json:"admin,omitempty"`
	VotingModule          backend.ModuleInstantiateInfo   `json:"votingmodule"`
	ProposalModules       []backend.ModuleInstantiateInfo `json:"proposalmodules"`
	InitialItems          []Item                          `json:"initialitems,omitempty"`
}

// ModuleInstantiateCallback may be set as the response data by a module
// that is instantiated by the core. The core executes the messages once the
// module has been registered.
type ModuleInstantiateCallback struct {
	Msgs []backend.Msg `json:"msgs"`
}

// ExecuteAdminMsgs executes messages on behalf of the DAO. Only the admin
// may execute it.
type ExecuteAdminMsgs struct {
	Msgs []backend.Msg `json:"msgs"`
}

// ExecuteProposalHook executes the messages of a passed proposal on behalf
// of the DAO. Only enabled proposal modules may execute it.
type ExecuteProposalHook struct {
	Msgs []backend.Msg `json:"msgs"`
}

// Pause pauses the DAO for the provided duration.
type Pause struct {
	Duration block.Duration `json:"duration"`
}

// UpdateConfig replaces the DAO config.
type UpdateConfig struct {
	Config Config `json:"config"`
}

// UpdateVotingModule replaces the voting module.
type UpdateVotingModule struct {
	Module backend.ModuleInstantiateInfo `json:"module"`
}

// UpdateProposalModules instantiates new proposal modules and disables
// registered ones.
type UpdateProposalModules struct {
	ToAdd     []backend.ModuleInstantiateInfo `json:"toadd,omitempty"`
	ToDisable []string                        `json:"todisable,omitempty"`
}

// SetItem sets an item.
type SetItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RemoveItem removes an item.
type RemoveItem struct {
	Key string `json:"key"`
}

// NominateAdmin nominates a new admin. The nominee has to accept the
// nomination. A nil admin removes the admin, which makes the core its own
// admin.
type NominateAdmin struct {
	Admin *string `json:"admin,omitempty"`
}

// AcceptAdminNomination accepts a pending admin nomination.
type AcceptAdminNomination struct{}

// WithdrawAdminNomination withdraws a pending admin nomination.
type WithdrawAdminNomination struct{}

// SubDao is a DAO that is managed by this DAO.
type SubDao struct {
	Addr    string `json:"addr"`
	Charter string `json:"charter,omitempty"`
}

// UpdateSubDaos adds and removes sub-DAOs.
type UpdateSubDaos struct {
	ToAdd    []SubDao `json:"toadd,omitempty"`
	ToRemove []string `json:"toremove,omitempty"`
}

// UpdateCw20List adds and removes tokens from the token list of the
// treasury.
type UpdateCw20List struct {
	ToAdd    []string `json:"toadd,omitempty"`
	ToRemove []string `json:"toremove,omitempty"`
}

// Admin requests the admin.
type Admin struct{}

// AdminReply is the reply to the Admin query.
type AdminReply struct {
	Admin string `json:"admin"`
}

// AdminNomination requests the pending admin nomination.
type AdminNomination struct{}

// AdminNominationReply is the reply to the AdminNomination query. The
// nomination is nil when none is pending. An empty nomination nominates the
// core itself.
type AdminNominationReply struct {
	Nomination *string `json:"nomination,omitempty"`
}

// ConfigQuery requests the DAO config.
type ConfigQuery struct{}

// ConfigReply is the reply to the ConfigQuery query.
type ConfigReply struct {
	Config Config `json:"config"`
}

// PauseInfo requests the pause status.
type PauseInfo struct{}

// PauseInfoReply is the reply to the PauseInfo query. The expiration is set
// while the DAO is paused.
type PauseInfoReply struct {
	Paused     bool              `json:"paused"`
	Expiration *block.Expiration `json:"expiration,omitempty"`
}

// DumpState requests the full DAO state.
type DumpState struct{}

// DumpStateReply is the reply to the DumpState query.
type DumpStateReply struct {
	Admin                     string                  `json:"admin"`
	Config                    Config                  `json:"config"`
	Version                   backend.ContractVersion `json:"version"`
	PauseInfo                 PauseInfoReply          `json:"pauseinfo"`
	ProposalModules           []ProposalModule        `json:"proposalmodules"`
	VotingModule              string                  `json:"votingmodule"`
	ActiveProposalModuleCount uint32                  `json:"activeproposalmodulecount"`
	TotalProposalModuleCount  uint32                  `json:"totalproposalmodulecount"`
}

// GetItem requests an item.
type GetItem struct {
	Key string `json:"key"`
}

// GetItemReply is the reply to the GetItem query. The item is nil when the
// key does not exist.
type GetItemReply struct {
	Item *string `json:"item,omitempty"`
}

// ListItems requests a page of items in descending key order.
type ListItems struct {
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// ListItemsReply is the reply to the ListItems query.
type ListItemsReply struct {
	Items []Item `json:"items"`
}

// ProposalModules requests a page of proposal modules in ascending address
// order.
type ProposalModules struct {
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// ProposalModulesReply is the reply to the ProposalModules and the
// ActiveProposalModules queries.
type ProposalModulesReply struct {
	Modules []ProposalModule `json:"modules"`
}

// ProposalModuleCount requests the number of proposal modules.
type ProposalModuleCount struct{}

// ProposalModuleCountReply is the reply to the ProposalModuleCount query.
type ProposalModuleCountReply struct {
	Active uint32 `json:"active"`
	Total  uint32 `json:"total"`
}

// VotingModule requests the voting module.
type VotingModule struct{}

// VotingModuleReply is the reply to the VotingModule query.
type VotingModuleReply struct {
	Address string `json:"address"`
}

// ListSubDaos requests a page of sub-DAOs in ascending address order.
type ListSubDaos struct {
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// ListSubDaosReply is the reply to the ListSubDaos query.
type ListSubDaosReply struct {
	SubDaos []SubDao `json:"subdaos"`
}

// DaoURI requests the DAO URI.
type DaoURI struct{}

// DaoURIReply is the reply to the DaoURI query.
type DaoURIReply struct {
	DaoURI string `json:"daouri,omitempty"`
}

// Cw20List requests a page of treasury tokens in descending address order.
type Cw20List struct {
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// Cw20ListReply is the reply to the Cw20List query.
type Cw20ListReply struct {
	Tokens []string `json:"tokens"`
}

// Cw20Balances requests a page of treasury token balances.
type Cw20Balances struct {
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// Cw20Balance is the treasury balance of a token.
type Cw20Balance struct {
	Token   string          `json:"token"`
	Balance numeric.Uint128 `json:"balance"`
}

// Cw20BalancesReply is the reply to the Cw20Balances query.
type Cw20BalancesReply struct {
	Balances []Cw20Balance `json:"balances"`
}
