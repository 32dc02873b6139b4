// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package members defines the API of the members voting module. Members are
// assigned a fixed voting weight by the DAO. The module also answers the
// power queries.
package members

const (
	// ID is the module ID.
	ID = "members"

	// Version is the version of the module.
	Version = "1"

	// Commands
	CmdUpdateMembers = "updatemembers" // Add, update or remove members

	// Queries
	CmdListMembers = "listmembers" // List members
	CmdMember      = "member"      // Get a member
)

const (
	// DefaultLimit is the number of members that are returned by the
	// list members query when no limit is provided.
	DefaultLimit = 10

	// MaxLimit is the maximum number of members that are returned by the
	// list members query.
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

	// ErrorCodeDuplicateMember is returned when a member is listed more
	// than once.
	ErrorCodeDuplicateMember ErrorCodeT = 2

	// ErrorCodeNoMembers is returned when the total weight of the members
	// would be zero.
	ErrorCodeNoMembers ErrorCodeT = 3

	// ErrorCodeLast is used by unit tests to verify that all error codes
	// have a human readable entry in the ErrorCodes map. This error will
	// never be returned.
	ErrorCodeLast ErrorCodeT = 4
)

var (
	// ErrorCodes contains the human readable error messages.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:         "error code invalid",
		ErrorCodeUnauthorized:    "unauthorized",
		ErrorCodeDuplicateMember: "duplicate member",
		ErrorCodeNoMembers:       "total weight must be greater than zero",
	}
)

// Member is a DAO member and its voting weight.
type Member struct {
	Addr   string `json:"addr"`
	Weight uint64 `json:"weight"`
}

// Instantiate is the payload used to instantiate the module. The sender of
// the instantiation is the DAO.
type Instantiate struct {
	Members []Member `json:"members"`
}

// UpdateMembers updates the member list. Members in Add that already exist
// have their weight replaced. A weight of zero removes a member. Removals are
// applied after additions.
type UpdateMembers struct {
	Add    []Member `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// ListMembers requests a page of members in ascending address order.
type ListMembers struct {
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// ListMembersReply is the reply to the ListMembers query.
type ListMembersReply struct {
	Members []Member `json:"members"`
}

// MemberQuery requests the weight of a member at a height. A nil height
// requests the current weight.
type MemberQuery struct {
	Addr   string  `json:"addr"`
	Height *uint64 `json:"height,omitempty"`
}

// MemberReply is the reply to the MemberQuery query. The weight is nil when
// the address is not a member.
type MemberReply struct {
	Weight *uint64 `json:"weight,omitempty"`
}
