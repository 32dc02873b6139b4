// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cockroachdb

const (
	tableNameVersions  = "versions"
	tableNameProposals = "proposals"
	tableNameVotes     = "votes"
)

// Version describes the version of the index tables.
type Version struct {
	ID        string `gorm:"primary_key"` // Primary key
	Version   uint32 `gorm:"not null"`    // Table version
	Timestamp int64  `gorm:"not null"`    // UNIX timestamp of record creation
}

// TableName returns the table name of the versions table.
func (Version) TableName() string {
	return tableNameVersions
}

// Proposal is an indexed proposal. The key is the module address and the
// proposal ID.
type Proposal struct {
	Key           string `gorm:"primary_key"`    // module/proposalid
	Module        string `gorm:"not null;index"` // Proposal module address
	ProposalID    uint64 `gorm:"not null"`       // Proposal ID
	Proposer      string `gorm:"not null"`       // Proposer address
	Status        string `gorm:"not null;index"` // Current status
	Height        uint64 `gorm:"not null"`       // Creation height
	Timestamp     int64  `gorm:"not null"`       // Creation time
	UpdatedHeight uint64 `gorm:"not null"`       // Height of last status change
	Votes         []Vote `gorm:"foreignkey:ProposalKey"`
}

// TableName returns the table name of the proposals table.
func (Proposal) TableName() string {
	return tableNameProposals
}

// Vote is an indexed vote. Revotes overwrite the previous vote.
type Vote struct {
	Key         string `gorm:"primary_key"`    // module/proposalid/voter
	ProposalKey string `gorm:"not null;index"` // Proposal foreign key
	Voter       string `gorm:"not null"`       // Voter address
	Vote        string `gorm:"not null"`       // Vote option
	Power       string `gorm:"not null"`       // Voting power, base 10
	Height      uint64 `gorm:"not null"`       // Height of the vote
}

// TableName returns the table name of the votes table.
func (Vote) TableName() string {
	return tableNameVotes
}
