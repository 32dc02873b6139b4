// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cockroachdb implements the proposal index using CockroachDB.
package cockroachdb

import (
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/decred/dcrdao/dcrdaod/indexer"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
)

const (
	// UserDcrdaod is the database user that the daemon connects as.
	UserDcrdaod = "dcrdaod"

	// databaseID is the database name prefix. The chain ID is appended.
	databaseID = "dcrdao_index"

	// indexID is the ID of the version record of the index tables.
	indexID = "index"

	// indexVersion is the current version of the index tables.
	indexVersion uint32 = 1
)

var (
	_ indexer.Indexer = (*cockroachdb)(nil)
)

// cockroachdb implements the indexer Indexer interface.
type cockroachdb struct {
	sync.RWMutex
	shutdown bool     // Backend is shutdown
	db       *gorm.DB // Database context
}

func proposalKey(module string, id uint64) string {
	return module + "/" + strconv.FormatUint(id, 10)
}

func voteKey(module string, id uint64, voter string) string {
	return proposalKey(module, id) + "/" + voter
}

func convertProposalFromIndexer(p indexer.Proposal) Proposal {
	return Proposal{
		Key:           proposalKey(p.Module, p.ProposalID),
		Module:        p.Module,
		ProposalID:    p.ProposalID,
		Proposer:      p.Proposer,
		Status:        p.Status,
		Height:        p.Height,
		Timestamp:     p.Timestamp,
		UpdatedHeight: p.Height,
	}
}

func convertProposalToIndexer(p Proposal) indexer.Proposal {
	return indexer.Proposal{
		Module:     p.Module,
		ProposalID: p.ProposalID,
		Proposer:   p.Proposer,
		Status:     p.Status,
		Height:     p.Height,
		Timestamp:  p.Timestamp,
	}
}

func convertVoteFromIndexer(v indexer.Vote) Vote {
	return Vote{
		Key:         voteKey(v.Module, v.ProposalID, v.Voter),
		ProposalKey: proposalKey(v.Module, v.ProposalID),
		Voter:       v.Voter,
		Vote:        v.Vote,
		Power:       v.Power,
		Height:      v.Height,
	}
}

func (c *cockroachdb) isShutdown() bool {
	c.RLock()
	defer c.RUnlock()

	return c.shutdown
}

// Apply applies a batch of index changes in a single transaction.
//
// This function satisfies the indexer Indexer interface.
func (c *cockroachdb) Apply(b indexer.Batch) error {
	log.Tracef("Apply: %v %v %v", len(b.Proposals), len(b.Votes),
		len(b.Statuses))

	if c.isShutdown() {
		return indexer.ErrShutdown
	}

	tx := c.db.Begin()
	err := applyBatch(tx, b)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func applyBatch(tx *gorm.DB, b indexer.Batch) error {
	for _, v := range b.Proposals {
		p := convertProposalFromIndexer(v)
		err := tx.Save(&p).Error
		if err != nil {
			return fmt.Errorf("save proposal %v: %v", p.Key, err)
		}
	}
	for _, v := range b.Votes {
		vote := convertVoteFromIndexer(v)
		err := tx.Save(&vote).Error
		if err != nil {
			return fmt.Errorf("save vote %v: %v", vote.Key, err)
		}
	}
	for _, s := range b.Statuses {
		key := proposalKey(s.Module, s.ProposalID)
		err := tx.Model(&Proposal{}).
			Where("key = ?", key).
			Updates(map[string]interface{}{
				"status":         s.Status,
				"updated_height": s.Height,
			}).Error
		if err != nil {
			return fmt.Errorf("update status %v: %v", key, err)
		}
	}
	return nil
}

// Proposals returns the indexed proposals that match the provided query.
//
// This function satisfies the indexer Indexer interface.
func (c *cockroachdb) Proposals(q indexer.Query) ([]indexer.Proposal, error) {
	log.Tracef("Proposals: %+v", q)

	if c.isShutdown() {
		return nil, indexer.ErrShutdown
	}

	limit := q.Limit
	switch {
	case limit <= 0:
		limit = indexer.DefaultLimit
	case limit > indexer.MaxLimit:
		limit = indexer.MaxLimit
	}

	tx := c.db.Model(&Proposal{})
	if q.Module != "" {
		tx = tx.Where("module = ?", q.Module)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	var props []Proposal
	err := tx.Order("module asc, proposal_id asc").
		Offset(q.Offset).
		Limit(limit).
		Find(&props).Error
	if err != nil {
		return nil, err
	}

	reply := make([]indexer.Proposal, 0, len(props))
	for _, p := range props {
		reply = append(reply, convertProposalToIndexer(p))
	}
	return reply, nil
}

// Votes returns the indexed votes of a proposal.
//
// This function satisfies the indexer Indexer interface.
func (c *cockroachdb) Votes(module string, proposalID uint64) ([]indexer.Vote, error) {
	log.Tracef("Votes: %v %v", module, proposalID)

	if c.isShutdown() {
		return nil, indexer.ErrShutdown
	}

	var votes []Vote
	err := c.db.Where("proposal_key = ?", proposalKey(module, proposalID)).
		Order("voter asc").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}

	reply := make([]indexer.Vote, 0, len(votes))
	for _, v := range votes {
		reply = append(reply, indexer.Vote{
			Module:     module,
			ProposalID: proposalID,
			Voter:      v.Voter,
			Vote:       v.Vote,
			Power:      v.Power,
			Height:     v.Height,
		})
	}
	return reply, nil
}

// Close shuts down the database connection.
//
// This function satisfies the indexer Indexer interface.
func (c *cockroachdb) Close() error {
	log.Tracef("Close")

	c.Lock()
	defer c.Unlock()

	c.shutdown = true
	return c.db.Close()
}

// createTables creates the index tables if they do not exist yet.
func createTables(tx *gorm.DB) error {
	if !tx.HasTable(tableNameVersions) {
		err := tx.CreateTable(&Version{}).Error
		if err != nil {
			return err
		}
	}
	if !tx.HasTable(tableNameProposals) {
		err := tx.CreateTable(&Proposal{}).Error
		if err != nil {
			return err
		}
	}
	if !tx.HasTable(tableNameVotes) {
		err := tx.CreateTable(&Vote{}).Error
		if err != nil {
			return err
		}
	}

	// Check the version record
	var v Version
	err := tx.Where("id = ?", indexID).Find(&v).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		return tx.Create(&Version{
			ID:        indexID,
			Version:   indexVersion,
			Timestamp: time.Now().Unix(),
		}).Error
	case err != nil:
		return err
	case v.Version != indexVersion:
		return fmt.Errorf("wrong index version: got %v, want %v",
			v.Version, indexVersion)
	}
	return nil
}

// New returns a new cockroachdb index. The connection uses TLS client
// certificate authentication.
func New(host, chainID, rootCert, cert, key string) (*cockroachdb, error) {
	log.Tracef("New: %v %v %v %v %v", host, chainID, rootCert, cert, key)

	// Build url
	dbName := databaseID + "_" + chainID
	h := "postgresql://" + UserDcrdaod + "@" + host + "/" + dbName
	u, err := url.Parse(h)
	if err != nil {
		return nil, fmt.Errorf("parse url '%v': %v", h, err)
	}

	q := u.Query()
	q.Add("sslmode", "require")
	q.Add("sslrootcert", rootCert)
	q.Add("sslcert", cert)
	q.Add("sslkey", key)
	u.RawQuery = q.Encode()

	// Connect to database
	db, err := gorm.Open("postgres", u.String())
	if err != nil {
		return nil, fmt.Errorf("connect to database '%v': %v", h, err)
	}

	log.Infof("Index host: %v", h)

	return open(db)
}

// open sets up the index tables on an open database connection.
func open(db *gorm.DB) (*cockroachdb, error) {
	// Errors are handled by the caller.
	db.LogMode(false)

	// Table names are set manually.
	db.SingularTable(true)

	tx := db.Begin()
	err := createTables(tx)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}
	err = tx.Commit().Error
	if err != nil {
		db.Close()
		return nil, err
	}

	return &cockroachdb{
		db: db,
	}, nil
}
