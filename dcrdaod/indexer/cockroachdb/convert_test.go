// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cockroachdb

import (
	"testing"

	"github.com/decred/dcrdao/dcrdaod/indexer"
	"github.com/go-test/deep"
)

func TestConvertProposal(t *testing.T) {
	p := indexer.Proposal{
		Module:     "contract3",
		ProposalID: 12,
		Proposer:   "alice",
		Status:     "open",
		Height:     40,
		Timestamp:  1600000200,
	}
	m := convertProposalFromIndexer(p)
	if m.Key != "contract3/12" {
		t.Fatalf("got key %v", m.Key)
	}
	if m.UpdatedHeight != p.Height {
		t.Fatalf("got updated height %v, want %v", m.UpdatedHeight, p.Height)
	}
	if diff := deep.Equal(convertProposalToIndexer(m), p); diff != nil {
		t.Fatal(diff)
	}
}

func TestConvertVote(t *testing.T) {
	v := convertVoteFromIndexer(indexer.Vote{
		Module:     "contract3",
		ProposalID: 12,
		Voter:      "bob",
		Vote:       "abstain",
		Power:      "7",
		Height:     41,
	})
	want := Vote{
		Key:         "contract3/12/bob",
		ProposalKey: "contract3/12",
		Voter:       "bob",
		Vote:        "abstain",
		Power:       "7",
		Height:      41,
	}
	if diff := deep.Equal(v, want); diff != nil {
		t.Fatal(diff)
	}
}
