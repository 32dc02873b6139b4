// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/indexer"
)

// backendErrors maps the backend sentinel errors that are caused by the user
// to their v1 error codes.
var backendErrors = []struct {
	err  error
	code v1.ErrorCodeT
}{
	{backend.ErrPayloadInvalid, v1.ErrorCodePayloadInvalid},
	{backend.ErrContractNotFound, v1.ErrorCodeContractNotFound},
	{backend.ErrCodeNotFound, v1.ErrorCodeCodeNotFound},
	{backend.ErrCmdInvalid, v1.ErrorCodeCmdInvalid},
	{backend.ErrAddressInvalid, v1.ErrorCodeAddressInvalid},
	{backend.ErrCallDepth, v1.ErrorCodeCallDepth},
	{backend.ErrMsgInvalid, v1.ErrorCodeMsgInvalid},
	{backend.ErrInsufficientFunds, v1.ErrorCodeInsufficientFunds},
	{backend.ErrCoinsInvalid, v1.ErrorCodeCoinsInvalid},
}

// convertBackendError returns the v1 error code of a backend user error.
func convertBackendError(err error) (v1.ErrorCodeT, bool) {
	for _, v := range backendErrors {
		if errors.Is(err, v.err) {
			return v.code, true
		}
	}
	return v1.ErrorCodeInvalid, false
}

func convertEventsToV1(events []backend.Event) []v1.Event {
	e := make([]v1.Event, 0, len(events))
	for _, v := range events {
		attrs := make([]v1.Attribute, 0, len(v.Attributes))
		for _, a := range v.Attributes {
			attrs = append(attrs, v1.Attribute{
				Key:   a.Key,
				Value: a.Value,
			})
		}
		e = append(e, v1.Event{
			Type:       v.Type,
			Attributes: attrs,
		})
	}
	return e
}

func convertBlockToV1(b block.Info) v1.BlockReply {
	return v1.BlockReply{
		Height:  b.Height,
		Time:    b.Time,
		ChainID: b.ChainID,
	}
}

func convertProposalsToV1(props []indexer.Proposal) []v1.IndexProposal {
	p := make([]v1.IndexProposal, 0, len(props))
	for _, v := range props {
		p = append(p, v1.IndexProposal{
			Module:     v.Module,
			ProposalID: v.ProposalID,
			Proposer:   v.Proposer,
			Status:     v.Status,
			Height:     v.Height,
			Timestamp:  v.Timestamp,
		})
	}
	return p
}

func convertVotesToV1(votes []indexer.Vote) []v1.IndexVote {
	vs := make([]v1.IndexVote, 0, len(votes))
	for _, v := range votes {
		vs = append(vs, v1.IndexVote{
			Voter:  v.Voter,
			Vote:   v.Vote,
			Power:  v.Power,
			Height: v.Height,
		})
	}
	return vs
}
