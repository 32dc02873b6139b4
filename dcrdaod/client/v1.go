// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"net/http"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/util"
)

// Version sends a Version command to the dcrdaod v1 API.
func (c *Client) Version(ctx context.Context) (*v1.VersionReply, error) {
	var vr v1.VersionReply
	err := c.do(ctx, http.MethodGet, v1.RouteVersion, nil, &vr)
	if err != nil {
		return nil, err
	}
	return &vr, nil
}

// Execute sends an Execute command to the dcrdaod v1 API.
func (c *Client) Execute(ctx context.Context, e v1.Execute) (*v1.ExecuteReply, error) {
	var er v1.ExecuteReply
	err := c.do(ctx, http.MethodPost, v1.RouteExecute, e, &er)
	if err != nil {
		return nil, err
	}
	return &er, nil
}

// ExecuteCmd JSON encodes the payload and executes the command on the
// contract on behalf of the sender.
func (c *Client) ExecuteCmd(ctx context.Context, sender, contract, cmd string, payload interface{}, funds ...v1.Coin) (*v1.ExecuteReply, error) {
	p, err := util.EncodeJSON(payload)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, v1.Execute{
		Sender:   sender,
		Contract: contract,
		Cmd:      cmd,
		Payload:  p,
		Funds:    funds,
	})
}

// Instantiate sends an Instantiate command to the dcrdaod v1 API.
func (c *Client) Instantiate(ctx context.Context, i v1.Instantiate) (*v1.InstantiateReply, error) {
	var ir v1.InstantiateReply
	err := c.do(ctx, http.MethodPost, v1.RouteInstantiate, i, &ir)
	if err != nil {
		return nil, err
	}
	return &ir, nil
}

// Query sends a Query command to the dcrdaod v1 API.
func (c *Client) Query(ctx context.Context, q v1.Query) (*v1.QueryReply, error) {
	var qr v1.QueryReply
	err := c.do(ctx, http.MethodPost, v1.RouteQuery, q, &qr)
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// QueryCmd JSON encodes the payload, runs the query and decodes the reply
// payload into reply.
func (c *Client) QueryCmd(ctx context.Context, contract, cmd string, payload, reply interface{}) error {
	p, err := util.EncodeJSON(payload)
	if err != nil {
		return err
	}
	qr, err := c.Query(ctx, v1.Query{
		Contract: contract,
		Cmd:      cmd,
		Payload:  p,
	})
	if err != nil {
		return err
	}
	return util.DecodeJSON(qr.Payload, reply)
}

// Balance sends a Balance command to the dcrdaod v1 API.
func (c *Client) Balance(ctx context.Context, address, denom string) (*v1.BalanceReply, error) {
	var br v1.BalanceReply
	err := c.do(ctx, http.MethodGet, v1.RouteBalance,
		v1.Balance{Address: address, Denom: denom}, &br)
	if err != nil {
		return nil, err
	}
	return &br, nil
}

// Block sends a Block command to the dcrdaod v1 API.
func (c *Client) Block(ctx context.Context) (*v1.BlockReply, error) {
	var br v1.BlockReply
	err := c.do(ctx, http.MethodGet, v1.RouteBlock, nil, &br)
	if err != nil {
		return nil, err
	}
	return &br, nil
}

// Codes sends a Codes command to the dcrdaod v1 API.
func (c *Client) Codes(ctx context.Context) ([]v1.Code, error) {
	var cr v1.CodesReply
	err := c.do(ctx, http.MethodGet, v1.RouteCodes, nil, &cr)
	if err != nil {
		return nil, err
	}
	return cr.Codes, nil
}

// Contract sends a Contract command to the dcrdaod v1 API.
func (c *Client) Contract(ctx context.Context, address string) (*v1.ContractReply, error) {
	var cr v1.ContractReply
	err := c.do(ctx, http.MethodGet, v1.RouteContract,
		v1.Contract{Address: address}, &cr)
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

// IndexProposals sends an IndexProposals command to the dcrdaod v1 API.
func (c *Client) IndexProposals(ctx context.Context, ip v1.IndexProposals) ([]v1.IndexProposal, error) {
	var ipr v1.IndexProposalsReply
	err := c.do(ctx, http.MethodGet, v1.RouteIndexProposals, ip, &ipr)
	if err != nil {
		return nil, err
	}
	return ipr.Proposals, nil
}

// IndexVotes sends an IndexVotes command to the dcrdaod v1 API.
func (c *Client) IndexVotes(ctx context.Context, module string, proposalID uint64) ([]v1.IndexVote, error) {
	var ivr v1.IndexVotesReply
	err := c.do(ctx, http.MethodGet, v1.RouteIndexVotes,
		v1.IndexVotes{Module: module, ProposalID: proposalID}, &ivr)
	if err != nil {
		return nil, err
	}
	return ivr.Votes, nil
}

// Mint sends a Mint command to the dcrdaod v1 API. This command requires the
// rpc credentials.
func (c *Client) Mint(ctx context.Context, address string, amount v1.Coin) error {
	var mr v1.MintReply
	return c.do(ctx, http.MethodPost, v1.RouteMint,
		v1.Mint{Address: address, Amount: amount}, &mr)
}

// Advance sends an Advance command to the dcrdaod v1 API. This command
// requires the rpc credentials.
func (c *Client) Advance(ctx context.Context, heights, seconds uint64) (*v1.BlockReply, error) {
	var ar v1.AdvanceReply
	err := c.do(ctx, http.MethodPost, v1.RouteAdvance,
		v1.Advance{Heights: heights, Seconds: seconds}, &ar)
	if err != nil {
		return nil, err
	}
	return &ar.Block, nil
}
