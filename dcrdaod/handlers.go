// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"net/http"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/indexer"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/util"
	"github.com/decred/dcrdao/util/version"
)

// decodeBody decodes the JSON request body into v. A user error is returned
// when the body can not be decoded.
func decodeBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		return v1.UserErrorReply{
			ErrorCode:    v1.ErrorCodeInputInvalid,
			ErrorContext: err.Error(),
		}
	}
	return nil
}

// parseParams decodes the query string into v. A user error is returned
// when the query string can not be decoded.
func parseParams(r *http.Request, v interface{}) error {
	if err := util.ParseGetParams(r, v); err != nil {
		return v1.UserErrorReply{
			ErrorCode:    v1.ErrorCodeInputInvalid,
			ErrorContext: err.Error(),
		}
	}
	return nil
}

// handleVersion returns the server version and the current block.
func (d *dcrdaod) handleVersion(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleVersion")

	b, err := d.backend.Block()
	if err != nil {
		d.respondWithError(w, r, "handleVersion: Block: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.VersionReply{
		Version: version.String(),
		Height:  b.Height,
		Time:    b.Time,
	})
}

// handleExecute executes a command on a contract.
func (d *dcrdaod) handleExecute(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleExecute")

	var e v1.Execute
	if err := decodeBody(r, &e); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}
	funds, err := convertCoins(e.Funds)
	if err != nil {
		d.respondWithError(w, r, "", err)
		return
	}

	res, err := d.backend.Execute(e.Sender, backend.ExecuteMsg{
		Contract: e.Contract,
		Cmd:      e.Cmd,
		Payload:  e.Payload,
		Funds:    funds,
	})
	if err != nil {
		d.respondWithError(w, r, "handleExecute: Execute: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.ExecuteReply{
		Events: convertEventsToV1(res.Events),
		Data:   res.Data,
	})
}

// handleInstantiate instantiates a contract from a registered code.
func (d *dcrdaod) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleInstantiate")

	var i v1.Instantiate
	if err := decodeBody(r, &i); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}
	funds, err := convertCoins(i.Funds)
	if err != nil {
		d.respondWithError(w, r, "", err)
		return
	}

	res, err := d.backend.Instantiate(i.Sender, backend.InstantiateMsg{
		CodeID:  i.CodeID,
		Label:   i.Label,
		Admin:   i.Admin,
		Payload: i.Payload,
		Funds:   funds,
	})
	if err != nil {
		d.respondWithError(w, r, "handleInstantiate: Instantiate: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.InstantiateReply{
		Address: res.Address,
		Events:  convertEventsToV1(res.Events),
		Data:    res.Data,
	})
}

// handleQuery performs a read only query on a contract.
func (d *dcrdaod) handleQuery(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleQuery")

	var q v1.Query
	if err := decodeBody(r, &q); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}

	payload, err := d.backend.Query(q.Contract, q.Cmd, q.Payload)
	if err != nil {
		d.respondWithError(w, r, "handleQuery: Query: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.QueryReply{
		Payload: payload,
	})
}

// handleBalance returns the native balance of an address.
func (d *dcrdaod) handleBalance(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBalance")

	var b v1.Balance
	if err := parseParams(r, &b); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}

	amount, err := d.backend.Balance(b.Address, b.Denom)
	if err != nil {
		d.respondWithError(w, r, "handleBalance: Balance: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.BalanceReply{
		Amount: amount.String(),
	})
}

// handleBlock returns the current block.
func (d *dcrdaod) handleBlock(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleBlock")

	b, err := d.backend.Block()
	if err != nil {
		d.respondWithError(w, r, "handleBlock: Block: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, convertBlockToV1(b))
}

// handleCodes returns the registered module implementations.
func (d *dcrdaod) handleCodes(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleCodes")

	codes := d.backend.Codes()
	cr := v1.CodesReply{
		Codes: make([]v1.Code, 0, len(codes)),
	}
	for _, c := range codes {
		cr.Codes = append(cr.Codes, v1.Code{
			CodeID: c.CodeID,
			Name:   c.Name,
		})
	}

	util.RespondWithJSON(w, http.StatusOK, cr)
}

// handleContract returns the info of a contract.
func (d *dcrdaod) handleContract(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleContract")

	var c v1.Contract
	if err := parseParams(r, &c); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}

	ci, err := d.backend.ContractInfo(c.Address)
	if err != nil {
		d.respondWithError(w, r, "handleContract: ContractInfo: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.ContractReply{
		Address: ci.Address,
		CodeID:  ci.CodeID,
		Creator: ci.Creator,
		Admin:   ci.Admin,
		Label:   ci.Label,
	})
}

// handleIndexProposals returns the indexed proposals.
func (d *dcrdaod) handleIndexProposals(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleIndexProposals")

	if d.index == nil {
		d.respondWithUserError(w, r, v1.ErrorCodeIndexDisabled, "")
		return
	}
	var ip v1.IndexProposals
	if err := parseParams(r, &ip); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}
	if ip.Offset < 0 || ip.Limit < 0 {
		d.respondWithUserError(w, r, v1.ErrorCodeInputInvalid,
			"offset and limit must not be negative")
		return
	}

	props, err := d.index.Proposals(indexer.Query{
		Module: ip.Module,
		Status: ip.Status,
		Offset: ip.Offset,
		Limit:  ip.Limit,
	})
	if err != nil {
		d.respondWithError(w, r, "handleIndexProposals: Proposals: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.IndexProposalsReply{
		Proposals: convertProposalsToV1(props),
	})
}

// handleIndexVotes returns the indexed votes of a proposal.
func (d *dcrdaod) handleIndexVotes(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleIndexVotes")

	if d.index == nil {
		d.respondWithUserError(w, r, v1.ErrorCodeIndexDisabled, "")
		return
	}
	var iv v1.IndexVotes
	if err := parseParams(r, &iv); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}

	votes, err := d.index.Votes(iv.Module, iv.ProposalID)
	if err != nil {
		d.respondWithError(w, r, "handleIndexVotes: Votes: %v", err)
		return
	}

	util.RespondWithJSON(w, http.StatusOK, v1.IndexVotesReply{
		Votes: convertVotesToV1(votes),
	})
}

// handleMint credits native funds to an address. This is a privileged
// command.
func (d *dcrdaod) handleMint(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleMint")

	var m v1.Mint
	if err := decodeBody(r, &m); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}
	amount, err := numeric.Uint128FromString(m.Amount.Amount)
	if err != nil {
		d.respondWithUserError(w, r, v1.ErrorCodeCoinsInvalid, err.Error())
		return
	}

	err = d.backend.Mint(m.Address, backend.Coin{
		Denom:  m.Amount.Denom,
		Amount: amount,
	})
	if err != nil {
		d.respondWithError(w, r, "handleMint: Mint: %v", err)
		return
	}

	log.Infof("Minted %v%v to %v", m.Amount.Amount, m.Amount.Denom, m.Address)

	util.RespondWithJSON(w, http.StatusOK, v1.MintReply{})
}

// handleAdvance moves the block clock forward. This is a privileged
// command.
func (d *dcrdaod) handleAdvance(w http.ResponseWriter, r *http.Request) {
	log.Tracef("handleAdvance")

	var a v1.Advance
	if err := decodeBody(r, &a); err != nil {
		d.respondWithError(w, r, "", err)
		return
	}
	if a.Heights == 0 && a.Seconds == 0 {
		d.respondWithUserError(w, r, v1.ErrorCodeInputInvalid,
			"heights or seconds must be provided")
		return
	}

	b, err := d.backend.AdvanceBlock(a.Heights, a.Seconds)
	if err != nil {
		d.respondWithError(w, r, "handleAdvance: AdvanceBlock: %v", err)
		return
	}
	d.metrics.setBlock(*b)

	log.Infof("Advanced to block %v time %v", b.Height, b.Time)

	util.RespondWithJSON(w, http.StatusOK, v1.AdvanceReply{
		Block: convertBlockToV1(*b),
	})
}
