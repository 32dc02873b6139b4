// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package proposal

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/dao"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
	hookv1 "github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

// checkDao returns an Unauthorized user error if the sender is not the DAO.
func checkDao(c *proposal.Config, sender string) error {
	if sender != c.Dao {
		return userErr(proposal.ErrorCodeUnauthorized,
			"%v is not the dao", sender)
	}
	return nil
}

// rationaleAttr returns the attribute value of a rationale.
func rationaleAttr(r *string) string {
	if r == nil {
		return "_none"
	}
	return *r
}

// statusHooks returns the status changed hooks and, if the proposal reached
// a final status, the completed hook of the pre-propose module.
func statusHooks(d modules.Deps, id uint64, from, to voting.StatusT) ([]modules.SubMsg, error) {
	msgs, err := hooks.ProposalStatusChangedHooks(d.Store, proposalHooks,
		id, from, to)
	if err != nil {
		return nil, err
	}
	if !to.IsFinal() {
		return msgs, nil
	}
	policy, err := dao.LoadPolicy(d.Store)
	if err != nil {
		return nil, err
	}
	completed, err := hooks.ProposalCompletedHook(*policy, id, to)
	if err != nil {
		return nil, err
	}
	return append(msgs, completed...), nil
}

// votable returns whether votes may still be cast on a proposal with the
// provided status. Decided proposals accept votes until they expire.
func votable(s voting.StatusT) bool {
	switch s {
	case voting.StatusOpen, voting.StatusPassed, voting.StatusRejected:
		return true
	}
	return false
}

func (m *proposalModule) cmdPropose(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var p proposal.Propose
	err := modules.Decode(payload, &p)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}

	// Verify the proposer
	policy, err := dao.LoadPolicy(d.Store)
	if err != nil {
		return nil, err
	}
	proposer, err := dao.Proposer(*policy, info.Sender, p.Proposer)
	switch {
	case errors.Is(err, dao.ErrNotPermitted):
		return nil, userErr(proposal.ErrorCodeUnauthorized, "%v", err)
	case errors.Is(err, dao.ErrInvalidProposer):
		return nil, userErr(proposal.ErrorCodeInvalidProposer, "")
	case err != nil:
		return nil, err
	}
	err = backend.ValidateAddress(proposer)
	if err != nil {
		return nil, err
	}
	active, err := dao.IsActive(d.Querier, c.Dao)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, userErr(proposal.ErrorCodeInactiveDao, "")
	}
	for _, v := range p.Msgs {
		err = v.Validate()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", backend.ErrPayloadInvalid, err)
		}
	}

	total, err := dao.TotalPower(d.Querier, c.Dao, env.Block.Height)
	if err != nil {
		return nil, err
	}
	var minVotingPeriod *block.Expiration
	if c.MinVotingPeriod != nil {
		e := c.MinVotingPeriod.After(env.Block)
		minVotingPeriod = &e
	}
	msgs := p.Msgs
	if msgs == nil {
		msgs = []backend.Msg{}
	}
	prop := proposal.Proposal{
		Title:           p.Title,
		Description:     p.Description,
		Proposer:        proposer,
		StartHeight:     env.Block.Height,
		MinVotingPeriod: minVotingPeriod,
		Expiration:      c.MaxVotingPeriod.After(env.Block),
		Threshold:       c.Threshold,
		TotalPower:      total,
		Msgs:            msgs,
		Status:          voting.NewStatus(voting.StatusOpen),
		Veto:            c.Veto,
		AllowRevoting:   c.AllowRevoting,
	}
	err = updateStatus(&prop, env.Block)
	if err != nil {
		return nil, err
	}

	id, err := dao.AdvanceProposalID(d.Store)
	if err != nil {
		return nil, err
	}
	size, err := saveProposal(d.Store, id, prop)
	if err != nil {
		return nil, err
	}
	if size > proposal.MaxProposalSize {
		return nil, userErr(proposal.ErrorCodeProposalTooLarge,
			"size %v, max %v", size, proposal.MaxProposalSize)
	}

	msgsHooks, err := hooks.NewProposalHooks(d.Store, proposalHooks, id,
		proposer)
	if err != nil {
		return nil, err
	}

	log.Debugf("Proposal %v created by %v", id, proposer)

	resp := modules.NewResponse().
		AddAttribute("action", "propose").
		AddAttribute("sender", info.Sender).
		AddAttribute("proposer", proposer).
		AddAttribute("proposal_id", strconv.FormatUint(id, 10)).
		AddAttribute("status", prop.Status.Type.String()).
		AddSubMessages(msgsHooks...)
	err = resp.SetData(proposal.ProposeReply{ProposalID: id})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *proposalModule) cmdVote(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var v proposal.Vote
	err := modules.Decode(payload, &v)
	if err != nil {
		return nil, err
	}
	if _, ok := voting.VoteOptions[v.Vote]; !ok || v.Vote == voting.VoteInvalid {
		return nil, userErr(proposal.ErrorCodeInvalidVote, "%v", v.Vote)
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	prop, err := loadProposal(d.Store, v.ProposalID)
	if err != nil {
		return nil, err
	}
	if prop.Expiration.IsExpired(env.Block) {
		return nil, userErr(proposal.ErrorCodeExpired, "%v", v.ProposalID)
	}
	if !votable(prop.Status.Type) {
		return nil, userErr(proposal.ErrorCodeNotOpen, "%v is %v",
			v.ProposalID, prop.Status.Type)
	}
	pw, err := dao.VotingPower(d.Querier, c.Dao, info.Sender,
		prop.StartHeight)
	if err != nil {
		return nil, err
	}
	if pw.IsZero() {
		return nil, userErr(proposal.ErrorCodeNotRegistered, "%v",
			info.Sender)
	}

	// Remove the previous vote of a revote
	b, err := loadBallot(d.Store, v.ProposalID, info.Sender)
	if err != nil {
		return nil, err
	}
	if b != nil {
		switch {
		case !prop.AllowRevoting:
			return nil, userErr(proposal.ErrorCodeAlreadyVoted, "")
		case b.Vote == v.Vote:
			return nil, userErr(proposal.ErrorCodeAlreadyCast, "%v",
				v.Vote)
		}
		err = prop.Votes.Remove(b.Vote, b.Power)
		if err != nil {
			return nil, err
		}
	}
	err = saveBallot(d.Store, v.ProposalID, info.Sender, proposal.Ballot{
		Power:     pw,
		Vote:      v.Vote,
		Rationale: v.Rationale,
	})
	if err != nil {
		return nil, err
	}

	old := prop.Status.Type
	err = prop.Votes.Add(v.Vote, pw)
	if err != nil {
		return nil, err
	}
	err = updateStatus(prop, env.Block)
	if err != nil {
		return nil, err
	}
	_, err = saveProposal(d.Store, v.ProposalID, *prop)
	if err != nil {
		return nil, err
	}

	changed, err := hooks.ProposalStatusChangedHooks(d.Store, proposalHooks,
		v.ProposalID, old, prop.Status.Type)
	if err != nil {
		return nil, err
	}
	voted, err := hooks.NewVoteHooks(d.Store, voteHooks, v.ProposalID,
		info.Sender, v.Vote.String())
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "vote").
		AddAttribute("sender", info.Sender).
		AddAttribute("proposal_id", strconv.FormatUint(v.ProposalID, 10)).
		AddAttribute("position", v.Vote.String()).
		AddAttribute("power", pw.String()).
		AddAttribute("rationale", rationaleAttr(v.Rationale)).
		AddAttribute("status", prop.Status.Type.String()).
		AddSubMessages(changed...).
		AddSubMessages(voted...), nil
}

func (m *proposalModule) cmdUpdateRationale(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var u proposal.UpdateRationale
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	b, err := loadBallot(d.Store, u.ProposalID, info.Sender)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, userErr(proposal.ErrorCodeNoSuchVote, "%v %v",
			u.ProposalID, info.Sender)
	}
	b.Rationale = u.Rationale
	err = saveBallot(d.Store, u.ProposalID, info.Sender, *b)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "update_rationale").
		AddAttribute("sender", info.Sender).
		AddAttribute("proposal_id", strconv.FormatUint(u.ProposalID, 10)).
		AddAttribute("rationale", rationaleAttr(u.Rationale)), nil
}

// checkMember returns an Unauthorized user error if members execute is
// enabled and the sender had no voting power at the proposal start height.
func checkMember(d modules.Deps, c *proposal.Config, prop *proposal.Proposal, sender string) error {
	if !c.OnlyMembersExecute {
		return nil
	}
	pw, err := dao.VotingPower(d.Querier, c.Dao, sender, prop.StartHeight)
	if err != nil {
		return err
	}
	if pw.IsZero() {
		return userErr(proposal.ErrorCodeUnauthorized,
			"%v is not a member", sender)
	}
	return nil
}

func (m *proposalModule) cmdExecute(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var e proposal.Execute
	err := modules.Decode(payload, &e)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	prop, err := loadProposal(d.Store, e.ProposalID)
	if err != nil {
		return nil, err
	}
	err = updateStatus(prop, env.Block)
	if err != nil {
		return nil, err
	}

	switch prop.Status.Type {
	case voting.StatusPassed:
		err = checkMember(d, c, prop, info.Sender)
		if err != nil {
			return nil, err
		}
	case voting.StatusVetoTimelock:
		if prop.Veto == nil {
			return nil, userErr(proposal.ErrorCodeNoVetoConfiguration, "")
		}
		if prop.Veto.CheckIsVetoer(info.Sender) != nil {
			err = checkMember(d, c, prop, info.Sender)
			if err != nil {
				return nil, err
			}
			return nil, votingErr(voting.ErrTimelocked)
		}
		err = prop.Veto.CheckEarlyExecuteEnabled()
		if err != nil {
			return nil, votingErr(err)
		}
	default:
		return nil, userErr(proposal.ErrorCodeNotPassed, "%v is %v",
			e.ProposalID, prop.Status.Type)
	}

	old := prop.Status.Type
	prop.Status = voting.NewStatus(voting.StatusExecuted)
	_, err = saveProposal(d.Store, e.ProposalID, *prop)
	if err != nil {
		return nil, err
	}

	resp := modules.NewResponse().
		AddAttribute("action", "execute").
		AddAttribute("sender", info.Sender).
		AddAttribute("proposal_id", strconv.FormatUint(e.ProposalID, 10)).
		AddAttribute("dao", c.Dao)
	if len(prop.Msgs) > 0 {
		msg, err := modules.ExecuteMsg(c.Dao, core.CmdExecuteProposalHook,
			core.ExecuteProposalHook{Msgs: prop.Msgs})
		if err != nil {
			return nil, err
		}
		if c.CloseProposalOnExecutionFailure {
			resp.AddSubMessages(modules.SubMsgOnError(msg,
				voting.MaskProposalExecutionID(e.ProposalID)))
		} else {
			resp.AddMessage(msg)
		}
	}
	h, err := statusHooks(d, e.ProposalID, old, prop.Status.Type)
	if err != nil {
		return nil, err
	}

	log.Debugf("Proposal %v executed by %v", e.ProposalID, info.Sender)

	return resp.AddSubMessages(h...), nil
}

func (m *proposalModule) cmdVeto(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var v proposal.Veto
	err := modules.Decode(payload, &v)
	if err != nil {
		return nil, err
	}
	prop, err := loadProposal(d.Store, v.ProposalID)
	if err != nil {
		return nil, err
	}
	err = updateStatus(prop, env.Block)
	if err != nil {
		return nil, err
	}
	err = voting.CheckVeto(prop.Veto, prop.Status, env.Block, info.Sender)
	if err != nil {
		return nil, votingErr(err)
	}

	old := prop.Status.Type
	prop.Status = voting.NewStatus(voting.StatusVetoed)
	_, err = saveProposal(d.Store, v.ProposalID, *prop)
	if err != nil {
		return nil, err
	}
	h, err := statusHooks(d, v.ProposalID, old, prop.Status.Type)
	if err != nil {
		return nil, err
	}

	log.Debugf("Proposal %v vetoed by %v", v.ProposalID, info.Sender)

	return modules.NewResponse().
		AddAttribute("action", "veto").
		AddAttribute("proposal_id", strconv.FormatUint(v.ProposalID, 10)).
		AddSubMessages(h...), nil
}

func (m *proposalModule) cmdClose(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var cl proposal.Close
	err := modules.Decode(payload, &cl)
	if err != nil {
		return nil, err
	}
	prop, err := loadProposal(d.Store, cl.ProposalID)
	if err != nil {
		return nil, err
	}
	err = updateStatus(prop, env.Block)
	if err != nil {
		return nil, err
	}
	if prop.Status.Type != voting.StatusRejected {
		return nil, userErr(proposal.ErrorCodeWrongCloseStatus, "%v is %v",
			cl.ProposalID, prop.Status.Type)
	}

	old := prop.Status.Type
	prop.Status = voting.NewStatus(voting.StatusClosed)
	_, err = saveProposal(d.Store, cl.ProposalID, *prop)
	if err != nil {
		return nil, err
	}
	h, err := statusHooks(d, cl.ProposalID, old, prop.Status.Type)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "close").
		AddAttribute("sender", info.Sender).
		AddAttribute("proposal_id", strconv.FormatUint(cl.ProposalID, 10)).
		AddSubMessages(h...), nil
}

func (m *proposalModule) cmdUpdateConfig(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var u proposal.UpdateConfig
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	err = checkDao(c, info.Sender)
	if err != nil {
		return nil, err
	}
	err = validateConfig(u.Threshold, u.MaxVotingPeriod, u.MinVotingPeriod,
		u.Veto)
	if err != nil {
		return nil, err
	}
	err = backend.ValidateAddress(u.Dao)
	if err != nil {
		return nil, err
	}

	err = saveConfig(d.Store, proposal.Config{
		Threshold:                       u.Threshold,
		MaxVotingPeriod:                 u.MaxVotingPeriod,
		MinVotingPeriod:                 u.MinVotingPeriod,
		OnlyMembersExecute:              u.OnlyMembersExecute,
		AllowRevoting:                   u.AllowRevoting,
		Dao:                             u.Dao,
		CloseProposalOnExecutionFailure: u.CloseProposalOnExecutionFailure,
		Veto:                            u.Veto,
	})
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "update_config").
		AddAttribute("sender", info.Sender), nil
}

func (m *proposalModule) cmdUpdatePreProposeInfo(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var u proposal.UpdatePreProposeInfo
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	err = checkDao(c, info.Sender)
	if err != nil {
		return nil, err
	}
	policy, msgs, err := u.Info.InitialPolicy(c.Dao)
	if err != nil {
		return nil, votingErr(err)
	}
	err = dao.SavePolicy(d.Store, policy)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "update_proposal_creation_policy").
		AddAttribute("sender", info.Sender).
		AddSubMessages(preProposeMsgs(msgs)...), nil
}

func (m *proposalModule) cmdAddHook(d modules.Deps, info modules.Info, payload string, h hooks.Hooks) (*modules.Response, error) {
	var hk hookv1.Hook
	err := modules.Decode(payload, &hk)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	err = checkDao(c, info.Sender)
	if err != nil {
		return nil, err
	}
	err = h.Add(d.Store, hk.Address)
	if err != nil {
		return nil, err
	}
	return modules.NewResponse().
		AddAttribute("action", "add_hook").
		AddAttribute("address", hk.Address), nil
}

func (m *proposalModule) cmdRemoveHook(d modules.Deps, info modules.Info, payload string, h hooks.Hooks) (*modules.Response, error) {
	var hk hookv1.Hook
	err := modules.Decode(payload, &hk)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	err = checkDao(c, info.Sender)
	if err != nil {
		return nil, err
	}
	err = h.Remove(d.Store, hk.Address)
	if err != nil {
		return nil, err
	}
	return modules.NewResponse().
		AddAttribute("action", "remove_hook").
		AddAttribute("address", hk.Address), nil
}
