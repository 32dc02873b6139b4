// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package proposal implements the single choice proposal module.
package proposal

import (
	"errors"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/dao"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

var (
	_ modules.Module = (*proposalModule)(nil)
)

// proposalModule implements the modules Module interface for the single
// choice proposal module.
type proposalModule struct{}

func userErr(e proposal.ErrorCodeT, format string, args ...interface{}) error {
	return backend.ModuleError{
		ModuleID:     proposal.ID,
		ErrorCode:    uint32(e),
		ErrorContext: fmt.Sprintf(format, args...),
	}
}

// votingErrs maps the errors of the voting package to user errors.
var votingErrs = []struct {
	err  error
	code proposal.ErrorCodeT
}{
	{voting.ErrZeroThreshold, proposal.ErrorCodeInvalidThreshold},
	{voting.ErrThresholdInvalid, proposal.ErrorCodeInvalidThreshold},
	{voting.ErrUnreachableThreshold, proposal.ErrorCodeUnreachableThreshold},
	{voting.ErrInvalidMinVotingPeriod, proposal.ErrorCodeInvalidMinVotingPeriod},
	{voting.ErrDurationUnitsConflict, proposal.ErrorCodeDurationUnitsConflict},
	{voting.ErrTimelockDurationUnitsMismatch, proposal.ErrorCodeVetoTimelockUnitsMismatch},
	{voting.ErrNoVetoConfiguration, proposal.ErrorCodeNoVetoConfiguration},
	{voting.ErrTimelockExpired, proposal.ErrorCodeTimelockExpired},
	{voting.ErrTimelocked, proposal.ErrorCodeTimelocked},
	{voting.ErrVetoInvalidProposalStatus, proposal.ErrorCodeInvalidProposalStatus},
	{voting.ErrVetoUnauthorized, proposal.ErrorCodeUnauthorized},
	{voting.ErrNoEarlyExecute, proposal.ErrorCodeNoEarlyExecute},
	{voting.ErrNoVetoBeforePassed, proposal.ErrorCodeNoVetoBeforePassed},
	{voting.ErrPreProposeInfoInvalid, proposal.ErrorCodeInvalidPreProposeInfo},
	{voting.ErrVoteInvalid, proposal.ErrorCodeInvalidVote},
}

// votingErr converts an error of the voting package into a user error.
// Other errors are returned unchanged.
func votingErr(err error) error {
	for _, v := range votingErrs {
		if errors.Is(err, v.err) {
			return userErr(v.code, "%v", err)
		}
	}
	if errors.Is(err, block.ErrUnitsInvalid) {
		return fmt.Errorf("%w: %v", backend.ErrPayloadInvalid, err)
	}
	return err
}

// validateConfig validates the voting rules of a config.
func validateConfig(t voting.Threshold, max block.Duration, min *block.Duration, veto *voting.VetoConfig) error {
	err := t.Validate()
	if err != nil {
		return votingErr(err)
	}
	err = voting.ValidateVotingPeriod(min, max)
	if err != nil {
		return votingErr(err)
	}
	if veto != nil {
		err = veto.Validate(max)
		if err != nil {
			return votingErr(err)
		}
		err = backend.ValidateAddress(veto.Vetoer)
		if err != nil {
			return err
		}
	}
	return nil
}

// preProposeMsgs returns the sub-messages that instantiate the pre-propose
// module, if any.
func preProposeMsgs(msgs []backend.Msg) []modules.SubMsg {
	sm := make([]modules.SubMsg, 0, len(msgs))
	for _, m := range msgs {
		sm = append(sm, modules.SubMsgOnSuccess(m,
			voting.PreProposeModuleInstantiationID))
	}
	return sm
}

// updateStatus recomputes the status of a proposal at the provided block.
func updateStatus(p *proposal.Proposal, b block.Info) error {
	minElapsed := true
	if p.MinVotingPeriod != nil {
		minElapsed = p.MinVotingPeriod.IsExpired(b)
	}
	e := voting.Evaluation{
		Votes:                  p.Votes,
		TotalPower:             p.TotalPower,
		Threshold:              p.Threshold,
		Expired:                p.Expiration.IsExpired(b),
		MinVotingPeriodElapsed: minElapsed,
		AllowRevoting:          p.AllowRevoting,
	}
	s, err := voting.CurrentStatus(p.Status, b, p.Expiration, p.Veto,
		e.Outcome())
	if err != nil {
		return err
	}
	p.Status = s
	return nil
}

// Instantiate sets up the module config and the proposal creation policy.
// The sender is the DAO.
//
// This function satisfies the modules Module interface.
func (m *proposalModule) Instantiate(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	log.Tracef("Instantiate: %v", env.Contract)

	var i proposal.Instantiate
	err := modules.Decode(payload, &i)
	if err != nil {
		return nil, err
	}
	err = validateConfig(i.Threshold, i.MaxVotingPeriod, i.MinVotingPeriod,
		i.Veto)
	if err != nil {
		return nil, err
	}
	policy, msgs, err := i.PreProposeInfo.InitialPolicy(info.Sender)
	if err != nil {
		return nil, votingErr(err)
	}

	err = saveConfig(d.Store, proposal.Config{
		Threshold:                       i.Threshold,
		MaxVotingPeriod:                 i.MaxVotingPeriod,
		MinVotingPeriod:                 i.MinVotingPeriod,
		OnlyMembersExecute:              i.OnlyMembersExecute,
		AllowRevoting:                   i.AllowRevoting,
		Dao:                             info.Sender,
		CloseProposalOnExecutionFailure: i.CloseProposalOnExecutionFailure,
		Veto:                            i.Veto,
	})
	if err != nil {
		return nil, err
	}
	err = dao.SavePolicy(d.Store, policy)
	if err != nil {
		return nil, err
	}

	log.Debugf("Proposal module %v instantiated by %v", env.Contract,
		info.Sender)

	return modules.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("dao", info.Sender).
		AddSubMessages(preProposeMsgs(msgs)...), nil
}

// Execute executes a proposal module command.
//
// This function satisfies the modules Module interface.
func (m *proposalModule) Execute(d modules.Deps, env modules.Env, info modules.Info, cmd, payload string) (*modules.Response, error) {
	log.Tracef("Execute: %v %v %v", env.Contract, info.Sender, cmd)

	switch cmd {
	case proposal.CmdPropose:
		return m.cmdPropose(d, env, info, payload)
	case proposal.CmdVote:
		return m.cmdVote(d, env, info, payload)
	case proposal.CmdUpdateRationale:
		return m.cmdUpdateRationale(d, info, payload)
	case proposal.CmdExecute:
		return m.cmdExecute(d, env, info, payload)
	case proposal.CmdVeto:
		return m.cmdVeto(d, env, info, payload)
	case proposal.CmdClose:
		return m.cmdClose(d, env, info, payload)
	case proposal.CmdUpdateConfig:
		return m.cmdUpdateConfig(d, info, payload)
	case proposal.CmdUpdatePreProposeInfo:
		return m.cmdUpdatePreProposeInfo(d, info, payload)
	case proposal.CmdAddProposalHook:
		return m.cmdAddHook(d, info, payload, proposalHooks)
	case proposal.CmdRemoveProposalHook:
		return m.cmdRemoveHook(d, info, payload, proposalHooks)
	case proposal.CmdAddVoteHook:
		return m.cmdAddHook(d, info, payload, voteHooks)
	case proposal.CmdRemoveVoteHook:
		return m.cmdRemoveHook(d, info, payload, voteHooks)
	}

	return nil, backend.ErrCmdInvalid
}

// Query performs a proposal module query.
//
// This function satisfies the modules Module interface.
func (m *proposalModule) Query(d modules.Deps, env modules.Env, cmd, payload string) (string, error) {
	log.Tracef("Query: %v %v", env.Contract, cmd)

	switch cmd {
	case proposal.CmdConfig:
		return m.queryConfig(d)
	case proposal.CmdProposal:
		return m.queryProposal(d, env, payload)
	case proposal.CmdListProposals:
		return m.queryListProposals(d, env, payload)
	case proposal.CmdReverseProposals:
		return m.queryReverseProposals(d, env, payload)
	case proposal.CmdGetVote:
		return m.queryGetVote(d, payload)
	case proposal.CmdListVotes:
		return m.queryListVotes(d, payload)
	case proposal.CmdProposalCount:
		return m.queryProposalCount(d)
	case proposal.CmdNextProposalID:
		return m.queryNextProposalID(d)
	case proposal.CmdProposalCreationPolicy:
		return m.queryCreationPolicy(d)
	case proposal.CmdProposalHooks:
		return m.queryHooks(d, proposalHooks)
	case proposal.CmdVoteHooks:
		return m.queryHooks(d, voteHooks)
	case power.CmdDao:
		return m.queryDao(d)
	case power.CmdInfo:
		return modules.EncodeInfo(proposal.ID, proposal.Version)
	}

	return "", backend.ErrCmdInvalid
}

// Reply handles the replies to failed executions, failed hooks and the
// instantiation of the pre-propose module.
//
// This function satisfies the modules Module interface.
func (m *proposalModule) Reply(d modules.Deps, env modules.Env, r modules.Reply) (*modules.Response, error) {
	log.Tracef("Reply: %v %v", env.Contract, r.ID)

	return dao.Reply(d.Store, r, proposalHooks, voteHooks,
		func(id uint64) error {
			return executionFailed(d.Store, id)
		})
}

// executionFailed marks a proposal whose messages failed to execute.
func executionFailed(s store.KVStore, id uint64) error {
	p, err := loadProposal(s, id)
	if err != nil {
		return err
	}
	p.Status = voting.NewStatus(voting.StatusExecutionFailed)
	_, err = saveProposal(s, id, *p)
	return err
}

// New returns the proposal module code.
func New() modules.Code {
	return modules.Code{
		Name:   proposal.ID,
		Module: &proposalModule{},
	}
}
