// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package multiple implements the multiple choice proposal module.
package multiple

import (
	"errors"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/dao"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/multiple"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

var (
	_ modules.Module = (*multipleModule)(nil)
)

// multipleModule implements the modules Module interface for the multiple
// choice proposal module.
type multipleModule struct{}

func userErr(e multiple.ErrorCodeT, format string, args ...interface{}) error {
	return backend.ModuleError{
		ModuleID:     multiple.ID,
		ErrorCode:    uint32(e),
		ErrorContext: fmt.Sprintf(format, args...),
	}
}

// votingErrs maps the errors of the voting package to user errors.
var votingErrs = []struct {
	err  error
	code multiple.ErrorCodeT
}{
	{voting.ErrThresholdInvalid, multiple.ErrorCodeInvalidQuorum},
	{voting.ErrUnreachableThreshold, multiple.ErrorCodeUnreachableThreshold},
	{voting.ErrInvalidMinVotingPeriod, multiple.ErrorCodeInvalidMinVotingPeriod},
	{voting.ErrDurationUnitsConflict, multiple.ErrorCodeDurationUnitsConflict},
	{voting.ErrTimelockDurationUnitsMismatch, multiple.ErrorCodeVetoTimelockUnitsMismatch},
	{voting.ErrNoVetoConfiguration, multiple.ErrorCodeNoVetoConfiguration},
	{voting.ErrTimelockExpired, multiple.ErrorCodeTimelockExpired},
	{voting.ErrTimelocked, multiple.ErrorCodeTimelocked},
	{voting.ErrVetoInvalidProposalStatus, multiple.ErrorCodeInvalidProposalStatus},
	{voting.ErrVetoUnauthorized, multiple.ErrorCodeUnauthorized},
	{voting.ErrNoEarlyExecute, multiple.ErrorCodeNoEarlyExecute},
	{voting.ErrNoVetoBeforePassed, multiple.ErrorCodeNoVetoBeforePassed},
	{voting.ErrPreProposeInfoInvalid, multiple.ErrorCodeInvalidPreProposeInfo},
	{voting.ErrVoteInvalid, multiple.ErrorCodeInvalidVote},
	{voting.ErrWrongNumberOfChoices, multiple.ErrorCodeWrongNumberOfChoices},
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
func validateConfig(vs voting.VotingStrategy, max block.Duration, min *block.Duration, veto *voting.VetoConfig) error {
	err := vs.Validate()
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
func updateStatus(p *multiple.Proposal, b block.Info) error {
	minElapsed := true
	if p.MinVotingPeriod != nil {
		minElapsed = p.MinVotingPeriod.IsExpired(b)
	}
	e := voting.MultipleChoiceEvaluation{
		Votes:                  p.Votes,
		Choices:                p.Choices,
		TotalPower:             p.TotalPower,
		Strategy:               p.VotingStrategy,
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
func (m *multipleModule) Instantiate(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	log.Tracef("Instantiate: %v", env.Contract)

	var i multiple.Instantiate
	err := modules.Decode(payload, &i)
	if err != nil {
		return nil, err
	}
	err = validateConfig(i.VotingStrategy, i.MaxVotingPeriod, i.MinVotingPeriod,
		i.Veto)
	if err != nil {
		return nil, err
	}
	policy, msgs, err := i.PreProposeInfo.InitialPolicy(info.Sender)
	if err != nil {
		return nil, votingErr(err)
	}

	err = saveConfig(d.Store, multiple.Config{
		VotingStrategy:                  i.VotingStrategy,
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

	log.Debugf("Multiple choice module %v instantiated by %v", env.Contract,
		info.Sender)

	return modules.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("dao", info.Sender).
		AddSubMessages(preProposeMsgs(msgs)...), nil
}

// Execute executes a multiple choice module command.
//
// This function satisfies the modules Module interface.
func (m *multipleModule) Execute(d modules.Deps, env modules.Env, info modules.Info, cmd, payload string) (*modules.Response, error) {
	log.Tracef("Execute: %v %v %v", env.Contract, info.Sender, cmd)

	switch cmd {
	case multiple.CmdPropose:
		return m.cmdPropose(d, env, info, payload)
	case multiple.CmdVote:
		return m.cmdVote(d, env, info, payload)
	case multiple.CmdUpdateRationale:
		return m.cmdUpdateRationale(d, info, payload)
	case multiple.CmdExecute:
		return m.cmdExecute(d, env, info, payload)
	case multiple.CmdVeto:
		return m.cmdVeto(d, env, info, payload)
	case multiple.CmdClose:
		return m.cmdClose(d, env, info, payload)
	case multiple.CmdUpdateConfig:
		return m.cmdUpdateConfig(d, info, payload)
	case multiple.CmdUpdatePreProposeInfo:
		return m.cmdUpdatePreProposeInfo(d, info, payload)
	case multiple.CmdAddProposalHook:
		return m.cmdAddHook(d, info, payload, proposalHooks)
	case multiple.CmdRemoveProposalHook:
		return m.cmdRemoveHook(d, info, payload, proposalHooks)
	case multiple.CmdAddVoteHook:
		return m.cmdAddHook(d, info, payload, voteHooks)
	case multiple.CmdRemoveVoteHook:
		return m.cmdRemoveHook(d, info, payload, voteHooks)
	}

	return nil, backend.ErrCmdInvalid
}

// Query performs a multiple choice module query.
//
// This function satisfies the modules Module interface.
func (m *multipleModule) Query(d modules.Deps, env modules.Env, cmd, payload string) (string, error) {
	log.Tracef("Query: %v %v", env.Contract, cmd)

	switch cmd {
	case multiple.CmdConfig:
		return m.queryConfig(d)
	case multiple.CmdProposal:
		return m.queryProposal(d, env, payload)
	case multiple.CmdListProposals:
		return m.queryListProposals(d, env, payload)
	case multiple.CmdReverseProposals:
		return m.queryReverseProposals(d, env, payload)
	case multiple.CmdGetVote:
		return m.queryGetVote(d, payload)
	case multiple.CmdListVotes:
		return m.queryListVotes(d, payload)
	case multiple.CmdProposalCount:
		return m.queryProposalCount(d)
	case multiple.CmdNextProposalID:
		return m.queryNextProposalID(d)
	case multiple.CmdProposalCreationPolicy:
		return m.queryCreationPolicy(d)
	case multiple.CmdProposalHooks:
		return m.queryHooks(d, proposalHooks)
	case multiple.CmdVoteHooks:
		return m.queryHooks(d, voteHooks)
	case power.CmdDao:
		return m.queryDao(d)
	case power.CmdInfo:
		return modules.EncodeInfo(multiple.ID, multiple.Version)
	}

	return "", backend.ErrCmdInvalid
}

// Reply handles the replies to failed executions, failed hooks and the
// instantiation of the pre-propose module.
//
// This function satisfies the modules Module interface.
func (m *multipleModule) Reply(d modules.Deps, env modules.Env, r modules.Reply) (*modules.Response, error) {
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

// New returns the multiple choice module code.
func New() modules.Code {
	return modules.Code{
		Name:   multiple.ID,
		Module: &multipleModule{},
	}
}
