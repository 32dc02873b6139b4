// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package prepropose implements the pre-propose module. It takes deposits
// for the proposals that it forwards to its proposal module and returns
// them, or hands them to the DAO, once the proposals complete.
package prepropose

import (
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	hookv1 "github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/prepropose"
	"github.com/pkg/errors"
)

var (
	_ modules.Module = (*preProposeModule)(nil)
)

// preProposeModule implements the modules Module interface for the
// pre-propose module.
type preProposeModule struct{}

func userErr(e prepropose.ErrorCodeT, format string, args ...interface{}) error {
	return backend.ModuleError{
		ModuleID:     prepropose.ID,
		ErrorCode:    uint32(e),
		ErrorContext: fmt.Sprintf(format, args...),
	}
}

// Instantiate saves the proposal module, which is the sender, and the DAO
// of the proposal module.
//
// This function satisfies the modules Module interface.
func (m *preProposeModule) Instantiate(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	log.Tracef("Instantiate: %v", env.Contract)

	var i prepropose.Instantiate
	err := modules.Decode(payload, &i)
	if err != nil {
		return nil, err
	}
	var r power.DaoReply
	err = modules.QueryJSON(d.Querier, info.Sender, power.CmdDao,
		power.Dao{}, &r)
	if err != nil {
		return nil, errors.Wrapf(err, "dao of %v", info.Sender)
	}
	deposit, err := checkDeposit(d.Querier, r.Dao, i.Deposit)
	if err != nil {
		return nil, err
	}

	err = store.SetJSON(d.Store, keyProposalModule, info.Sender)
	if err != nil {
		return nil, err
	}
	err = store.SetJSON(d.Store, keyDao, r.Dao)
	if err != nil {
		return nil, err
	}
	c := prepropose.Config{
		Deposit:                deposit,
		OpenProposalSubmission: i.OpenProposalSubmission,
	}
	err = saveConfig(d.Store, c)
	if err != nil {
		return nil, err
	}

	log.Debugf("Pre-propose module %v instantiated for %v", env.Contract,
		info.Sender)

	return modules.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("proposal_module", info.Sender).
		AddAttribute("deposit_info", depositAttr(deposit)).
		AddAttribute("open_proposal_submission",
			fmt.Sprintf("%v", c.OpenProposalSubmission)).
		AddAttribute("dao", r.Dao), nil
}

// depositAttr returns the attribute value of a deposit.
func depositAttr(d *prepropose.DepositInfo) string {
	if d == nil {
		return "_none"
	}
	return fmt.Sprintf("%v %v %v", d.Amount, d.Denom, d.RefundPolicy)
}

// Execute executes a pre-propose module command.
//
// This function satisfies the modules Module interface.
func (m *preProposeModule) Execute(d modules.Deps, env modules.Env, info modules.Info, cmd, payload string) (*modules.Response, error) {
	log.Tracef("Execute: %v %v %v", env.Contract, info.Sender, cmd)

	switch cmd {
	case prepropose.CmdPropose:
		return m.cmdPropose(d, env, info, payload)
	case prepropose.CmdUpdateConfig:
		return m.cmdUpdateConfig(d, info, payload)
	case prepropose.CmdWithdraw:
		return m.cmdWithdraw(d, env, info, payload)
	case prepropose.CmdAddProposalSubmittedHook:
		return m.cmdAddHook(d, info, payload)
	case prepropose.CmdRemoveProposalSubmittedHook:
		return m.cmdRemoveHook(d, info, payload)
	case hookv1.CmdProposalCompletedHook:
		return m.cmdProposalCompleted(d, info, payload)
	}

	return nil, backend.ErrCmdInvalid
}

// Query performs a pre-propose module query.
//
// This function satisfies the modules Module interface.
func (m *preProposeModule) Query(d modules.Deps, env modules.Env, cmd, payload string) (string, error) {
	log.Tracef("Query: %v %v", env.Contract, cmd)

	switch cmd {
	case prepropose.CmdProposalModule:
		pm, err := loadProposalModule(d.Store)
		if err != nil {
			return "", err
		}
		return modules.EncodeReply(prepropose.ProposalModuleReply{
			ProposalModule: pm,
		})
	case prepropose.CmdDao:
		dao, err := loadDao(d.Store)
		if err != nil {
			return "", err
		}
		return modules.EncodeReply(power.DaoReply{Dao: dao})
	case prepropose.CmdConfig:
		c, err := loadConfig(d.Store)
		if err != nil {
			return "", err
		}
		return modules.EncodeReply(prepropose.ConfigReply{Config: *c})
	case prepropose.CmdDepositInfo:
		return m.queryDepositInfo(d, payload)
	case prepropose.CmdProposalSubmittedHooks:
		hooks, err := submittedHooks.List(d.Store)
		if err != nil {
			return "", err
		}
		return modules.EncodeReply(hookv1.HooksReply{Hooks: hooks})
	case prepropose.CmdInfo:
		return modules.EncodeInfo(prepropose.ID, prepropose.Version)
	}

	return "", backend.ErrCmdInvalid
}

func (m *preProposeModule) queryDepositInfo(d modules.Deps, payload string) (string, error) {
	var q prepropose.DepositInfoQuery
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	dep, err := loadDeposit(d.Store, q.ProposalID)
	if err != nil {
		return "", err
	}
	if dep == nil {
		return "", userErr(prepropose.ErrorCodeNoSuchDeposit, "%v",
			q.ProposalID)
	}
	return modules.EncodeReply(prepropose.DepositInfoReply{
		Deposit:  dep.Deposit,
		Proposer: dep.Proposer,
	})
}

// Reply is not used by the pre-propose module. All of its messages abort
// the command when they fail.
//
// This function satisfies the modules Module interface.
func (m *preProposeModule) Reply(d modules.Deps, env modules.Env, r modules.Reply) (*modules.Response, error) {
	log.Tracef("Reply: %v %v", env.Contract, r.ID)

	return nil, errors.Errorf("unexpected reply %v", r.ID)
}

// New returns the pre-propose module code.
func New() modules.Code {
	return modules.Code{
		Name:   prepropose.ID,
		Module: &preProposeModule{},
	}
}
