// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package core implements the DAO core module. The core module owns the
// treasury, instantiates and registers the voting module and the proposal
// modules, and executes the messages of the proposals that pass.
package core

import (
	"encoding/json"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/pkg/errors"
)

const (
	// Reply IDs
	replyProposalModule       uint64 = 0
	replyVotingModuleInstance uint64 = 1
	replyVotingModuleUpdate   uint64 = 2
)

var (
	_ modules.Module = (*coreModule)(nil)
)

// coreModule implements the modules Module interface for the core module.
type coreModule struct{}

func userErr(e core.ErrorCodeT, format string, args ...interface{}) error {
	return backend.ModuleError{
		ModuleID:     core.ID,
		ErrorCode:    uint32(e),
		ErrorContext: fmt.Sprintf(format, args...),
	}
}

// Instantiate saves the config, the admin and the initial items, and
// instantiates the voting module and the proposal modules. The modules are
// registered when their instantiation replies arrive.
//
// This function satisfies the modules Module interface.
func (m *coreModule) Instantiate(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	log.Tracef("Instantiate: %v", env.Contract)

	var i core.Instantiate
	err := modules.Decode(payload, &i)
	if err != nil {
		return nil, err
	}
	if len(i.ProposalModules) == 0 {
		return nil, userErr(core.ErrorCodeNoActiveProposalModules, "")
	}
	admin := env.Contract
	if i.Admin != "" {
		err = backend.ValidateAddress(i.Admin)
		if err != nil {
			return nil, err
		}
		admin = i.Admin
	}

	err = saveConfig(d.Store, core.Config{
		Name:                  i.Name,
		Description:           i.Description,
		ImageURL:              i.ImageURL,
		AutomaticallyAddCw20s: i.AutomaticallyAddCw20s,
		DaoURI:                i.DaoURI,
	})
	if err != nil {
		return nil, err
	}
	err = saveAdmin(d.Store, admin)
	if err != nil {
		return nil, err
	}
	for _, v := range i.InitialItems {
		err = store.SetJSON(d.Store, prefixItems+v.Key, v.Value)
		if err != nil {
			return nil, err
		}
	}
	err = saveCount(d.Store, keyActiveCount, 0)
	if err != nil {
		return nil, err
	}
	err = saveCount(d.Store, keyTotalCount, 0)
	if err != nil {
		return nil, err
	}

	msgs := make([]modules.SubMsg, 0, len(i.ProposalModules)+1)
	msgs = append(msgs, modules.SubMsgOnSuccess(
		i.VotingModule.Msg(env.Contract), replyVotingModuleInstance))
	for _, v := range i.ProposalModules {
		msgs = append(msgs, modules.SubMsgOnSuccess(v.Msg(env.Contract),
			replyProposalModule))
	}

	log.Infof("DAO %v (%v) instantiated by %v", env.Contract, i.Name,
		info.Sender)

	return modules.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("sender", info.Sender).
		AddSubMessages(msgs...), nil
}

// checkSelf returns an Unauthorized user error if the sender is not the
// core module itself. Self calls are made by the messages of proposals.
func checkSelf(env modules.Env, sender string) error {
	if sender != env.Contract {
		return userErr(core.ErrorCodeUnauthorized, "%v", sender)
	}
	return nil
}

// Execute executes a core module command. No command may be executed while
// the DAO is paused, except for admin messages sent by the admin.
//
// This function satisfies the modules Module interface.
func (m *coreModule) Execute(d modules.Deps, env modules.Env, info modules.Info, cmd, payload string) (*modules.Response, error) {
	log.Tracef("Execute: %v %v %v", env.Contract, info.Sender, cmd)

	paused, err := loadPaused(d.Store, env.Block)
	if err != nil {
		return nil, err
	}
	if paused != nil {
		admin, err := loadAdmin(d.Store)
		if err != nil {
			return nil, err
		}
		if cmd != core.CmdExecuteAdminMsgs || info.Sender != admin {
			return nil, userErr(core.ErrorCodePaused, "until %v", paused)
		}
	}

	switch cmd {
	case core.CmdExecuteAdminMsgs:
		return m.cmdExecuteAdminMsgs(d, info, payload)
	case core.CmdExecuteProposalHook:
		return m.cmdExecuteProposalHook(d, info, payload)
	case core.CmdPause:
		return m.cmdPause(d, env, info, payload)
	case core.CmdUpdateConfig:
		return m.cmdUpdateConfig(d, env, info, payload)
	case core.CmdUpdateVotingModule:
		return m.cmdUpdateVotingModule(env, info, payload)
	case core.CmdUpdateProposalModules:
		return m.cmdUpdateProposalModules(d, env, info, payload)
	case core.CmdSetItem:
		return m.cmdSetItem(d, env, info, payload)
	case core.CmdRemoveItem:
		return m.cmdRemoveItem(d, env, info, payload)
	case core.CmdNominateAdmin:
		return m.cmdNominateAdmin(d, env, info, payload)
	case core.CmdAcceptAdminNomination:
		return m.cmdAcceptAdminNomination(d, info)
	case core.CmdWithdrawAdminNomination:
		return m.cmdWithdrawAdminNomination(d, info)
	case core.CmdUpdateSubDaos:
		return m.cmdUpdateSubDaos(d, env, info, payload)
	case core.CmdUpdateCw20List:
		return m.cmdUpdateCw20List(d, env, info, payload)
	case core.CmdReceive:
		return m.cmdReceive(d, info)
	}

	return nil, backend.ErrCmdInvalid
}

// Query performs a core module query. The voting power queries are
// forwarded to the voting module.
//
// This function satisfies the modules Module interface.
func (m *coreModule) Query(d modules.Deps, env modules.Env, cmd, payload string) (string, error) {
	log.Tracef("Query: %v %v", env.Contract, cmd)

	switch cmd {
	case core.CmdAdmin:
		return m.queryAdmin(d)
	case core.CmdAdminNomination:
		return m.queryAdminNomination(d)
	case core.CmdConfig:
		return m.queryConfig(d)
	case core.CmdDumpState:
		return m.queryDumpState(d, env)
	case core.CmdGetItem:
		return m.queryGetItem(d, payload)
	case core.CmdListItems:
		return m.queryListItems(d, payload)
	case core.CmdProposalModules:
		return m.queryProposalModules(d, payload, false)
	case core.CmdActiveProposalModules:
		return m.queryProposalModules(d, payload, true)
	case core.CmdProposalModuleCount:
		return m.queryProposalModuleCount(d)
	case core.CmdPauseInfo:
		return m.queryPauseInfo(d, env)
	case core.CmdVotingModule:
		return m.queryVotingModule(d)
	case core.CmdListSubDaos:
		return m.queryListSubDaos(d, payload)
	case core.CmdDaoURI:
		return m.queryDaoURI(d)
	case core.CmdCw20List:
		return m.queryCw20List(d, payload)
	case core.CmdCw20Balances:
		return m.queryCw20Balances(d, env, payload)
	case power.CmdVotingPowerAtHeight, power.CmdTotalPowerAtHeight:
		vm, err := loadVotingModule(d.Store)
		if err != nil {
			return "", err
		}
		return d.Querier.Query(vm, cmd, payload)
	case power.CmdInfo:
		return modules.EncodeInfo(core.ID, core.Version)
	}

	return "", backend.ErrCmdInvalid
}

// callbackMsgs returns the messages that an instantiated module asked the
// core module to execute. Data that is not a callback is ignored.
func callbackMsgs(data string) []backend.Msg {
	if data == "" {
		return []backend.Msg{}
	}
	var cb core.ModuleInstantiateCallback
	err := json.Unmarshal([]byte(data), &cb)
	if err != nil || cb.Msgs == nil {
		return []backend.Msg{}
	}
	return cb.Msgs
}

// Reply registers the modules that were instantiated by the core module.
//
// This function satisfies the modules Module interface.
func (m *coreModule) Reply(d modules.Deps, env modules.Env, r modules.Reply) (*modules.Response, error) {
	log.Tracef("Reply: %v %v", env.Contract, r.ID)

	if r.Failed() {
		return nil, errors.Errorf("unexpected failed reply %v: %v",
			r.ID, r.Result.Err)
	}
	addr, ok := r.ContractAddress()
	if !ok && r.ID <= replyVotingModuleUpdate {
		return nil, errors.Errorf("reply %v: no contract address", r.ID)
	}

	switch r.ID {
	case replyProposalModule:
		total, err := loadCount(d.Store, keyTotalCount)
		if err != nil {
			return nil, err
		}
		active, err := loadCount(d.Store, keyActiveCount)
		if err != nil {
			return nil, err
		}
		pm := core.ProposalModule{
			Address: addr,
			Prefix:  proposalModulePrefix(uint64(total)),
			Status:  core.ProposalModuleStatusEnabled,
		}
		err = saveProposalModule(d.Store, pm)
		if err != nil {
			return nil, err
		}
		err = saveCount(d.Store, keyActiveCount, active+1)
		if err != nil {
			return nil, err
		}
		err = saveCount(d.Store, keyTotalCount, total+1)
		if err != nil {
			return nil, err
		}

		log.Debugf("DAO %v: proposal module %v registered as %v",
			env.Contract, addr, pm.Prefix)

		return modules.NewResponse().
			AddAttribute("prop_module", addr).
			AddMessages(callbackMsgs(r.Result.Data)), nil

	case replyVotingModuleInstance:
		current, err := loadVotingModule(d.Store)
		if err != nil {
			return nil, err
		}
		if current != "" {
			return nil, errors.Errorf("multiple voting modules: %v %v",
				current, addr)
		}
		err = store.SetJSON(d.Store, keyVotingModule, addr)
		if err != nil {
			return nil, err
		}

		log.Debugf("DAO %v: voting module %v registered", env.Contract, addr)

		return modules.NewResponse().
			AddAttribute("voting_module", addr).
			AddMessages(callbackMsgs(r.Result.Data)), nil

	case replyVotingModuleUpdate:
		err := store.SetJSON(d.Store, keyVotingModule, addr)
		if err != nil {
			return nil, err
		}

		log.Debugf("DAO %v: voting module updated to %v", env.Contract, addr)

		return modules.NewResponse().
			AddAttribute("voting_module", addr), nil
	}

	return nil, userErr(core.ErrorCodeUnknownReplyID, "%v", r.ID)
}

// New returns the core module code.
func New() modules.Code {
	return modules.Code{
		Name:   core.ID,
		Module: &coreModule{},
	}
}
