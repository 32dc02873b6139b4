// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

import (
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
)

func (m *coreModule) cmdExecuteAdminMsgs(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var e core.ExecuteAdminMsgs
	err := modules.Decode(payload, &e)
	if err != nil {
		return nil, err
	}
	admin, err := loadAdmin(d.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != admin {
		return nil, userErr(core.ErrorCodeUnauthorized, "%v is not the admin",
			info.Sender)
	}
	return modules.NewResponse().
		AddAttribute("action", "execute_admin_msgs").
		AddMessages(e.Msgs), nil
}

func (m *coreModule) cmdExecuteProposalHook(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var e core.ExecuteProposalHook
	err := modules.Decode(payload, &e)
	if err != nil {
		return nil, err
	}
	pm, err := loadProposalModule(d.Store, info.Sender)
	if err != nil {
		return nil, err
	}
	if pm == nil {
		return nil, userErr(core.ErrorCodeUnauthorized,
			"%v is not a proposal module", info.Sender)
	}
	if pm.Status != core.ProposalModuleStatusEnabled {
		return nil, userErr(core.ErrorCodeModuleDisabledCannotExecute, "%v",
			info.Sender)
	}

	log.Debugf("Executing %v messages of proposal module %v", len(e.Msgs),
		info.Sender)

	return modules.NewResponse().
		AddAttribute("action", "execute_proposal_hook").
		AddMessages(e.Msgs), nil
}

func (m *coreModule) cmdPause(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var p core.Pause
	err := modules.Decode(payload, &p)
	if err != nil {
		return nil, err
	}
	if info.Sender != env.Contract {
		admin, err := loadAdmin(d.Store)
		if err != nil {
			return nil, err
		}
		if info.Sender != admin {
			return nil, userErr(core.ErrorCodeUnauthorized, "%v",
				info.Sender)
		}
	}
	err = p.Duration.Validate()
	if err != nil || p.Duration.IsZero() {
		return nil, userErr(core.ErrorCodeInvalidDuration, "%v", p.Duration)
	}
	until := p.Duration.After(env.Block)
	err = store.SetJSON(d.Store, keyPaused, until)
	if err != nil {
		return nil, err
	}

	log.Infof("DAO %v paused until %v", env.Contract, until)

	return modules.NewResponse().
		AddAttribute("action", "execute_pause").
		AddAttribute("sender", info.Sender).
		AddAttribute("until", until.String()), nil
}

func (m *coreModule) cmdUpdateConfig(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var u core.UpdateConfig
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	err = checkSelf(env, info.Sender)
	if err != nil {
		return nil, err
	}
	err = saveConfig(d.Store, u.Config)
	if err != nil {
		return nil, err
	}
	imageURL := u.Config.ImageURL
	if imageURL == "" {
		imageURL = "None"
	}
	return modules.NewResponse().
		AddAttribute("action", "execute_update_config").
		AddAttribute("name", u.Config.Name).
		AddAttribute("description", u.Config.Description).
		AddAttribute("image_url", imageURL), nil
}

func (m *coreModule) cmdUpdateVotingModule(env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var u core.UpdateVotingModule
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	err = checkSelf(env, info.Sender)
	if err != nil {
		return nil, err
	}
	return modules.NewResponse().
		AddAttribute("action", "execute_update_voting_module").
		AddSubMessages(modules.SubMsgOnSuccess(u.Module.Msg(env.Contract),
			replyVotingModuleUpdate)), nil
}

func (m *coreModule) cmdUpdateProposalModules(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var u core.UpdateProposalModules
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	err = checkSelf(env, info.Sender)
	if err != nil {
		return nil, err
	}

	for _, addr := range u.ToDisable {
		err = backend.ValidateAddress(addr)
		if err != nil {
			return nil, err
		}
		pm, err := loadProposalModule(d.Store, addr)
		if err != nil {
			return nil, err
		}
		if pm == nil {
			return nil, userErr(core.ErrorCodeProposalModuleDoesNotExist,
				"%v", addr)
		}
		if pm.Status == core.ProposalModuleStatusDisabled {
			return nil, userErr(core.ErrorCodeModuleAlreadyDisabled, "%v",
				addr)
		}
		pm.Status = core.ProposalModuleStatusDisabled
		err = saveProposalModule(d.Store, *pm)
		if err != nil {
			return nil, err
		}
	}

	// The new modules are only counted once their replies arrive, so
	// adding a module always keeps the DAO usable.
	active, err := loadCount(d.Store, keyActiveCount)
	if err != nil {
		return nil, err
	}
	disabled := uint32(len(u.ToDisable))
	if active <= disabled && len(u.ToAdd) == 0 {
		return nil, userErr(core.ErrorCodeNoActiveProposalModules, "")
	}
	err = saveCount(d.Store, keyActiveCount, active-disabled)
	if err != nil {
		return nil, err
	}

	msgs := make([]modules.SubMsg, 0, len(u.ToAdd))
	for _, v := range u.ToAdd {
		msgs = append(msgs, modules.SubMsgOnSuccess(v.Msg(env.Contract),
			replyProposalModule))
	}
	return modules.NewResponse().
		AddAttribute("action", "execute_update_proposal_modules").
		AddSubMessages(msgs...), nil
}

func (m *coreModule) cmdSetItem(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var s core.SetItem
	err := modules.Decode(payload, &s)
	if err != nil {
		return nil, err
	}
	err = checkSelf(env, info.Sender)
	if err != nil {
		return nil, err
	}
	err = store.SetJSON(d.Store, prefixItems+s.Key, s.Value)
	if err != nil {
		return nil, err
	}
	return modules.NewResponse().
		AddAttribute("action", "execute_set_item").
		AddAttribute("key", s.Key).
		AddAttribute("addr", s.Value), nil
}

func (m *coreModule) cmdRemoveItem(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var r core.RemoveItem
	err := modules.Decode(payload, &r)
	if err != nil {
		return nil, err
	}
	err = checkSelf(env, info.Sender)
	if err != nil {
		return nil, err
	}
	ok, err := store.Has(d.Store, prefixItems+r.Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, userErr(core.ErrorCodeKeyMissing, "%v", r.Key)
	}
	d.Store.Delete(prefixItems + r.Key)
	return modules.NewResponse().
		AddAttribute("action", "execute_remove_item").
		AddAttribute("key", r.Key), nil
}

func (m *coreModule) cmdNominateAdmin(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var n core.NominateAdmin
	err := modules.Decode(payload, &n)
	if err != nil {
		return nil, err
	}
	if n.Admin != nil {
		err = backend.ValidateAddress(*n.Admin)
		if err != nil {
			return nil, err
		}
	}
	admin, err := loadAdmin(d.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != admin {
		return nil, userErr(core.ErrorCodeUnauthorized, "%v is not the admin",
			info.Sender)
	}
	pending, err := loadNomination(d.Store)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, userErr(core.ErrorCodePendingNomination, "%v", *pending)
	}

	// Without a nominee the admin is returned to the DAO, which may set a
	// new admin through governance.
	nomination := "None"
	if n.Admin != nil {
		nomination = *n.Admin
		err = store.SetJSON(d.Store, keyNomination, *n.Admin)
	} else {
		err = saveAdmin(d.Store, env.Contract)
	}
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "execute_nominate_admin").
		AddAttribute("nomination", nomination), nil
}

func (m *coreModule) cmdAcceptAdminNomination(d modules.Deps, info modules.Info) (*modules.Response, error) {
	pending, err := loadNomination(d.Store)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, userErr(core.ErrorCodeNoAdminNomination, "")
	}
	if info.Sender != *pending {
		return nil, userErr(core.ErrorCodeUnauthorized, "%v is not the "+
			"nominee", info.Sender)
	}
	d.Store.Delete(keyNomination)
	err = saveAdmin(d.Store, *pending)
	if err != nil {
		return nil, err
	}

	log.Debugf("New admin %v", info.Sender)

	return modules.NewResponse().
		AddAttribute("action", "execute_accept_admin_nomination").
		AddAttribute("new_admin", info.Sender), nil
}

func (m *coreModule) cmdWithdrawAdminNomination(d modules.Deps, info modules.Info) (*modules.Response, error) {
	admin, err := loadAdmin(d.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != admin {
		return nil, userErr(core.ErrorCodeUnauthorized, "%v is not the admin",
			info.Sender)
	}
	pending, err := loadNomination(d.Store)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, userErr(core.ErrorCodeNoAdminNomination, "")
	}
	d.Store.Delete(keyNomination)

	return modules.NewResponse().
		AddAttribute("action", "execute_withdraw_admin_nomination").
		AddAttribute("sender", info.Sender), nil
}

func (m *coreModule) cmdUpdateSubDaos(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var u core.UpdateSubDaos
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	err = checkSelf(env, info.Sender)
	if err != nil {
		return nil, err
	}
	for _, addr := range u.ToRemove {
		err = backend.ValidateAddress(addr)
		if err != nil {
			return nil, err
		}
		d.Store.Delete(prefixSubDaos + addr)
	}
	for _, v := range u.ToAdd {
		err = backend.ValidateAddress(v.Addr)
		if err != nil {
			return nil, err
		}
		err = store.SetJSON(d.Store, prefixSubDaos+v.Addr, v.Charter)
		if err != nil {
			return nil, err
		}
	}
	return modules.NewResponse().
		AddAttribute("action", "execute_update_sub_daos_list").
		AddAttribute("sender", info.Sender), nil
}

func (m *coreModule) cmdUpdateCw20List(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var u core.UpdateCw20List
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	err = checkSelf(env, info.Sender)
	if err != nil {
		return nil, err
	}
	for _, addr := range u.ToRemove {
		err = backend.ValidateAddress(addr)
		if err != nil {
			return nil, err
		}
	}
	for _, addr := range u.ToAdd {
		err = backend.ValidateAddress(addr)
		if err != nil {
			return nil, err
		}
		// The balance query is the query that the balances query
		// performs.
		var r token.BalanceReply
		err = modules.QueryJSON(d.Querier, addr, token.CmdBalance,
			token.BalanceQuery{Address: env.Contract}, &r)
		if err != nil {
			return nil, userErr(core.ErrorCodeInvalidCw20, "%v: %v", addr,
				err)
		}
		err = store.SetJSON(d.Store, prefixCw20s+addr, struct{}{})
		if err != nil {
			return nil, err
		}
	}
	for _, addr := range u.ToRemove {
		d.Store.Delete(prefixCw20s + addr)
	}
	return modules.NewResponse().
		AddAttribute("action", "update_cw20_list"), nil
}

// cmdReceive is executed by token modules when tokens are sent to the DAO.
// The token is added to the token list if the DAO adds tokens
// automatically.
func (m *coreModule) cmdReceive(d modules.Deps, info modules.Info) (*modules.Response, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	if !c.AutomaticallyAddCw20s {
		return modules.NewResponse(), nil
	}
	err = store.SetJSON(d.Store, prefixCw20s+info.Sender, struct{}{})
	if err != nil {
		return nil, err
	}
	return modules.NewResponse().
		AddAttribute("action", "receive_cw20").
		AddAttribute("token", info.Sender), nil
}
