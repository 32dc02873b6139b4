// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

import (
	"errors"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
)

func (m *coreModule) queryAdmin(d modules.Deps) (string, error) {
	admin, err := loadAdmin(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.AdminReply{Admin: admin})
}

func (m *coreModule) queryAdminNomination(d modules.Deps) (string, error) {
	n, err := loadNomination(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.AdminNominationReply{Nomination: n})
}

func (m *coreModule) queryConfig(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.ConfigReply{Config: *c})
}

func pauseInfo(d modules.Deps, env modules.Env) (*core.PauseInfoReply, error) {
	e, err := loadPaused(d.Store, env.Block)
	if err != nil {
		return nil, err
	}
	return &core.PauseInfoReply{
		Paused:     e != nil,
		Expiration: e,
	}, nil
}

func (m *coreModule) queryPauseInfo(d modules.Deps, env modules.Env) (string, error) {
	p, err := pauseInfo(d, env)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(*p)
}

func (m *coreModule) queryDumpState(d modules.Deps, env modules.Env) (string, error) {
	admin, err := loadAdmin(d.Store)
	if err != nil {
		return "", err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	vm, err := loadVotingModule(d.Store)
	if err != nil {
		return "", err
	}
	mods, err := listProposalModules(d.Store, "", 0, false)
	if err != nil {
		return "", err
	}
	p, err := pauseInfo(d, env)
	if err != nil {
		return "", err
	}
	active, err := loadCount(d.Store, keyActiveCount)
	if err != nil {
		return "", err
	}
	total, err := loadCount(d.Store, keyTotalCount)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.DumpStateReply{
		Admin:  admin,
		Config: *c,
		Version: backend.ContractVersion{
			Contract: core.ID,
			Version:  core.Version,
		},
		PauseInfo:                 *p,
		ProposalModules:           mods,
		VotingModule:              vm,
		ActiveProposalModuleCount: active,
		TotalProposalModuleCount:  total,
	})
}

func (m *coreModule) queryGetItem(d modules.Deps, payload string) (string, error) {
	var q core.GetItem
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	var (
		v     string
		reply core.GetItemReply
	)
	err = store.GetJSON(d.Store, prefixItems+q.Key, &v)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return "", err
	default:
		reply.Item = &v
	}
	return modules.EncodeReply(reply)
}

func (m *coreModule) queryListItems(d modules.Deps, payload string) (string, error) {
	var q core.ListItems
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	items, err := listItems(d.Store, q.StartAfter,
		modules.PageLimit(q.Limit, core.DefaultLimit, core.MaxLimit))
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.ListItemsReply{Items: items})
}

// queryProposalModules returns a page of proposal modules. All enabled
// modules are returned by the active modules query when no limit is
// provided.
func (m *coreModule) queryProposalModules(d modules.Deps, payload string, enabledOnly bool) (string, error) {
	var q core.ProposalModules
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	var limit int
	if !enabledOnly || q.Limit != 0 {
		limit = modules.PageLimit(q.Limit, core.DefaultLimit, core.MaxLimit)
	}
	mods, err := listProposalModules(d.Store, q.StartAfter, limit,
		enabledOnly)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.ProposalModulesReply{Modules: mods})
}

func (m *coreModule) queryProposalModuleCount(d modules.Deps) (string, error) {
	active, err := loadCount(d.Store, keyActiveCount)
	if err != nil {
		return "", err
	}
	total, err := loadCount(d.Store, keyTotalCount)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.ProposalModuleCountReply{
		Active: active,
		Total:  total,
	})
}

func (m *coreModule) queryVotingModule(d modules.Deps) (string, error) {
	vm, err := loadVotingModule(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.VotingModuleReply{Address: vm})
}

func (m *coreModule) queryListSubDaos(d modules.Deps, payload string) (string, error) {
	var q core.ListSubDaos
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	subDaos, err := listSubDaos(d.Store, q.StartAfter,
		modules.PageLimit(q.Limit, core.DefaultLimit, core.MaxLimit))
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.ListSubDaosReply{SubDaos: subDaos})
}

func (m *coreModule) queryDaoURI(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.DaoURIReply{DaoURI: c.DaoURI})
}

func (m *coreModule) queryCw20List(d modules.Deps, payload string) (string, error) {
	var q core.Cw20List
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	tokens, err := listCw20s(d.Store, q.StartAfter,
		modules.PageLimit(q.Limit, core.DefaultLimit, core.MaxLimit))
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(core.Cw20ListReply{Tokens: tokens})
}

func (m *coreModule) queryCw20Balances(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q core.Cw20Balances
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	tokens, err := listCw20s(d.Store, q.StartAfter,
		modules.PageLimit(q.Limit, core.DefaultLimit, core.MaxLimit))
	if err != nil {
		return "", err
	}
	balances := make([]core.Cw20Balance, 0, len(tokens))
	for _, t := range tokens {
		var r token.BalanceReply
		err = modules.QueryJSON(d.Querier, t, token.CmdBalance,
			token.BalanceQuery{Address: env.Contract}, &r)
		if err != nil {
			return "", err
		}
		balances = append(balances, core.Cw20Balance{
			Token:   t,
			Balance: r.Balance,
		})
	}
	return modules.EncodeReply(core.Cw20BalancesReply{Balances: balances})
}
