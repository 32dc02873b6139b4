// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package members implements the members voting module. The voting power of
// an address is the weight that the DAO assigned to it.
package members

import (
	"errors"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/snapshot"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/members"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	keyDao   = "dao"
	keyTotal = "total"
)

var (
	_ modules.Module = (*membersModule)(nil)

	weights = snapshot.New("weights")
	totals  = snapshot.New("totals")
)

// membersModule implements the modules Module interface for the members
// voting module.
type membersModule struct{}

func userErr(e members.ErrorCodeT, format string, args ...interface{}) error {
	return backend.ModuleError{
		ModuleID:     members.ID,
		ErrorCode:    uint32(e),
		ErrorContext: fmt.Sprintf(format, args...),
	}
}

func loadDao(g store.Getter) (string, error) {
	var dao string
	err := store.GetJSON(g, keyDao, &dao)
	if err != nil {
		return "", err
	}
	return dao, nil
}

// setWeight saves the weight of a member and adjusts the total weight.
func setWeight(s store.KVStore, addr string, weight uint64, height uint64) error {
	old, err := weights.Load(s, addr)
	if err != nil {
		return err
	}
	w := numeric.NewUint128(weight)
	if old.Equal(w) {
		return nil
	}
	err = weights.Save(s, addr, w, height)
	if err != nil {
		return err
	}
	_, err = totals.Update(s, keyTotal, height,
		func(total numeric.Uint128) (numeric.Uint128, error) {
			total, err := total.Sub(old)
			if err != nil {
				return numeric.Uint128{}, err
			}
			return total.Add(w)
		})
	return err
}

// Instantiate saves the initial members. The sender is the DAO.
//
// This function satisfies the modules Module interface.
func (m *membersModule) Instantiate(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	log.Tracef("Instantiate: %v", env.Contract)

	var i members.Instantiate
	err := modules.Decode(payload, &i)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(i.Members))
	var total uint64
	for _, v := range i.Members {
		if _, ok := seen[v.Addr]; ok {
			return nil, userErr(members.ErrorCodeDuplicateMember, "%v", v.Addr)
		}
		seen[v.Addr] = struct{}{}
		err = backend.ValidateAddress(v.Addr)
		if err != nil {
			return nil, err
		}
		err = setWeight(d.Store, v.Addr, v.Weight, env.Block.Height)
		if err != nil {
			return nil, err
		}
		total += v.Weight
	}
	if total == 0 {
		return nil, userErr(members.ErrorCodeNoMembers, "")
	}
	err = store.SetJSON(d.Store, keyDao, info.Sender)
	if err != nil {
		return nil, err
	}

	log.Debugf("Members module %v instantiated with %v members",
		env.Contract, len(i.Members))

	return modules.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("members", fmt.Sprint(len(i.Members))), nil
}

// Execute executes a members module command.
//
// This function satisfies the modules Module interface.
func (m *membersModule) Execute(d modules.Deps, env modules.Env, info modules.Info, cmd, payload string) (*modules.Response, error) {
	log.Tracef("Execute: %v %v %v", env.Contract, info.Sender, cmd)

	switch cmd {
	case members.CmdUpdateMembers:
		return m.cmdUpdateMembers(d, env, info, payload)
	}

	return nil, backend.ErrCmdInvalid
}

func (m *membersModule) cmdUpdateMembers(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var um members.UpdateMembers
	err := modules.Decode(payload, &um)
	if err != nil {
		return nil, err
	}
	dao, err := loadDao(d.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != dao {
		return nil, userErr(members.ErrorCodeUnauthorized, "")
	}

	h := env.Block.Height
	for _, v := range um.Add {
		err = backend.ValidateAddress(v.Addr)
		if err != nil {
			return nil, err
		}
		err = setWeight(d.Store, v.Addr, v.Weight, h)
		if err != nil {
			return nil, err
		}
	}
	for _, v := range um.Remove {
		err = setWeight(d.Store, v, 0, h)
		if err != nil {
			return nil, err
		}
	}

	total, err := totals.Load(d.Store, keyTotal)
	if err != nil {
		return nil, err
	}
	if total.IsZero() {
		return nil, userErr(members.ErrorCodeNoMembers, "")
	}

	log.Debugf("Members of %v updated: %v added, %v removed, total %v",
		env.Contract, len(um.Add), len(um.Remove), total)

	return modules.NewResponse().
		AddAttribute("action", "updatemembers").
		AddAttribute("total", total.String()), nil
}

// Query performs a members module query.
//
// This function satisfies the modules Module interface.
func (m *membersModule) Query(d modules.Deps, env modules.Env, cmd, payload string) (string, error) {
	log.Tracef("Query: %v %v", env.Contract, cmd)

	switch cmd {
	case power.CmdVotingPowerAtHeight:
		var q power.VotingPowerAtHeight
		err := modules.Decode(payload, &q)
		if err != nil {
			return "", err
		}
		h := power.At(q.Height, env.Block.Height)
		p, err := weights.LoadAtHeight(d.Store, q.Address, h)
		if err != nil {
			return "", err
		}
		return modules.EncodeReply(power.VotingPowerAtHeightReply{
			Power:  p,
			Height: h,
		})

	case power.CmdTotalPowerAtHeight:
		var q power.TotalPowerAtHeight
		err := modules.Decode(payload, &q)
		if err != nil {
			return "", err
		}
		h := power.At(q.Height, env.Block.Height)
		p, err := totals.LoadAtHeight(d.Store, keyTotal, h)
		if err != nil {
			return "", err
		}
		return modules.EncodeReply(power.TotalPowerAtHeightReply{
			Power:  p,
			Height: h,
		})

	case power.CmdDao:
		dao, err := loadDao(d.Store)
		if err != nil {
			return "", err
		}
		return modules.EncodeReply(power.DaoReply{Dao: dao})

	case power.CmdInfo:
		return modules.EncodeInfo(members.ID, members.Version)

	case members.CmdListMembers:
		return m.queryListMembers(d, payload)

	case members.CmdMember:
		return m.queryMember(d, env, payload)
	}

	return "", backend.ErrCmdInvalid
}

func (m *membersModule) queryListMembers(d modules.Deps, payload string) (string, error) {
	var q members.ListMembers
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(q.Limit, members.DefaultLimit, members.MaxLimit)
	entries, err := weights.List(d.Store, q.StartAfter, limit)
	if err != nil {
		return "", err
	}
	ms := make([]members.Member, 0, len(entries))
	for _, v := range entries {
		ms = append(ms, members.Member{
			Addr:   v.Key,
			Weight: v.Value.Uint64(),
		})
	}
	return modules.EncodeReply(members.ListMembersReply{Members: ms})
}

func (m *membersModule) queryMember(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q members.MemberQuery
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	var w numeric.Uint128
	if q.Height == nil {
		w, err = weights.Load(d.Store, q.Addr)
	} else {
		w, err = weights.LoadAtHeight(d.Store, q.Addr, *q.Height)
	}
	if err != nil {
		return "", err
	}
	var reply members.MemberReply
	if !w.IsZero() {
		v := w.Uint64()
		reply.Weight = &v
	}
	return modules.EncodeReply(reply)
}

// Reply handles sub-message replies. The members module does not send
// sub-messages that reply.
//
// This function satisfies the modules Module interface.
func (m *membersModule) Reply(d modules.Deps, env modules.Env, r modules.Reply) (*modules.Response, error) {
	return nil, errors.New("unexpected reply")
}

// New returns the members module code.
func New() modules.Code {
	return modules.Code{
		Name:   members.ID,
		Module: &membersModule{},
	}
}
