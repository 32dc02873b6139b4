// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package prepropose

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/dao"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	hookv1 "github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/modules/prepropose"
	"github.com/decred/dcrdao/dcrdaod/modules/proposal"
)

// checkDao returns a NotDao user error if the sender is not the DAO.
func checkDao(d modules.Deps, sender string) (string, error) {
	dao, err := loadDao(d.Store)
	if err != nil {
		return "", err
	}
	if sender != dao {
		return "", userErr(prepropose.ErrorCodeNotDao, "%v", sender)
	}
	return dao, nil
}

// withProposer returns the propose payload with the proposer set. The
// payload is otherwise forwarded untouched so that any proposal module can
// sit behind the pre-propose module.
func withProposer(msg json.RawMessage, proposer string) (map[string]json.RawMessage, error) {
	var p map[string]json.RawMessage
	err := json.Unmarshal(msg, &p)
	if err != nil || p == nil {
		return nil, fmt.Errorf("%w: propose msg", backend.ErrPayloadInvalid)
	}
	b, err := json.Marshal(proposer)
	if err != nil {
		return nil, err
	}
	p["proposer"] = b
	return p, nil
}

func (m *preProposeModule) cmdPropose(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var p prepropose.Propose
	err := modules.Decode(payload, &p)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	if !c.OpenProposalSubmission {
		daoAddr, err := loadDao(d.Store)
		if err != nil {
			return nil, err
		}
		pw, err := dao.VotingPower(d.Querier, daoAddr, info.Sender,
			env.Block.Height)
		if err != nil {
			return nil, err
		}
		if pw.IsZero() {
			return nil, userErr(prepropose.ErrorCodeNotMember, "%v",
				info.Sender)
		}
	}
	err = checkNativeDepositPaid(c.Deposit, info.Funds)
	if err != nil {
		return nil, err
	}
	depositMsgs, err := takeDepositMsgs(c.Deposit, info.Sender, env.Contract)
	if err != nil {
		return nil, err
	}
	msg, err := withProposer(p.Msg, info.Sender)
	if err != nil {
		return nil, err
	}

	// Record the deposit under the ID of the proposal that is about to be
	// created.
	pm, err := loadProposalModule(d.Store)
	if err != nil {
		return nil, err
	}
	var next proposal.NextProposalIDReply
	err = modules.QueryJSON(d.Querier, pm, proposal.CmdNextProposalID,
		proposal.NextProposalID{}, &next)
	if err != nil {
		return nil, err
	}
	err = saveDeposit(d.Store, next.ID, deposit{
		Deposit:  c.Deposit,
		Proposer: info.Sender,
	})
	if err != nil {
		return nil, err
	}

	propose, err := modules.ExecuteMsg(pm, proposal.CmdPropose, msg)
	if err != nil {
		return nil, err
	}
	submitted, err := hooks.ProposalSubmittedHooks(d.Store, submittedHooks,
		hookv1.ProposalSubmittedHook{
			ProposalID: next.ID,
			Proposer:   info.Sender,
			Msg:        p.Msg,
		})
	if err != nil {
		return nil, err
	}

	log.Debugf("Proposal %v submitted by %v", next.ID, info.Sender)

	// The propose message goes first. A hook receiver that creates a
	// proposal would otherwise take the recorded proposal ID.
	return modules.NewResponse().
		AddAttribute("action", "execute_propose").
		AddAttribute("sender", info.Sender).
		AddAttribute("proposal_id", strconv.FormatUint(next.ID, 10)).
		AddMessage(propose).
		AddSubMessages(submitted...).
		AddMessages(depositMsgs), nil
}

func (m *preProposeModule) cmdUpdateConfig(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var u prepropose.UpdateConfig
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	daoAddr, err := checkDao(d, info.Sender)
	if err != nil {
		return nil, err
	}
	deposit, err := checkDeposit(d.Querier, daoAddr, u.Deposit)
	if err != nil {
		return nil, err
	}
	err = saveConfig(d.Store, prepropose.Config{
		Deposit:                deposit,
		OpenProposalSubmission: u.OpenProposalSubmission,
	})
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "update_config").
		AddAttribute("sender", info.Sender), nil
}

func (m *preProposeModule) cmdWithdraw(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var w prepropose.Withdraw
	err := modules.Decode(payload, &w)
	if err != nil {
		return nil, err
	}
	daoAddr, err := checkDao(d, info.Sender)
	if err != nil {
		return nil, err
	}

	denom := w.Denom
	if denom == nil {
		c, err := loadConfig(d.Store)
		if err != nil {
			return nil, err
		}
		if c.Deposit != nil {
			denom = &c.Deposit.Denom
		}
	} else {
		err = checkDenom(d.Querier, *denom)
		if err != nil {
			return nil, err
		}
	}
	if denom == nil {
		return nil, userErr(prepropose.ErrorCodeNoWithdrawalDenom, "")
	}

	bal, err := balance(d.Querier, *denom, env.Contract)
	if err != nil {
		return nil, err
	}
	if bal.IsZero() {
		return nil, userErr(prepropose.ErrorCodeNothingToWithdraw, "%v",
			denom)
	}
	msg, err := transferMsg(*denom, bal, daoAddr)
	if err != nil {
		return nil, err
	}

	log.Debugf("Withdrew %v %v to %v", bal, denom, daoAddr)

	return modules.NewResponse().
		AddMessage(msg).
		AddAttribute("action", "withdraw").
		AddAttribute("receiver", daoAddr).
		AddAttribute("denom", denom.String()), nil
}

func (m *preProposeModule) cmdProposalCompleted(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var h hookv1.ProposalCompletedHook
	err := modules.Decode(payload, &h)
	if err != nil {
		return nil, err
	}
	pm, err := loadProposalModule(d.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != pm {
		return nil, userErr(prepropose.ErrorCodeNotModule, "%v", info.Sender)
	}
	if !h.NewStatus.IsFinal() {
		return nil, userErr(prepropose.ErrorCodeNotClosedOrExecuted, "%v",
			h.NewStatus)
	}

	resp := modules.NewResponse().
		AddAttribute("action", "execute_proposal_completed_hook").
		AddAttribute("proposal", strconv.FormatUint(h.ProposalID, 10))

	// Proposals that were created before this module was attached have
	// no deposit.
	dep, err := loadDeposit(d.Store, h.ProposalID)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return resp, nil
	}
	deleteDeposit(d.Store, h.ProposalID)
	resp.AddAttribute("deposit_info", depositAttr(dep.Deposit))
	if dep.Deposit == nil {
		return resp, nil
	}

	to := dep.Proposer
	if !shouldRefund(dep.Deposit.RefundPolicy, h.NewStatus) {
		to, err = loadDao(d.Store)
		if err != nil {
			return nil, err
		}
	}
	msg, err := transferMsg(dep.Deposit.Denom, dep.Deposit.Amount, to)
	if err != nil {
		return nil, err
	}

	log.Debugf("Deposit of proposal %v sent to %v", h.ProposalID, to)

	return resp.AddAttribute("receiver", to).AddMessage(msg), nil
}

func (m *preProposeModule) cmdAddHook(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var hk hookv1.Hook
	err := modules.Decode(payload, &hk)
	if err != nil {
		return nil, err
	}
	_, err = checkDao(d, info.Sender)
	if err != nil {
		return nil, err
	}
	err = backend.ValidateAddress(hk.Address)
	if err != nil {
		return nil, err
	}
	err = submittedHooks.Add(d.Store, hk.Address)
	if err != nil {
		return nil, err
	}
	return modules.NewResponse().
		AddAttribute("action", "add_proposal_submitted_hook").
		AddAttribute("address", hk.Address), nil
}

func (m *preProposeModule) cmdRemoveHook(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var hk hookv1.Hook
	err := modules.Decode(payload, &hk)
	if err != nil {
		return nil, err
	}
	_, err = checkDao(d, info.Sender)
	if err != nil {
		return nil, err
	}
	err = submittedHooks.Remove(d.Store, hk.Address)
	if err != nil {
		return nil, err
	}
	return modules.NewResponse().
		AddAttribute("action", "remove_proposal_submitted_hook").
		AddAttribute("address", hk.Address), nil
}
