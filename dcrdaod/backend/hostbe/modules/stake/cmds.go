// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stake

import (
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	hookv1 "github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/stake"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

// transferMsg returns the message that transfers tokens out of the module.
func transferMsg(tokenAddr, recipient string, amount numeric.Uint128) (backend.Msg, error) {
	return modules.ExecuteMsg(tokenAddr, token.CmdTransfer, token.Transfer{
		Recipient: recipient,
		Amount:    amount,
	})
}

// checkDao returns an Unauthorized error if the sender is not the DAO.
func checkDao(c *config, sender string) error {
	if sender != c.Dao {
		return userErr(stake.ErrorCodeUnauthorized, "")
	}
	return nil
}

func (m *stakeModule) cmdReceive(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var r token.Receive
	err := modules.Decode(payload, &r)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	if info.Sender != c.Token {
		return nil, userErr(stake.ErrorCodeInvalidToken, "%v", info.Sender)
	}
	if r.Amount.IsZero() {
		return nil, userErr(stake.ErrorCodeZeroAmount, "")
	}
	var rm stake.ReceiveMsg
	err = modules.Decode(string(r.Msg), &rm)
	if err != nil {
		return nil, err
	}

	switch {
	case rm.Stake != nil:
		return m.stake(d, env, r.Sender, r.Amount)
	case rm.Fund != nil:
		return m.fund(d, r.Sender, r.Amount)
	}

	return nil, fmt.Errorf("%w: unknown receive message",
		backend.ErrPayloadInvalid)
}

// stake stakes an amount of tokens that was received by the module. The
// staked amount is scaled by the value of the existing stakes.
func (m *stakeModule) stake(d modules.Deps, env modules.Env, sender string, amount numeric.Uint128) (*modules.Response, error) {
	balance, err := loadBalance(d.Store)
	if err != nil {
		return nil, err
	}
	total, err := totalStaked.Load(d.Store, keyTotal)
	if err != nil {
		return nil, err
	}
	toStake := amount
	if !total.IsZero() && !balance.IsZero() {
		toStake, err = total.MulDiv(amount, balance)
		if err != nil {
			return nil, err
		}
	}

	balance, err = balance.Add(amount)
	if err != nil {
		return nil, err
	}
	err = saveBalance(d.Store, balance)
	if err != nil {
		return nil, err
	}
	h := env.Block.Height
	add := func(v numeric.Uint128) (numeric.Uint128, error) {
		return v.Add(toStake)
	}
	_, err = staked.Update(d.Store, sender, h, add)
	if err != nil {
		return nil, err
	}
	_, err = totalStaked.Update(d.Store, keyTotal, h, add)
	if err != nil {
		return nil, err
	}

	msgs, err := hooks.StakeChangedHooks(d.Store, stakeHooks,
		hookv1.StakeChangedHook{
			Type:    hookv1.StakeChangeStake,
			Address: sender,
			Amount:  toStake,
		})
	if err != nil {
		return nil, err
	}

	log.Debugf("%v staked %v on %v", sender, toStake, env.Contract)

	return modules.NewResponse().
		AddAttribute("action", "stake").
		AddAttribute("from", sender).
		AddAttribute("amount", amount.String()).
		AddSubMessages(msgs...), nil
}

// fund adds the received tokens to the balance without staking them.
func (m *stakeModule) fund(d modules.Deps, sender string, amount numeric.Uint128) (*modules.Response, error) {
	balance, err := loadBalance(d.Store)
	if err != nil {
		return nil, err
	}
	balance, err = balance.Add(amount)
	if err != nil {
		return nil, err
	}
	err = saveBalance(d.Store, balance)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "fund").
		AddAttribute("from", sender).
		AddAttribute("amount", amount.String()), nil
}

func (m *stakeModule) cmdUnstake(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var u stake.Unstake
	err := modules.Decode(payload, &u)
	if err != nil {
		return nil, err
	}
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	balance, err := loadBalance(d.Store)
	if err != nil {
		return nil, err
	}
	total, err := totalStaked.Load(d.Store, keyTotal)
	if err != nil {
		return nil, err
	}
	if total.IsZero() {
		return nil, userErr(stake.ErrorCodeNothingStaked, "")
	}
	if u.Amount.IsZero() {
		return nil, userErr(stake.ErrorCodeZeroAmount, "")
	}
	own, err := staked.Load(d.Store, info.Sender)
	if err != nil {
		return nil, err
	}
	if u.Amount.Gt(own) {
		return nil, userErr(stake.ErrorCodeImpossibleUnstake,
			"staked %v, unstaking %v", own, u.Amount)
	}

	toClaim, err := u.Amount.MulDiv(balance, total)
	if err != nil {
		return nil, err
	}
	err = saveBalance(d.Store, balance.SaturatingSub(toClaim))
	if err != nil {
		return nil, err
	}
	h := env.Block.Height
	sub := func(v numeric.Uint128) (numeric.Uint128, error) {
		return v.Sub(u.Amount)
	}
	_, err = staked.Update(d.Store, info.Sender, h, sub)
	if err != nil {
		return nil, err
	}
	_, err = totalStaked.Update(d.Store, keyTotal, h, sub)
	if err != nil {
		return nil, err
	}

	msgs, err := hooks.StakeChangedHooks(d.Store, stakeHooks,
		hookv1.StakeChangedHook{
			Type:    hookv1.StakeChangeUnstake,
			Address: info.Sender,
			Amount:  u.Amount,
		})
	if err != nil {
		return nil, err
	}
	r := modules.NewResponse().
		AddAttribute("action", "unstake").
		AddAttribute("from", info.Sender).
		AddAttribute("amount", u.Amount.String()).
		AddAttribute("claim", toClaim.String()).
		AddSubMessages(msgs...)

	if c.UnstakingDuration == nil {
		// Pay out immediately
		msg, err := transferMsg(c.Token, info.Sender, toClaim)
		if err != nil {
			return nil, err
		}
		return r.AddMessage(msg), nil
	}

	claims, err := loadClaims(d.Store, info.Sender)
	if err != nil {
		return nil, err
	}
	if len(claims) >= stake.MaxClaims {
		return nil, userErr(stake.ErrorCodeTooManyClaims, "")
	}
	claims = append(claims, stake.TokenClaim{
		Amount:    toClaim,
		ReleaseAt: c.UnstakingDuration.After(env.Block),
	})
	err = saveClaims(d.Store, info.Sender, claims)
	if err != nil {
		return nil, err
	}

	log.Debugf("%v unstaked %v on %v, claim %v", info.Sender, u.Amount,
		env.Contract, toClaim)

	return r, nil
}

func (m *stakeModule) cmdClaim(d modules.Deps, env modules.Env, info modules.Info) (*modules.Response, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return nil, err
	}
	claims, err := loadClaims(d.Store, info.Sender)
	if err != nil {
		return nil, err
	}
	var (
		amount  numeric.Uint128
		pending = make([]stake.TokenClaim, 0, len(claims))
	)
	for _, v := range claims {
		if !v.ReleaseAt.IsExpired(env.Block) {
			pending = append(pending, v)
			continue
		}
		amount, err = amount.Add(v.Amount)
		if err != nil {
			return nil, err
		}
	}
	if amount.IsZero() {
		return nil, userErr(stake.ErrorCodeNothingToClaim, "")
	}
	err = saveClaims(d.Store, info.Sender, pending)
	if err != nil {
		return nil, err
	}
	msg, err := transferMsg(c.Token, info.Sender, amount)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "claim").
		AddAttribute("from", info.Sender).
		AddAttribute("amount", amount.String()).
		AddMessage(msg), nil
}

func (m *stakeModule) cmdUpdateConfig(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var uc stake.UpdateConfig
	err := modules.Decode(payload, &uc)
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
	if uc.Duration != nil && uc.Duration.IsZero() {
		return nil, userErr(stake.ErrorCodeInvalidUnstakingDuration, "")
	}
	c.UnstakingDuration = uc.Duration
	err = saveConfig(d.Store, *c)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "updateconfig"), nil
}

func (m *stakeModule) cmdUpdateActiveThreshold(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var ua stake.UpdateActiveThreshold
	err := modules.Decode(payload, &ua)
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
	supply, err := tokenSupply(d.Querier, c.Token)
	if err != nil {
		return nil, err
	}
	err = validateActiveThreshold(ua.Threshold, supply)
	if err != nil {
		return nil, err
	}
	err = saveActiveThreshold(d.Store, ua.Threshold)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "updateactivethreshold"), nil
}

func (m *stakeModule) cmdAddHook(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var h hookv1.Hook
	err := modules.Decode(payload, &h)
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
	err = stakeHooks.Add(d.Store, h.Address)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "addhook").
		AddAttribute("hook", h.Address), nil
}

func (m *stakeModule) cmdRemoveHook(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var h hookv1.Hook
	err := modules.Decode(payload, &h)
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
	err = stakeHooks.Remove(d.Store, h.Address)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", "removehook").
		AddAttribute("hook", h.Address), nil
}

func (m *stakeModule) queryVotingPower(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q power.VotingPowerAtHeight
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	h := power.At(q.Height, env.Block.Height)
	p, err := staked.LoadAtHeight(d.Store, q.Address, h)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(power.VotingPowerAtHeightReply{
		Power:  p,
		Height: h,
	})
}

func (m *stakeModule) queryTotalPower(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q power.TotalPowerAtHeight
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	h := power.At(q.Height, env.Block.Height)
	p, err := totalStaked.LoadAtHeight(d.Store, keyTotal, h)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(power.TotalPowerAtHeightReply{
		Power:  p,
		Height: h,
	})
}

// queryIsActive reports whether enough tokens are staked for the DAO to be
// active. The current staked total is used.
func (m *stakeModule) queryIsActive(d modules.Deps) (string, error) {
	at, err := loadActiveThreshold(d.Store)
	if err != nil {
		return "", err
	}
	if at == nil {
		return modules.EncodeReply(power.IsActiveReply{Active: true})
	}
	total, err := totalStaked.Load(d.Store, keyTotal)
	if err != nil {
		return "", err
	}

	var required numeric.Uint128
	switch at.Type {
	case stake.ActiveThresholdAbsoluteCount:
		required = *at.Count
	case stake.ActiveThresholdPercentage:
		c, err := loadConfig(d.Store)
		if err != nil {
			return "", err
		}
		supply, err := tokenSupply(d.Querier, c.Token)
		if err != nil {
			return "", err
		}
		required, err = at.Percent.MulCeil(supply)
		if err != nil {
			return "", err
		}
	}

	return modules.EncodeReply(power.IsActiveReply{
		Active: !total.Lt(required),
	})
}

func (m *stakeModule) queryDao(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(power.DaoReply{Dao: c.Dao})
}

func (m *stakeModule) queryTokenContract(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(power.TokenContractReply{Token: c.Token})
}

func (m *stakeModule) queryStakedBalance(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q stake.StakedBalanceAtHeight
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	h := power.At(q.Height, env.Block.Height)
	b, err := staked.LoadAtHeight(d.Store, q.Address, h)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(stake.StakedBalanceAtHeightReply{
		Balance: b,
		Height:  h,
	})
}

func (m *stakeModule) queryTotalStaked(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q stake.TotalStakedAtHeight
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	h := power.At(q.Height, env.Block.Height)
	t, err := totalStaked.LoadAtHeight(d.Store, keyTotal, h)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(stake.TotalStakedAtHeightReply{
		Total:  t,
		Height: h,
	})
}

func (m *stakeModule) queryStakedValue(d modules.Deps, payload string) (string, error) {
	var q stake.StakedValue
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	own, err := staked.Load(d.Store, q.Address)
	if err != nil {
		return "", err
	}
	balance, err := loadBalance(d.Store)
	if err != nil {
		return "", err
	}
	total, err := totalStaked.Load(d.Store, keyTotal)
	if err != nil {
		return "", err
	}
	v, err := stakedValue(own, balance, total)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(stake.StakedValueReply{Value: v})
}

func (m *stakeModule) queryTotalValue(d modules.Deps) (string, error) {
	balance, err := loadBalance(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(stake.TotalValueReply{Total: balance})
}

func (m *stakeModule) queryClaims(d modules.Deps, payload string) (string, error) {
	var q stake.Claims
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	claims, err := loadClaims(d.Store, q.Address)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(stake.ClaimsReply{Claims: claims})
}

func (m *stakeModule) queryListStakers(d modules.Deps, payload string) (string, error) {
	var q stake.ListStakers
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(q.Limit, stake.DefaultLimit, stake.MaxLimit)
	entries, err := staked.List(d.Store, q.StartAfter, limit)
	if err != nil {
		return "", err
	}
	stakers := make([]stake.StakerBalance, 0, len(entries))
	for _, v := range entries {
		stakers = append(stakers, stake.StakerBalance{
			Address: v.Key,
			Balance: v.Value,
		})
	}
	return modules.EncodeReply(stake.ListStakersReply{Stakers: stakers})
}

func (m *stakeModule) queryConfig(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(stake.ConfigReply{
		TokenAddress:      c.Token,
		UnstakingDuration: c.UnstakingDuration,
	})
}

func (m *stakeModule) queryGetHooks(d modules.Deps) (string, error) {
	addrs, err := stakeHooks.List(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(hookv1.HooksReply{Hooks: addrs})
}

func (m *stakeModule) queryActiveThreshold(d modules.Deps) (string, error) {
	at, err := loadActiveThreshold(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(stake.ActiveThresholdReply{
		ActiveThreshold: at,
	})
}
