// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
)

const (
	keyAdmin        = "admin"
	keyNomination   = "nomination"
	keyConfig       = "config"
	keyPaused       = "paused"
	keyVotingModule = "votingmodule"
	keyActiveCount  = "activecount"
	keyTotalCount   = "totalcount"

	prefixProposalModules = "proposalmodules/"
	prefixItems           = "items/"
	prefixSubDaos         = "subdaos/"
	prefixCw20s           = "cw20s/"
)

// loadString returns the string saved under key. An empty string is
// returned when the key does not exist.
func loadString(g store.Getter, key string) (string, error) {
	var v string
	err := store.GetJSON(g, key, &v)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", nil
	case err != nil:
		return "", err
	}
	return v, nil
}

func loadAdmin(g store.Getter) (string, error) {
	return loadString(g, keyAdmin)
}

func saveAdmin(s store.KVStore, admin string) error {
	return store.SetJSON(s, keyAdmin, admin)
}

// loadNomination returns the pending admin nomination, if any.
func loadNomination(g store.Getter) (*string, error) {
	n, err := loadString(g, keyNomination)
	if err != nil {
		return nil, err
	}
	if n == "" {
		return nil, nil
	}
	return &n, nil
}

func loadConfig(g store.Getter) (*core.Config, error) {
	var c core.Config
	err := store.GetJSON(g, keyConfig, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func saveConfig(s store.KVStore, c core.Config) error {
	return store.SetJSON(s, keyConfig, c)
}

// loadPaused returns the expiration of the current pause. Nil is returned
// when the DAO is not paused at the provided block.
func loadPaused(g store.Getter, b block.Info) (*block.Expiration, error) {
	var e block.Expiration
	err := store.GetJSON(g, keyPaused, &e)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	if e.IsExpired(b) {
		return nil, nil
	}
	return &e, nil
}

func loadVotingModule(g store.Getter) (string, error) {
	return loadString(g, keyVotingModule)
}

func loadCount(g store.Getter, key string) (uint32, error) {
	var n uint32
	err := store.GetJSON(g, key, &n)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return n, nil
}

func saveCount(s store.KVStore, key string, n uint32) error {
	return store.SetJSON(s, key, n)
}

// loadProposalModule returns a registered proposal module. Nil is returned
// when the address is not registered.
func loadProposalModule(g store.Getter, addr string) (*core.ProposalModule, error) {
	var m core.ProposalModule
	err := store.GetJSON(g, prefixProposalModules+addr, &m)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &m, nil
}

func saveProposalModule(s store.KVStore, m core.ProposalModule) error {
	return store.SetJSON(s, prefixProposalModules+m.Address, m)
}

// pageQuery returns the query of a page of entries under prefix. Ascending
// pages start after startAfter, descending pages end before it.
func pageQuery(prefix, startAfter string, reverse bool, limit int) store.Query {
	q := store.PrefixQuery(prefix, reverse, limit)
	if startAfter != "" {
		if reverse {
			q.End = prefix + startAfter
		} else {
			q.Start = store.Successor(prefix + startAfter)
		}
	}
	return q
}

// listProposalModules returns the proposal modules in ascending address
// order. Only enabled modules are returned when enabledOnly is set.
func listProposalModules(g store.Getter, startAfter string, limit int, enabledOnly bool) ([]core.ProposalModule, error) {
	// Disabled modules are filtered after the range so the limit is
	// applied by hand.
	q := pageQuery(prefixProposalModules, startAfter, false, 0)
	if !enabledOnly {
		q.Limit = limit
	}
	entries, err := g.Range(q)
	if err != nil {
		return nil, err
	}
	mods := make([]core.ProposalModule, 0, len(entries))
	for _, e := range entries {
		if limit > 0 && len(mods) == limit {
			break
		}
		var m core.ProposalModule
		err = json.Unmarshal(e.Value, &m)
		if err != nil {
			return nil, err
		}
		if enabledOnly && m.Status != core.ProposalModuleStatusEnabled {
			continue
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// listItems returns a page of items in descending key order.
func listItems(g store.Getter, startAfter string, limit int) ([]core.Item, error) {
	entries, err := g.Range(pageQuery(prefixItems, startAfter, true, limit))
	if err != nil {
		return nil, err
	}
	items := make([]core.Item, 0, len(entries))
	for _, e := range entries {
		var v string
		err = json.Unmarshal(e.Value, &v)
		if err != nil {
			return nil, err
		}
		items = append(items, core.Item{
			Key:   strings.TrimPrefix(e.Key, prefixItems),
			Value: v,
		})
	}
	return items, nil
}

// listSubDaos returns a page of sub-DAOs in ascending address order.
func listSubDaos(g store.Getter, startAfter string, limit int) ([]core.SubDao, error) {
	entries, err := g.Range(pageQuery(prefixSubDaos, startAfter, false, limit))
	if err != nil {
		return nil, err
	}
	subDaos := make([]core.SubDao, 0, len(entries))
	for _, e := range entries {
		var charter string
		err = json.Unmarshal(e.Value, &charter)
		if err != nil {
			return nil, err
		}
		subDaos = append(subDaos, core.SubDao{
			Addr:    strings.TrimPrefix(e.Key, prefixSubDaos),
			Charter: charter,
		})
	}
	return subDaos, nil
}

// listCw20s returns a page of the token list in descending address order.
func listCw20s(g store.Getter, startAfter string, limit int) ([]string, error) {
	entries, err := g.Range(pageQuery(prefixCw20s, startAfter, true, limit))
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(entries))
	for _, e := range entries {
		tokens = append(tokens, strings.TrimPrefix(e.Key, prefixCw20s))
	}
	return tokens, nil
}
