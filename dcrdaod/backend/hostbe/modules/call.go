// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package modules

import (
	"encoding/json"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/util"
)

// ExecuteMsg returns a message that executes the command on the provided
// contract with the JSON encoding of payload.
func ExecuteMsg(contract, cmd string, payload interface{}, funds ...backend.Coin) (backend.Msg, error) {
	p, err := util.EncodeJSON(payload)
	if err != nil {
		return backend.Msg{}, err
	}
	return backend.Msg{
		Execute: &backend.ExecuteMsg{
			Contract: contract,
			Cmd:      cmd,
			Payload:  p,
			Funds:    funds,
		},
	}, nil
}

// BankSendMsg returns a message that sends native funds.
func BankSendMsg(to string, amount ...backend.Coin) backend.Msg {
	return backend.Msg{
		BankSend: &backend.BankSendMsg{
			ToAddress: to,
			Amount:    amount,
		},
	}
}

// QueryJSON performs a query with the JSON encoding of payload and decodes
// the reply into reply.
func QueryJSON(q Querier, contract, cmd string, payload, reply interface{}) error {
	p, err := util.EncodeJSON(payload)
	if err != nil {
		return err
	}
	r, err := q.Query(contract, cmd, p)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(r), reply)
}

// EncodeReply returns the JSON encoding of a query reply.
func EncodeReply(v interface{}) (string, error) {
	return util.EncodeJSON(v)
}

// Decode decodes a command payload into v. An empty payload is decoded as an
// empty JSON object.
func Decode(payload string, v interface{}) error {
	err := util.DecodeJSON(payload, v)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrPayloadInvalid, err)
	}
	return nil
}

// PageLimit returns the number of entries a paginated query returns. A zero
// limit selects the default. Limits above max are capped when max is not
// zero.
func PageLimit(limit, def, max uint32) int {
	if limit == 0 {
		limit = def
	}
	if max != 0 && limit > max {
		limit = max
	}
	return int(limit)
}

// EncodeInfo returns the reply to the info query of a module.
func EncodeInfo(contract, version string) (string, error) {
	return EncodeReply(power.InfoReply{
		Info: backend.ContractVersion{
			Contract: contract,
			Version:  version,
		},
	})
}
