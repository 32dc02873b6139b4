// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

// parseCoin parses a coin of the form <amount><denom>, e.g. 100udcr.
func parseCoin(s string) (v1.Coin, error) {
	i := strings.IndexFunc(s, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if i <= 0 || i == len(s) {
		return v1.Coin{}, fmt.Errorf("invalid coin '%v': want "+
			"<amount><denom>", s)
	}
	amount, err := numeric.Uint128FromString(s[:i])
	if err != nil {
		return v1.Coin{}, err
	}
	return v1.Coin{
		Denom:  s[i:],
		Amount: amount.String(),
	}, nil
}

// parseCoins parses a comma separated list of coins.
func parseCoins(s string) ([]v1.Coin, error) {
	if s == "" {
		return nil, nil
	}
	var coins []v1.Coin
	for _, v := range strings.Split(s, ",") {
		c, err := parseCoin(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return coins, nil
}

// payloadArg returns the JSON payload at index i of args. An empty object is
// returned when the argument is not provided. The payload must be valid
// JSON.
func payloadArg(args []string, i int) (string, error) {
	if len(args) <= i {
		return "{}", nil
	}
	p := args[i]
	if !json.Valid([]byte(p)) {
		return "", fmt.Errorf("payload is not valid JSON: %v", p)
	}
	return p, nil
}

// printJSON pretty prints v as JSON. Strings that contain JSON, such as
// query reply payloads, are printed as JSON.
func printJSON(w io.Writer, v interface{}) error {
	if s, ok := v.(string); ok && json.Valid([]byte(s)) {
		v = json.RawMessage(s)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func printReply(v interface{}) error {
	return printJSON(os.Stdout, v)
}
