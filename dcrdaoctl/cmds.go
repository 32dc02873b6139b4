// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/spf13/cobra"
)

var (
	execFunds   string
	instAdmin   string
	instFunds   string
	propModule  string
	propStatus  string
	propOffset  int
	propLimit   int
	advanceSecs uint64
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the server version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		vr, err := c.Version(ctx)
		if err != nil {
			return err
		}
		return printReply(vr)
	},
}

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Show the current block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		br, err := c.Block(ctx)
		if err != nil {
			return err
		}
		return printReply(br)
	},
}

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List the registered module codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		codes, err := c.Codes(ctx)
		if err != nil {
			return err
		}
		return printReply(codes)
	},
}

var contractCmd = &cobra.Command{
	Use:   "contract <address>",
	Short: "Show the info of a contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		cr, err := c.Contract(ctx, args[0])
		if err != nil {
			return err
		}
		return printReply(cr)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <address> <denom>",
	Short: "Show the native balance of an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		br, err := c.Balance(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return printReply(br)
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint <address> <amount><denom>",
	Short: "Credit native funds to an address (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coin, err := parseCoin(args[1])
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		return c.Mint(ctx, args[0], coin)
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance <heights>",
	Short: "Move the block clock forward (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		heights, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid heights: %v", err)
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		br, err := c.Advance(ctx, heights, advanceSecs)
		if err != nil {
			return err
		}
		return printReply(br)
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute <sender> <contract> <cmd> [payload]",
	Short: "Execute a command on a contract",
	Long: `Execute a command on a contract on behalf of the sender. The payload
is a JSON object; an empty object is sent when it is omitted.

Example:
  dcrdaoctl execute alice contract2 propose '{"title":"t","description":"d"}'`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := payloadArg(args, 3)
		if err != nil {
			return err
		}
		funds, err := parseCoins(execFunds)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		er, err := c.Execute(ctx, v1.Execute{
			Sender:   args[0],
			Contract: args[1],
			Cmd:      args[2],
			Payload:  payload,
			Funds:    funds,
		})
		if err != nil {
			return err
		}
		return printReply(er)
	},
}

// resolveCode returns the code ID of a code. The code may be provided as a
// code ID or as a code name.
func resolveCode(cmd *cobra.Command, code string) (uint64, error) {
	id, err := strconv.ParseUint(code, 10, 64)
	if err == nil {
		return id, nil
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	codes, err := c.Codes(ctx)
	if err != nil {
		return 0, err
	}
	for _, v := range codes {
		if v.Name == code {
			return v.CodeID, nil
		}
	}
	return 0, fmt.Errorf("code not found: %v", code)
}

var instantiateCmd = &cobra.Command{
	Use:   "instantiate <sender> <code> <label> [payload]",
	Short: "Instantiate a contract",
	Long: `Instantiate a contract from a registered code. The code may be a code
ID or a code name, e.g. core.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := payloadArg(args, 3)
		if err != nil {
			return err
		}
		funds, err := parseCoins(instFunds)
		if err != nil {
			return err
		}
		codeID, err := resolveCode(cmd, args[1])
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		ir, err := c.Instantiate(ctx, v1.Instantiate{
			Sender:  args[0],
			CodeID:  codeID,
			Label:   args[2],
			Admin:   instAdmin,
			Payload: payload,
			Funds:   funds,
		})
		if err != nil {
			return err
		}
		return printReply(ir)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <contract> <cmd> [payload]",
	Short: "Query a contract",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := payloadArg(args, 2)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		qr, err := c.Query(ctx, v1.Query{
			Contract: args[0],
			Cmd:      args[1],
			Payload:  payload,
		})
		if err != nil {
			return err
		}
		return printReply(qr.Payload)
	},
}

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List the indexed proposals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		props, err := c.IndexProposals(ctx, v1.IndexProposals{
			Module: propModule,
			Status: propStatus,
			Offset: propOffset,
			Limit:  propLimit,
		})
		if err != nil {
			return err
		}
		return printReply(props)
	},
}

var votesCmd = &cobra.Command{
	Use:   "votes <module> <proposalid>",
	Short: "List the indexed votes of a proposal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid proposal id: %v", err)
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		votes, err := c.IndexVotes(ctx, args[0], id)
		if err != nil {
			return err
		}
		return printReply(votes)
	},
}

func init() {
	executeCmd.Flags().StringVar(&execFunds, "funds", "",
		"comma separated funds to send, e.g. 10udcr")
	instantiateCmd.Flags().StringVar(&instAdmin, "admin", "",
		"contract admin address")
	instantiateCmd.Flags().StringVar(&instFunds, "funds", "",
		"comma separated funds to send, e.g. 10udcr")
	proposalsCmd.Flags().StringVar(&propModule, "module", "",
		"proposal module address")
	proposalsCmd.Flags().StringVar(&propStatus, "status", "",
		"proposal status, e.g. open")
	proposalsCmd.Flags().IntVar(&propOffset, "offset", 0, "page offset")
	proposalsCmd.Flags().IntVar(&propLimit, "limit", 0, "page size")
	advanceCmd.Flags().Uint64Var(&advanceSecs, "seconds", 0,
		"seconds to add to the block time")
}
