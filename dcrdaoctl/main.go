// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// dcrdaoctl is a command line client for the dcrdaod HTTP API.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/dcrdaod/client"
	"github.com/decred/dcrdao/util"
	"github.com/decred/dcrdao/util/version"
	"github.com/spf13/cobra"
)

const (
	programName = "dcrdaoctl"

	defaultTimeout = 30 * time.Second
)

var (
	defaultHost = "https://" + net.JoinHostPort("127.0.0.1",
		v1.DefaultTestnetPort)
	defaultHTTPSCert = util.CleanAndExpandPath("~/.dcrdaod/https.cert")

	globalFlags = struct {
		host       string
		user       string
		pass       string
		cert       string
		skipVerify bool
		timeout    time.Duration
	}{}

	// c is the dcrdaod client. It is set up before any command runs.
	c *client.Client
)

var rootCmd = &cobra.Command{
	Use:           programName,
	Short:         "Command line client for dcrdaod",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cert := globalFlags.cert
		if !util.FileExists(cert) {
			// Fall back to the system cert pool
			cert = ""
		}
		var err error
		c, err = client.New(globalFlags.host, cert, globalFlags.user,
			globalFlags.pass, globalFlags.skipVerify)
		return err
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&globalFlags.host, "host", defaultHost, "dcrdaod host")
	f.StringVar(&globalFlags.user, "user", "", "dcrdaod rpc user name")
	f.StringVar(&globalFlags.pass, "pass", "", "dcrdaod rpc password")
	f.StringVar(&globalFlags.cert, "cert", defaultHTTPSCert,
		"dcrdaod https certificate")
	f.BoolVar(&globalFlags.skipVerify, "skipverify", false,
		"skip TLS certificate verification")
	f.DurationVar(&globalFlags.timeout, "timeout", defaultTimeout,
		"request timeout")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(contractCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(mintCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(instantiateCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(proposalsCmd)
	rootCmd.AddCommand(votesCmd)
}

// requestContext returns the context of a single request.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), globalFlags.timeout)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
