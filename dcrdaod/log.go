// Copyright (c) 2017-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/core"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/dao"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/members"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/multiple"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/prepropose"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/stake"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/token"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store/badgerdb"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store/localdb"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store/mysql"
	"github.com/decred/dcrdao/dcrdaod/indexer"
	"github.com/decred/dcrdao/dcrdaod/indexer/cockroachdb"
	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator == nil {
		return len(p), nil
	}
	return logRotator.Write(p)
}

// Loggers per subsystem. A single backend logger is created and all subsytem
// loggers created from it will write to the backend. When adding new
// subsystems, add the subsystem logger variable here and to the
// subsystemLoggers map.
//
// Loggers can not be used before the log rotator has been initialized with a
// log file. This must be performed early during application startup by
// calling initLogRotator.
var (
	// backendLog is the logging backend used to create all subsystem
	// loggers.
	backendLog = slog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	log        = backendLog.Logger("DAOD")
	hostLog    = backendLog.Logger("HOST")
	storeLog   = backendLog.Logger("STOR")
	coreLog    = backendLog.Logger("CORE")
	propLog    = backendLog.Logger("PROP")
	multLog    = backendLog.Logger("MULT")
	prepLog    = backendLog.Logger("PREP")
	stakeLog   = backendLog.Logger("STAK")
	membersLog = backendLog.Logger("MEMB")
	tokenLog   = backendLog.Logger("TOKN")
	hookLog    = backendLog.Logger("HOOK")
	indexLog   = backendLog.Logger("INDX")
)

// Initialize package-global logger variables.
func init() {
	hostbe.UseLogger(hostLog)
	store.UseLogger(storeLog)
	localdb.UseLogger(storeLog)
	badgerdb.UseLogger(storeLog)
	mysql.UseLogger(storeLog)
	core.UseLogger(coreLog)
	proposal.UseLogger(propLog)
	dao.UseLogger(propLog)
	multiple.UseLogger(multLog)
	prepropose.UseLogger(prepLog)
	stake.UseLogger(stakeLog)
	members.UseLogger(membersLog)
	token.UseLogger(tokenLog)
	hooks.UseLogger(hookLog)
	indexer.UseLogger(indexLog)
	cockroachdb.UseLogger(indexLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]slog.Logger{
	"DAOD": log,
	"HOST": hostLog,
	"STOR": storeLog,
	"CORE": coreLog,
	"PROP": propLog,
	"MULT": multLog,
	"PREP": prepLog,
	"STAK": stakeLog,
	"MEMB": membersLog,
	"TOKN": tokenLog,
	"HOOK": hookLog,
	"INDX": indexLog,
}

// initLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotater variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	logRotator = r
}

// setLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	// Ignore invalid subsystems.
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := slog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the passed
// level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}

// logClosure is a closure that can be printed with %v to be used to
// generate expensive-to-create data for a detailed log level and avoid doing
// the work if the data isn't printed.
type logClosure func() string

func (c logClosure) String() string {
	return c()
}

func newLogClosure(c func() string) logClosure {
	return logClosure(c)
}
