// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/util"
	"github.com/decred/dcrdao/util/version"
	flags "github.com/jessevdk/go-flags"
	"github.com/robfig/cron"
)

const (
	defaultConfigFilename = "dcrdaod.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "dcrdaod.log"
	defaultGenesisFile    = "genesis.json"

	defaultChainID = "dcrdao-testnet"

	// Store options
	storeLevelDB = "leveldb"
	storeBadger  = "badger"
	storeMySQL   = "mysql"
	defaultStore = storeLevelDB

	defaultDBHost = "localhost:3306"
	defaultDBUser = "dcrdaod"
	defaultDBName = "dcrdao"

	// The block clock produces a block every five seconds by default.
	defaultBlockInterval     = "@every 5s"
	defaultBlockIntervalSecs = 5
)

var (
	defaultHomeDir       = util.CleanAndExpandPath("~/.dcrdaod")
	defaultConfigFile    = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir       = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultHTTPSKeyFile  = filepath.Join(defaultHomeDir, "https.key")
	defaultHTTPSCertFile = filepath.Join(defaultHomeDir, "https.cert")
	defaultLogDir        = filepath.Join(defaultHomeDir, defaultLogDirname)

	// regexpChainID matches valid chain IDs. The chain ID is used in
	// directory and database names.
	regexpChainID = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,49}$`)
)

// config defines the configuration options for dcrdaod.
//
// See loadConfig for details on the configuration load process.
type config struct {
	HomeDir     string   `short:"A" long:"appdata" description:"Path to application home directory"`
	ShowVersion bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string   `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string   `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string   `long:"logdir" description:"Directory to log output"`
	DebugLevel  string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Listeners   []string `long:"listen" description:"Add an interface/port to listen for connections (default all interfaces port: 49380, test chains: 59380)"`
	HTTPSCert   string   `long:"httpscert" description:"File containing the https certificate file"`
	HTTPSKey    string   `long:"httpskey" description:"File containing the https certificate key"`
	DisableTLS  bool     `long:"notls" description:"Serve plain HTTP; only use this behind a TLS terminating proxy or for local development"`
	RPCUser     string   `long:"rpcuser" description:"RPC user name for privileged commands"`
	RPCPass     string   `long:"rpcpass" description:"RPC password for privileged commands"`
	Version     string

	// Store settings
	Store        string `long:"store" description:"Key-value store that holds the module state {leveldb, badger, mysql}"`
	DBHost       string `long:"dbhost" description:"MySQL host"`
	DBUser       string `long:"dbuser" description:"MySQL user"`
	DBPass       string `long:"dbpass" description:"MySQL password; also used to derive the encryption key"`
	DBName       string `long:"dbname" description:"MySQL database name"`
	EncryptStore bool   `long:"encryptstore" description:"Encrypt the module state at rest"`

	// Chain settings
	ChainID           string `long:"chainid" description:"Chain ID of the genesis block"`
	BlockInterval     string `long:"blockinterval" description:"Cron schedule of the block clock, e.g. @every 5s; set to off to only advance blocks through the admin API"`
	BlockIntervalSecs uint64 `long:"blockintervalsecs" description:"Number of seconds the block time advances per produced block"`
	Genesis           string `long:"genesis" description:"JSON file with the initial balances and instantiations; applied once on a new chain"`

	// Index settings
	IndexerHost     string `long:"indexerhost" description:"CockroachDB ip:port of the proposal index; the index is disabled when not set"`
	IndexerRootCert string `long:"indexerrootcert" description:"File containing the CA certificate of the index database"`
	IndexerCert     string `long:"indexercert" description:"File containing the client certificate of the index database"`
	IndexerKey      string `long:"indexerkey" description:"File containing the client certificate key of the index database"`
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace":
		fallthrough
	case "debug":
		fallthrough
	case "info":
		fallthrough
	case "warn":
		fallthrough
	case "error":
		fallthrough
	case "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	// Convert the subsystemLoggers map keys to a slice.
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsytems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly. An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// removeDuplicateAddresses returns a new slice with all duplicate entries in
// addrs removed.
func removeDuplicateAddresses(addrs []string) []string {
	result := make([]string, 0, len(addrs))
	seen := map[string]struct{}{}
	for _, val := range addrs {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// normalizeAddresses returns a new slice with all the passed peer addresses
// normalized with the given default port, and all duplicates removed.
func normalizeAddresses(addrs []string, defaultPort string) []string {
	for i, addr := range addrs {
		addrs[i] = util.NormalizeAddress(addr, defaultPort)
	}

	return removeDuplicateAddresses(addrs)
}

// isTestChain returns whether the chain ID belongs to a test chain. Test
// chains listen on the test port by default.
func isTestChain(chainID string) bool {
	return strings.Contains(chainID, "test") ||
		strings.Contains(chainID, "sim")
}

// validateStore verifies the store settings.
func validateStore(cfg *config) error {
	switch cfg.Store {
	case storeLevelDB, storeBadger:
		// Nothing to verify
	case storeMySQL:
		if cfg.DBPass == "" {
			return fmt.Errorf("dbpass is required for the %v store",
				storeMySQL)
		}
	default:
		return fmt.Errorf("invalid store '%v'; must be one of %v, %v, %v",
			cfg.Store, storeLevelDB, storeBadger, storeMySQL)
	}
	return nil
}

// validateBlockClock verifies the block clock settings. An empty interval
// or "off" disables the clock.
func validateBlockClock(cfg *config) error {
	if cfg.BlockInterval == "" || cfg.BlockInterval == "off" {
		cfg.BlockInterval = ""
		return nil
	}
	_, err := cron.Parse(cfg.BlockInterval)
	if err != nil {
		return fmt.Errorf("invalid blockinterval '%v': %v",
			cfg.BlockInterval, err)
	}
	if cfg.BlockIntervalSecs == 0 {
		return fmt.Errorf("blockintervalsecs must be greater than zero")
	}
	return nil
}

// validateIndexer verifies that the index certificates are provided when an
// index host is configured.
func validateIndexer(cfg *config) error {
	if cfg.IndexerHost == "" {
		return nil
	}
	cfg.IndexerRootCert = util.CleanAndExpandPath(cfg.IndexerRootCert)
	cfg.IndexerCert = util.CleanAndExpandPath(cfg.IndexerCert)
	cfg.IndexerKey = util.CleanAndExpandPath(cfg.IndexerKey)
	switch {
	case cfg.IndexerRootCert == "":
		return fmt.Errorf("indexerrootcert is required")
	case cfg.IndexerCert == "":
		return fmt.Errorf("indexercert is required")
	case cfg.IndexerKey == "":
		return fmt.Errorf("indexerkey is required")
	}
	return nil
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in daemon functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options. Command line options always take precedence.
func loadConfig() (*config, []string, error) {
	// Default config.
	cfg := config{
		HomeDir:           defaultHomeDir,
		ConfigFile:        defaultConfigFile,
		DebugLevel:        defaultLogLevel,
		DataDir:           defaultDataDir,
		LogDir:            defaultLogDir,
		HTTPSKey:          defaultHTTPSKeyFile,
		HTTPSCert:         defaultHTTPSCertFile,
		Version:           version.String(),
		Store:             defaultStore,
		DBHost:            defaultDBHost,
		DBUser:            defaultDBUser,
		DBName:            defaultDBName,
		ChainID:           defaultChainID,
		BlockInterval:     defaultBlockInterval,
		BlockIntervalSecs: defaultBlockIntervalSecs,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(0)
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, version.String())
		os.Exit(0)
	}

	// Update the home directory if specified. Since the home directory
	// is updated, other variables need to be updated to reflect the new
	// changes.
	if preCfg.HomeDir != "" {
		cfg.HomeDir, _ = filepath.Abs(preCfg.HomeDir)

		if preCfg.ConfigFile == defaultConfigFile {
			cfg.ConfigFile = filepath.Join(cfg.HomeDir, defaultConfigFilename)
		} else {
			cfg.ConfigFile = preCfg.ConfigFile
		}
		if preCfg.DataDir == defaultDataDir {
			cfg.DataDir = filepath.Join(cfg.HomeDir, defaultDataDirname)
		} else {
			cfg.DataDir = preCfg.DataDir
		}
		if preCfg.HTTPSKey == defaultHTTPSKeyFile {
			cfg.HTTPSKey = filepath.Join(cfg.HomeDir, "https.key")
		} else {
			cfg.HTTPSKey = preCfg.HTTPSKey
		}
		if preCfg.HTTPSCert == defaultHTTPSCertFile {
			cfg.HTTPSCert = filepath.Join(cfg.HomeDir, "https.cert")
		} else {
			cfg.HTTPSCert = preCfg.HTTPSCert
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		} else {
			cfg.LogDir = preCfg.LogDir
		}
	}

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(cfg.ConfigFile)
	if err != nil {
		var e *os.PathError
		if !errors.As(err, &e) {
			fmt.Fprintf(os.Stderr, "Error parsing config "+
				"file: %v\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	// Create the home directory if it doesn't already exist.
	funcName := "loadConfig"
	err = os.MkdirAll(cfg.HomeDir, 0700)
	if err != nil {
		// Show a nicer error message if it's because a symlink is
		// linked to a directory that does not exist (probably because
		// it's not mounted).
		var e *os.PathError
		if errors.As(err, &e) && os.IsExist(err) {
			if link, lerr := os.Readlink(e.Path); lerr == nil {
				str := "is symlink %s -> %s mounted?"
				err = fmt.Errorf(str, e.Path, link)
			}
		}

		str := "%s: failed to create home directory: %v"
		err := fmt.Errorf(str, funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Validate the chain ID
	if !regexpChainID.MatchString(cfg.ChainID) {
		err := fmt.Errorf("%s: invalid chainid '%v'", funcName, cfg.ChainID)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	port := v1.DefaultMainnetPort
	if isTestChain(cfg.ChainID) {
		port = v1.DefaultTestnetPort
	}

	// Namespace the data and log directories per chain.
	cfg.DataDir = util.CleanAndExpandPath(cfg.DataDir)
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.ChainID)
	cfg.LogDir = util.CleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.ChainID)

	cfg.HTTPSKey = util.CleanAndExpandPath(cfg.HTTPSKey)
	cfg.HTTPSCert = util.CleanAndExpandPath(cfg.HTTPSCert)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation. After log rotation has been initialized,
	// the logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err.Error())
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Add the default listener if none were specified. The default
	// listener is all addresses on the listen port for the chain.
	if len(cfg.Listeners) == 0 {
		cfg.Listeners = []string{
			net.JoinHostPort("", port),
		}
	}

	// Add default port to all listener addresses if needed and remove
	// duplicate addresses.
	cfg.Listeners = normalizeAddresses(cfg.Listeners, port)

	// Validate the remaining settings
	for _, fn := range []func(*config) error{
		validateStore,
		validateBlockClock,
		validateIndexer,
	} {
		if err := fn(&cfg); err != nil {
			err := fmt.Errorf("%s: %v", funcName, err)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	// The genesis file is optional. The default file is only used when
	// it exists.
	if cfg.Genesis == "" {
		fp := filepath.Join(cfg.HomeDir, defaultGenesisFile)
		if util.FileExists(fp) {
			cfg.Genesis = fp
		}
	}
	cfg.Genesis = util.CleanAndExpandPath(cfg.Genesis)

	// Set random username and password when not specified
	if cfg.RPCUser == "" {
		name, err := util.Random(32)
		if err != nil {
			return nil, nil, err
		}
		cfg.RPCUser = base64.StdEncoding.EncodeToString(name)
		log.Warnf("RPC user name not set, using random value")
	}
	if cfg.RPCPass == "" {
		pass, err := util.Random(32)
		if err != nil {
			return nil, nil, err
		}
		cfg.RPCPass = base64.StdEncoding.EncodeToString(pass)
		log.Warnf("RPC password not set, using random value")
	}

	// Warn about missing config file only after all other configuration is
	// done. This prevents the warning on help messages and invalid
	// options. Note this should go directly before the return.
	if configFileError != nil {
		log.Warnf("%v", configFileError)
	}

	return &cfg, remainingArgs, nil
}
