// Copyright (c) 2017-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/core"
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
	"github.com/decred/dcrdao/util"
	"github.com/decred/dcrdao/util/version"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type permission uint

const (
	permissionPublic permission = iota
	permissionAuth
)

const (
	// shutdownTimeout is the time that the listeners are given to
	// finish in flight requests on shutdown.
	shutdownTimeout = 10 * time.Second

	// readHeaderTimeout is the time allowed to read the request headers.
	readHeaderTimeout = 10 * time.Second
)

// dcrdao application context.
type dcrdaod struct {
	cfg     *config
	router  *mux.Router
	backend backend.Backend
	index   indexer.Indexer // May be nil
	metrics *daoMetrics
}

// daoCodes returns the module implementations in code ID order. New codes
// must be appended so that the code IDs of existing contracts do not change.
func daoCodes() []modules.Code {
	return []modules.Code{
		core.New(),
		proposal.New(),
		multiple.New(),
		prepropose.New(),
		stake.New(),
		members.New(),
		token.New(),
	}
}

// handleNotFound is a generic handler for an invalid route.
func (d *dcrdaod) handleNotFound(w http.ResponseWriter, r *http.Request) {
	// Log incoming connection
	log.Debugf("Invalid route: %v %v %v %v", util.RemoteAddr(r), r.Method,
		r.URL, r.Proto)

	// Trace incoming request
	log.Tracef("%v", newLogClosure(func() string {
		trace, err := httputil.DumpRequest(r, true)
		if err != nil {
			trace = []byte(fmt.Sprintf("logging: "+
				"DumpRequest %v", err))
		}
		return string(trace)
	}))

	util.RespondWithJSON(w, http.StatusNotFound, v1.ServerErrorReply{})
}

// respondWithError inspects the error type and responds with the
// appropriate HTTP status code and error reply. Errors that were not caused
// by the user are logged along with a unique error code that is returned to
// the client.
func (d *dcrdaod) respondWithError(w http.ResponseWriter, r *http.Request, format string, err error) {
	var (
		ue v1.UserErrorReply
		me backend.ModuleError
	)
	switch {
	case errors.As(err, &ue):
		// User error
		log.Infof("User error: %v %v %v",
			util.RemoteAddr(r), v1.ErrorCodes[ue.ErrorCode], ue.ErrorContext)
		util.RespondWithJSON(w, http.StatusBadRequest, ue)
		return

	case errors.As(err, &me):
		// Module user error
		d.metrics.moduleError(me)
		log.Infof("Module user error: %v %v %v %v",
			util.RemoteAddr(r), me.ModuleID, me.ErrorCode, me.ErrorContext)
		util.RespondWithJSON(w, http.StatusBadRequest,
			v1.ModuleErrorReply{
				ModuleID:     me.ModuleID,
				ErrorCode:    me.ErrorCode,
				ErrorContext: me.ErrorContext,
			})
		return
	}

	if code, ok := convertBackendError(err); ok {
		log.Infof("User error: %v %v %v",
			util.RemoteAddr(r), v1.ErrorCodes[code], err)
		util.RespondWithJSON(w, http.StatusBadRequest,
			v1.UserErrorReply{
				ErrorCode:    code,
				ErrorContext: err.Error(),
			})
		return
	}

	// Error is a server error. Log it and return a 500.
	t := time.Now().Unix()
	e := fmt.Sprintf(format, err)
	log.Errorf("%v %v %v %v Internal error %v: %v",
		util.RemoteAddr(r), r.Method, r.URL, r.Proto, t, e)

	// Print the stack trace if one is available
	if stack, ok := util.StackTrace(err); ok {
		log.Errorf("Stacktrace (NOT A REAL CRASH): %v", stack)
	}

	util.RespondWithJSON(w, http.StatusInternalServerError,
		v1.ServerErrorReply{
			ErrorCode: t,
		})
}

// respondWithUserError responds with a 400 and the provided error code.
func (d *dcrdaod) respondWithUserError(w http.ResponseWriter, r *http.Request, code v1.ErrorCodeT, context string) {
	d.respondWithError(w, r, "", v1.UserErrorReply{
		ErrorCode:    code,
		ErrorContext: context,
	})
}

// check returns whether the provided credentials match the rpc credentials.
func (d *dcrdaod) check(user, pass string) bool {
	u := subtle.ConstantTimeCompare([]byte(user), []byte(d.cfg.RPCUser))
	p := subtle.ConstantTimeCompare([]byte(pass), []byte(d.cfg.RPCPass))
	return u&p == 1
}

// auth verifies the basic auth credentials of a privileged route.
func (d *dcrdaod) auth(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !d.check(user, pass) {
			log.Infof("%v Unauthorized access for: %v",
				util.RemoteAddr(r), user)
			w.Header().Set("WWW-Authenticate",
				`Basic realm="dcrdaod"`)
			util.RespondWithJSON(w, http.StatusUnauthorized,
				v1.UserErrorReply{
					ErrorCode: v1.ErrorCodeInvalidCredentials,
				})
			return
		}
		log.Infof("%v Authorized access for: %v",
			util.RemoteAddr(r), user)
		fn(w, r)
	}
}

// addRoute sets up a handler for a specific method+route. The route is
// prefixed with the API route.
func (d *dcrdaod) addRoute(method string, route string, handler http.HandlerFunc, perm permission) {
	if perm == permissionAuth {
		handler = d.auth(handler)
	}
	handler = d.countRequests(route, handler)

	d.router.StrictSlash(true).
		HandleFunc(v1.APIRoute+route, handler).
		Methods(method)
}

// setupRoutes sets up the router with the middleware and all routes.
func (d *dcrdaod) setupRoutes(g prometheus.Gatherer) {
	d.router = mux.NewRouter()

	// Setup middleware. The middleware is run in the order in which it
	// is registered.
	d.router.Use(bodyMiddleware)
	d.router.Use(loggingMiddleware)
	d.router.Use(d.recoverMiddleware)

	// Handle 404
	d.router.NotFoundHandler = http.HandlerFunc(d.handleNotFound)

	// Public routes
	d.addRoute(http.MethodGet, v1.RouteVersion,
		d.handleVersion, permissionPublic)
	d.addRoute(http.MethodPost, v1.RouteExecute,
		d.handleExecute, permissionPublic)
	d.addRoute(http.MethodPost, v1.RouteInstantiate,
		d.handleInstantiate, permissionPublic)
	d.addRoute(http.MethodPost, v1.RouteQuery,
		d.handleQuery, permissionPublic)
	d.addRoute(http.MethodGet, v1.RouteBalance,
		d.handleBalance, permissionPublic)
	d.addRoute(http.MethodGet, v1.RouteBlock,
		d.handleBlock, permissionPublic)
	d.addRoute(http.MethodGet, v1.RouteCodes,
		d.handleCodes, permissionPublic)
	d.addRoute(http.MethodGet, v1.RouteContract,
		d.handleContract, permissionPublic)
	d.addRoute(http.MethodGet, v1.RouteIndexProposals,
		d.handleIndexProposals, permissionPublic)
	d.addRoute(http.MethodGet, v1.RouteIndexVotes,
		d.handleIndexVotes, permissionPublic)

	// Routes that require auth
	d.addRoute(http.MethodPost, v1.RouteMint,
		d.handleMint, permissionAuth)
	d.addRoute(http.MethodPost, v1.RouteAdvance,
		d.handleAdvance, permissionAuth)

	// Metrics
	d.router.Handle(v1.RouteMetrics,
		promhttp.HandlerFor(g, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
}

// newDcrdaod returns a new application context. The metrics are registered
// with reg and the index is kept up to date with the committed events when
// one is provided.
func newDcrdaod(cfg *config, be backend.Backend, index indexer.Indexer, reg *prometheus.Registry) *dcrdaod {
	d := &dcrdaod{
		cfg:     cfg,
		backend: be,
		index:   index,
		metrics: newMetrics(reg),
	}
	be.Subscribe(d.metrics.handler())
	if index != nil {
		be.Subscribe(indexer.Handler(index))
	}
	if b, err := be.Block(); err == nil {
		d.metrics.setBlock(b)
	}
	d.setupRoutes(reg)
	return d
}

// serve serves the API on all listeners until the context is canceled or a
// listener fails.
func (d *dcrdaod) serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, listen := range d.cfg.Listeners {
		srv := &http.Server{
			Addr:              listen,
			Handler:           d.router,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		g.Go(func() error {
			log.Infof("Listen: %v", srv.Addr)
			var err error
			if d.cfg.DisableTLS {
				err = srv.ListenAndServe()
			} else {
				err = srv.ListenAndServeTLS(d.cfg.HTTPSCert, d.cfg.HTTPSKey)
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(),
				shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	// Tell user we are ready to go.
	log.Infof("Start of day")

	return g.Wait()
}

// openStore opens the configured key-value store.
func openStore(cfg *config) (store.KV, error) {
	log.Infof("Store: %v", cfg.Store)

	switch cfg.Store {
	case storeLevelDB:
		kv, err := localdb.New(cfg.HomeDir, cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case storeBadger:
		kv, err := badgerdb.New(cfg.HomeDir, cfg.DataDir, cfg.EncryptStore)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case storeMySQL:
		kv, err := mysql.New(cfg.DBHost, cfg.DBUser, cfg.DBPass, cfg.DBName)
		if err != nil {
			return nil, err
		}
		return kv, nil
	}
	return nil, fmt.Errorf("invalid store: %v", cfg.Store)
}

// openIndex connects to the proposal index. A nil index is returned when no
// index host is configured.
func openIndex(cfg *config) (indexer.Indexer, error) {
	if cfg.IndexerHost == "" {
		log.Infof("Index: disabled")
		return nil, nil
	}
	c, err := cockroachdb.New(cfg.IndexerHost, cfg.ChainID,
		cfg.IndexerRootCert, cfg.IndexerCert, cfg.IndexerKey)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func _main() error {
	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("Could not load configuration file: %v", err)
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	log.Infof("Version : %v", version.String())
	log.Infof("Build   : %v", version.BuildMainVersion())
	log.Infof("Chain   : %v", cfg.ChainID)
	log.Infof("Home dir: %v", cfg.HomeDir)

	// Create the data directory in case it does not exist.
	err = os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return err
	}

	// Generate the TLS cert and key file if both don't already
	// exist.
	if !cfg.DisableTLS && !util.FileExists(cfg.HTTPSKey) &&
		!util.FileExists(cfg.HTTPSCert) {
		log.Infof("Generating HTTPS keypair...")

		err := util.GenCertPair("dcrdaod", cfg.HTTPSCert, cfg.HTTPSKey)
		if err != nil {
			return fmt.Errorf("unable to create https keypair: %v",
				err)
		}

		log.Infof("HTTPS keypair created...")
	}

	// Load the genesis file
	var g *genesis
	if cfg.Genesis != "" {
		log.Infof("Genesis : %v", cfg.Genesis)
		g, err = loadGenesis(cfg.Genesis)
		if err != nil {
			return err
		}
	}

	// Setup backend
	kv, err := openStore(cfg)
	if err != nil {
		return err
	}
	be, err := hostbe.New(kv, hostbe.Config{
		ChainID:     cfg.ChainID,
		GenesisTime: g.genesisTime(),
		Encrypt:     cfg.EncryptStore,
	}, daoCodes())
	if err != nil {
		kv.Close()
		return err
	}
	defer be.Close()

	// Setup index
	index, err := openIndex(cfg)
	if err != nil {
		return err
	}
	if index != nil {
		defer index.Close()
	}

	// Setup application context
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	d := newDcrdaod(cfg, be, index, reg)

	// Apply the genesis once the index is subscribed so that the genesis
	// contracts are indexed.
	if g != nil {
		err = applyGenesis(be, g, cfg.DataDir)
		if err != nil {
			return fmt.Errorf("genesis: %v", err)
		}
	}

	// Start the block clock
	if cfg.BlockInterval != "" {
		clock := newBlockClock(be, cfg.BlockIntervalSecs, d.metrics.setBlock)
		err = clock.start(cfg.BlockInterval)
		if err != nil {
			return err
		}
		defer clock.stop()
	} else {
		log.Infof("Block clock: disabled")
	}

	// Serve until a signal is received
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = d.serve(ctx)
	if err != nil {
		log.Errorf("%v", err)
	}

	log.Infof("Exiting")

	return err
}

func main() {
	err := _main()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
