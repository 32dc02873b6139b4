// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"runtime/debug"
	"time"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/util"
)

const (
	// reqBodySizeLimit is the largest command payload the API accepts.
	reqBodySizeLimit = 1 * 1024 * 1024 // 1 MiB

	// redacted replaces the rpc credentials in request traces.
	redacted = "[redacted]"
)

// bodyMiddleware limits the size of the request body and closes it once the
// handler returns.
func bodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, reqBodySizeLimit)
		next.ServeHTTP(w, r)
		r.Body.Close()
	})
}

// dumpRequest returns the request for trace logging. The basic auth header
// of the admin routes is never logged. The clone shares the body with r, so
// the copy that is left behind by the dump is handed back to r.
func dumpRequest(r *http.Request) string {
	rc := r.Clone(r.Context())
	if rc.Header.Get("Authorization") != "" {
		rc.Header.Set("Authorization", redacted)
	}
	trace, err := httputil.DumpRequest(rc, true)
	r.Body = rc.Body
	if err != nil {
		return fmt.Sprintf("dumpRequest: %v", err)
	}
	return string(trace)
}

// loggingMiddleware logs every API call before it is handled. The request is
// only dumped at trace level.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Tracef("%v", newLogClosure(func() string {
			return dumpRequest(r)
		}))
		log.Infof("%v %v %v", util.RemoteAddr(r), r.Method, r.URL.Path)

		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a panicking handler into a 500 reply with a unix
// time error code, the same way internal errors are reported.
func (d *dcrdaod) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			errorCode := time.Now().Unix()
			log.Criticalf("%v %v %v: panic %v: %v", util.RemoteAddr(r),
				r.Method, r.URL.Path, errorCode, p)
			log.Criticalf("Stacktrace: %s", debug.Stack())
			d.metrics.recovered()

			util.RespondWithJSON(w, http.StatusInternalServerError,
				v1.ServerErrorReply{
					ErrorCode: errorCode,
				})
		}()

		next.ServeHTTP(w, r)
	})
}

// statusRecorder records the status code of a response.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

// WriteHeader satisfies the http ResponseWriter interface.
func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// countRequests counts the requests of a route by response status code.
func (d *dcrdaod) countRequests(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{
			ResponseWriter: w,
			code:           http.StatusOK,
		}
		next(rec, r)
		d.metrics.request(route, rec.code)
	}
}
