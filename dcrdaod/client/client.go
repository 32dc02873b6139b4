// Copyright (c) 2020-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package client provides a client for the dcrdaod HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/util"
	"github.com/gorilla/schema"
)

// Client provides a client for interacting with the dcrdaod API.
type Client struct {
	rpcHost string
	rpcCert string
	rpcUser string
	rpcPass string
	http    *http.Client
}

// ErrorReply represents the request body that is returned from dcrdaod when
// an error occurs. ModuleID will only be populated if the error was returned
// by a module.
type ErrorReply struct {
	ModuleID     string `json:"moduleid"`
	ErrorCode    int64  `json:"errorcode"`
	ErrorContext string `json:"errorcontext"`
}

// RespError represents a dcrdaod response error. A RespError is returned
// anytime the dcrdaod response is not a 200.
type RespError struct {
	HTTPCode   int
	ErrorReply ErrorReply
}

// Error satisfies the error interface.
func (e RespError) Error() string {
	switch {
	case e.ErrorReply.ModuleID != "":
		return fmt.Sprintf("dcrdaod module error: %v %v %v %v",
			e.HTTPCode, e.ErrorReply.ModuleID, e.ErrorReply.ErrorCode,
			e.ErrorReply.ErrorContext)
	case e.HTTPCode == http.StatusBadRequest,
		e.HTTPCode == http.StatusUnauthorized:
		return fmt.Sprintf("dcrdaod error: %v %v %v", e.HTTPCode,
			v1.ErrorCodes[v1.ErrorCodeT(e.ErrorReply.ErrorCode)],
			e.ErrorReply.ErrorContext)
	}
	return fmt.Sprintf("dcrdaod error: %v %v",
		e.HTTPCode, e.ErrorReply.ErrorCode)
}

// makeReq makes a dcrdaod http request to the method and route provided,
// serializing the provided object as the request body or, for GET requests,
// as the query string, and returning a byte slice of the response body. A
// RespError is returned if dcrdaod responds with anything other than a 200
// http status code.
func (c *Client) makeReq(ctx context.Context, method, route string, v interface{}) ([]byte, error) {
	// Serialize body
	var (
		reqBody     []byte
		queryParams string
		err         error
	)
	if v != nil {
		switch method {
		case http.MethodGet:
			form := url.Values{}
			err := schema.NewEncoder().Encode(v, form)
			if err != nil {
				return nil, err
			}
			if len(form) > 0 {
				queryParams = "?" + form.Encode()
			}
		default:
			reqBody, err = json.Marshal(v)
			if err != nil {
				return nil, err
			}
		}
	}

	// Send request
	fullRoute := c.rpcHost + v1.APIRoute + route + queryParams
	req, err := http.NewRequestWithContext(ctx, method,
		fullRoute, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.rpcUser, c.rpcPass)
	r, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	// Handle reply
	if r.StatusCode != http.StatusOK {
		var e ErrorReply
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&e); err != nil {
			return nil, fmt.Errorf("status code %v: %v", r.StatusCode, err)
		}
		return nil, RespError{
			HTTPCode:   r.StatusCode,
			ErrorReply: e,
		}
	}

	return util.RespBody(r), nil
}

// do sends a request and decodes the reply into reply.
func (c *Client) do(ctx context.Context, method, route string, v, reply interface{}) error {
	resBody, err := c.makeReq(ctx, method, route, v)
	if err != nil {
		return err
	}
	err = json.Unmarshal(resBody, reply)
	if err != nil {
		return fmt.Errorf("decode %v reply: %v", route, err)
	}
	return nil
}

// New returns a new dcrdaod client. The rpc credentials are only required
// for the admin routes. Certificate verification is skipped when skipVerify
// is set.
func New(rpcHost, rpcCert, rpcUser, rpcPass string, skipVerify bool) (*Client, error) {
	h, err := util.NewHTTPClient(skipVerify, rpcCert)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpcHost: rpcHost,
		rpcCert: rpcCert,
		rpcUser: rpcUser,
		rpcPass: rpcPass,
		http:    h,
	}, nil
}
