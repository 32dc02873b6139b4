// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/util"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "", "user", "pass", false)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestBalance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet ||
			r.URL.Path != v1.APIRoute+v1.RouteBalance {
			t.Errorf("unexpected request %v %v", r.Method, r.URL)
		}
		var b v1.Balance
		err := util.ParseGetParams(r, &b)
		if err != nil {
			t.Error(err)
		}
		if b.Address != "alice" || b.Denom != "udcr" {
			t.Errorf("unexpected params %+v", b)
		}
		util.RespondWithJSON(w, http.StatusOK, v1.BalanceReply{
			Amount: "42",
		})
	})

	br, err := c.Balance(context.Background(), "alice", "udcr")
	if err != nil {
		t.Fatal(err)
	}
	if br.Amount != "42" {
		t.Fatalf("got amount %v, want 42", br.Amount)
	}
}

func TestMintAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "pass" {
			t.Errorf("unexpected credentials %v %v %v", user, pass, ok)
		}
		util.RespondWithJSON(w, http.StatusOK, v1.MintReply{})
	})

	err := c.Mint(context.Background(), "alice",
		v1.Coin{Denom: "udcr", Amount: "1"})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRespError(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		reply interface{}
		want  ErrorReply
	}{
		{
			"user error",
			http.StatusBadRequest,
			v1.UserErrorReply{
				ErrorCode:    v1.ErrorCodeContractNotFound,
				ErrorContext: "contract9",
			},
			ErrorReply{
				ErrorCode:    int64(v1.ErrorCodeContractNotFound),
				ErrorContext: "contract9",
			},
		},
		{
			"module error",
			http.StatusBadRequest,
			v1.ModuleErrorReply{
				ModuleID:  "proposal",
				ErrorCode: 7,
			},
			ErrorReply{
				ModuleID:  "proposal",
				ErrorCode: 7,
			},
		},
		{
			"server error",
			http.StatusInternalServerError,
			v1.ServerErrorReply{ErrorCode: 1600000000},
			ErrorReply{ErrorCode: 1600000000},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				util.RespondWithJSON(w, tc.code, tc.reply)
			})

			_, err := c.Block(context.Background())
			var re RespError
			if !errors.As(err, &re) {
				t.Fatalf("got error %v, want RespError", err)
			}
			if re.HTTPCode != tc.code || re.ErrorReply != tc.want {
				t.Fatalf("got %+v, want %v %+v", re, tc.code, tc.want)
			}
		})
	}
}
