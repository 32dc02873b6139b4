// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/daotest"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/indexer"
	"github.com/decred/dcrdao/dcrdaod/modules/members"
	"github.com/decred/dcrdao/dcrdaod/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/voting"
	"github.com/decred/dcrdao/unittest"
	"github.com/decred/dcrdao/util"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"
)

const (
	testRPCUser = "user"
	testRPCPass = "pass"
)

// fakeIndex is an index that returns fixed results.
type fakeIndex struct {
	proposals []indexer.Proposal
	votes     []indexer.Vote
	query     indexer.Query
}

func (f *fakeIndex) Apply(indexer.Batch) error { return nil }

func (f *fakeIndex) Proposals(q indexer.Query) ([]indexer.Proposal, error) {
	f.query = q
	return f.proposals, nil
}

func (f *fakeIndex) Votes(module string, proposalID uint64) ([]indexer.Vote, error) {
	return f.votes, nil
}

func (f *fakeIndex) Close() error { return nil }

func newTestDcrdaod(t *testing.T, index indexer.Indexer) (*dcrdaod, *daotest.Harness) {
	t.Helper()

	h := daotest.New(t)
	cfg := &config{
		RPCUser: testRPCUser,
		RPCPass: testRPCPass,
		ChainID: hostbe.TestChainID,
	}
	return newDcrdaod(cfg, h.Host, index, prometheus.NewRegistry()), h
}

type testRequest struct {
	method string
	route  string
	body   interface{}
	auth   bool
}

func (d *dcrdaod) do(t *testing.T, req testRequest) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader = http.NoBody
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	r := httptest.NewRequest(req.method, req.route, body)
	if req.auth {
		r.SetBasicAuth(testRPCUser, testRPCPass)
	}
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, r)
	return w
}

func decodeReply(t *testing.T, w *httptest.ResponseRecorder, code int, reply interface{}) {
	t.Helper()

	if w.Code != code {
		t.Fatalf("got status %v, want %v: %s", w.Code, code, w.Body.Bytes())
	}
	err := json.Unmarshal(w.Body.Bytes(), reply)
	if err != nil {
		t.Fatal(err)
	}
}

func TestHandleBlockAndVersion(t *testing.T) {
	d, _ := newTestDcrdaod(t, nil)

	var br v1.BlockReply
	w := d.do(t, testRequest{method: http.MethodGet,
		route: v1.APIRoute + v1.RouteBlock})
	decodeReply(t, w, http.StatusOK, &br)
	want := v1.BlockReply{
		Height:  1,
		Time:    uint64(hostbe.TestGenesisTime.Unix()),
		ChainID: hostbe.TestChainID,
	}
	if diff := unittest.DeepEqual(br, want); diff != "" {
		t.Fatal(diff)
	}

	var vr v1.VersionReply
	w = d.do(t, testRequest{method: http.MethodGet,
		route: v1.APIRoute + v1.RouteVersion})
	decodeReply(t, w, http.StatusOK, &vr)
	if vr.Version == "" || vr.Height != 1 {
		t.Fatalf("unexpected version reply %+v", vr)
	}
}

func TestHandleCodes(t *testing.T) {
	d, _ := newTestDcrdaod(t, nil)

	var cr v1.CodesReply
	w := d.do(t, testRequest{method: http.MethodGet,
		route: v1.APIRoute + v1.RouteCodes})
	decodeReply(t, w, http.StatusOK, &cr)
	codes := daoCodes()
	if len(cr.Codes) != len(codes) {
		t.Fatalf("got %v codes, want %v", len(cr.Codes), len(codes))
	}
	for i, c := range cr.Codes {
		if c.CodeID != uint64(i+1) || c.Name != codes[i].Name {
			t.Fatalf("unexpected code %+v at %v", c, i)
		}
	}
}

func TestAuth(t *testing.T) {
	d, _ := newTestDcrdaod(t, nil)

	mint := v1.Mint{
		Address: "alice",
		Amount:  v1.Coin{Denom: daotest.Denom, Amount: "100"},
	}
	tests := []struct {
		name string
		user string
		pass string
		set  bool
	}{
		{"no credentials", "", "", false},
		{"wrong user", "nobody", testRPCPass, true},
		{"wrong password", testRPCUser, "nope", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(mint)
			if err != nil {
				t.Fatal(err)
			}
			r := httptest.NewRequest(http.MethodPost,
				v1.APIRoute+v1.RouteMint, bytes.NewReader(b))
			if tc.set {
				r.SetBasicAuth(tc.user, tc.pass)
			}
			w := httptest.NewRecorder()
			d.router.ServeHTTP(w, r)

			var ue v1.UserErrorReply
			decodeReply(t, w, http.StatusUnauthorized, &ue)
			if ue.ErrorCode != v1.ErrorCodeInvalidCredentials {
				t.Fatalf("got error code %v, want %v", ue.ErrorCode,
					v1.ErrorCodeInvalidCredentials)
			}
		})
	}
}

func TestHandleMintAndBalance(t *testing.T) {
	d, _ := newTestDcrdaod(t, nil)

	var mr v1.MintReply
	w := d.do(t, testRequest{
		method: http.MethodPost,
		route:  v1.APIRoute + v1.RouteMint,
		body: v1.Mint{
			Address: "alice",
			Amount:  v1.Coin{Denom: daotest.Denom, Amount: "100"},
		},
		auth: true,
	})
	decodeReply(t, w, http.StatusOK, &mr)

	var br v1.BalanceReply
	w = d.do(t, testRequest{
		method: http.MethodGet,
		route: v1.APIRoute + v1.RouteBalance + "?address=alice&denom=" +
			daotest.Denom,
	})
	decodeReply(t, w, http.StatusOK, &br)
	if br.Amount != "100" {
		t.Fatalf("got balance %v, want 100", br.Amount)
	}

	// Invalid amounts
	for _, amount := range []string{"abc", "0"} {
		var ue v1.UserErrorReply
		w = d.do(t, testRequest{
			method: http.MethodPost,
			route:  v1.APIRoute + v1.RouteMint,
			body: v1.Mint{
				Address: "alice",
				Amount:  v1.Coin{Denom: daotest.Denom, Amount: amount},
			},
			auth: true,
		})
		decodeReply(t, w, http.StatusBadRequest, &ue)
		if ue.ErrorCode != v1.ErrorCodeCoinsInvalid {
			t.Fatalf("amount %q: got error code %v, want %v", amount,
				ue.ErrorCode, v1.ErrorCodeCoinsInvalid)
		}
	}
}

func TestHandleAdvance(t *testing.T) {
	d, _ := newTestDcrdaod(t, nil)

	var ar v1.AdvanceReply
	w := d.do(t, testRequest{
		method: http.MethodPost,
		route:  v1.APIRoute + v1.RouteAdvance,
		body:   v1.Advance{Heights: 2, Seconds: 10},
		auth:   true,
	})
	decodeReply(t, w, http.StatusOK, &ar)
	if ar.Block.Height != 3 ||
		ar.Block.Time != uint64(hostbe.TestGenesisTime.Unix())+10 {
		t.Fatalf("unexpected block %+v", ar.Block)
	}

	var ue v1.UserErrorReply
	w = d.do(t, testRequest{
		method: http.MethodPost,
		route:  v1.APIRoute + v1.RouteAdvance,
		body:   v1.Advance{},
		auth:   true,
	})
	decodeReply(t, w, http.StatusBadRequest, &ue)
	if ue.ErrorCode != v1.ErrorCodeInputInvalid {
		t.Fatalf("got error code %v, want %v", ue.ErrorCode,
			v1.ErrorCodeInputInvalid)
	}
}

func TestHandleExecuteAndQuery(t *testing.T) {
	d, h := newTestDcrdaod(t, nil)

	dao := h.MembersDao(
		members.Member{Addr: "alice", Weight: 1},
	)
	h.Advance(1, 5)
	pm := dao.Proposal()

	// Propose
	var er v1.ExecuteReply
	w := d.do(t, testRequest{
		method: http.MethodPost,
		route:  v1.APIRoute + v1.RouteExecute,
		body: v1.Execute{
			Sender:   "alice",
			Contract: pm,
			Cmd:      proposal.CmdPropose,
			Payload: h.Encode(proposal.Propose{
				Title:       "title",
				Description: "description",
			}),
		},
	})
	decodeReply(t, w, http.StatusOK, &er)
	var found bool
	for _, e := range er.Events {
		for _, a := range e.Attributes {
			if a.Key == "action" && a.Value == proposal.CmdPropose {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("propose event not found in %+v", er.Events)
	}

	// Query the proposal
	var qr v1.QueryReply
	w = d.do(t, testRequest{
		method: http.MethodPost,
		route:  v1.APIRoute + v1.RouteQuery,
		body: v1.Query{
			Contract: pm,
			Cmd:      proposal.CmdProposal,
			Payload:  h.Encode(proposal.ProposalQuery{ProposalID: 1}),
		},
	})
	decodeReply(t, w, http.StatusOK, &qr)
	var pr proposal.ProposalReply
	err := util.DecodeJSON(qr.Payload, &pr)
	if err != nil {
		t.Fatal(err)
	}
	if pr.ID != 1 || pr.Proposal.Proposer != "alice" ||
		pr.Proposal.Status.Type != voting.StatusOpen {
		t.Fatalf("unexpected proposal %+v", pr)
	}

	// A vote without voting power is rejected by the module
	var me v1.ModuleErrorReply
	w = d.do(t, testRequest{
		method: http.MethodPost,
		route:  v1.APIRoute + v1.RouteExecute,
		body: v1.Execute{
			Sender:   "carol",
			Contract: pm,
			Cmd:      proposal.CmdVote,
			Payload: h.Encode(proposal.Vote{
				ProposalID: 1,
				Vote:       voting.VoteYes,
			}),
		},
	})
	decodeReply(t, w, http.StatusBadRequest, &me)
	if me.ModuleID != proposal.ID ||
		me.ErrorCode != uint32(proposal.ErrorCodeNotRegistered) {
		t.Fatalf("unexpected module error %+v", me)
	}

	// Contract info
	var cr v1.ContractReply
	w = d.do(t, testRequest{
		method: http.MethodGet,
		route:  v1.APIRoute + v1.RouteContract + "?address=" + pm,
	})
	decodeReply(t, w, http.StatusOK, &cr)
	if cr.Address != pm || cr.CodeID != h.CodeID(proposal.ID) {
		t.Fatalf("unexpected contract %+v", cr)
	}
}

func TestHandleUserErrors(t *testing.T) {
	d, h := newTestDcrdaod(t, nil)

	tests := []struct {
		name string
		req  testRequest
		want v1.ErrorCodeT
	}{
		{
			"contract not found",
			testRequest{
				method: http.MethodPost,
				route:  v1.APIRoute + v1.RouteExecute,
				body: v1.Execute{
					Sender:   "alice",
					Contract: "nocontract",
					Cmd:      proposal.CmdPropose,
					Payload:  "{}",
				},
			},
			v1.ErrorCodeContractNotFound,
		},
		{
			"invalid sender",
			testRequest{
				method: http.MethodPost,
				route:  v1.APIRoute + v1.RouteExecute,
				body: v1.Execute{
					Sender:   "A",
					Contract: "nocontract",
					Cmd:      proposal.CmdPropose,
					Payload:  "{}",
				},
			},
			v1.ErrorCodeAddressInvalid,
		},
		{
			"code not found",
			testRequest{
				method: http.MethodPost,
				route:  v1.APIRoute + v1.RouteInstantiate,
				body: v1.Instantiate{
					Sender:  "alice",
					CodeID:  1000,
					Label:   "label",
					Payload: "{}",
				},
			},
			v1.ErrorCodeCodeNotFound,
		},
		{
			"insufficient funds",
			testRequest{
				method: http.MethodPost,
				route:  v1.APIRoute + v1.RouteInstantiate,
				body: v1.Instantiate{
					Sender: "alice",
					CodeID: h.CodeID(members.ID),
					Label:  "members",
					Payload: h.Encode(members.Instantiate{
						Members: []members.Member{{Addr: "alice", Weight: 1}},
					}),
					Funds: []v1.Coin{{Denom: daotest.Denom, Amount: "5"}},
				},
			},
			v1.ErrorCodeInsufficientFunds,
		},
		{
			"contract info not found",
			testRequest{
				method: http.MethodGet,
				route:  v1.APIRoute + v1.RouteContract + "?address=nocontract",
			},
			v1.ErrorCodeContractNotFound,
		},
		{
			"index disabled",
			testRequest{
				method: http.MethodGet,
				route:  v1.APIRoute + v1.RouteIndexProposals,
			},
			v1.ErrorCodeIndexDisabled,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ue v1.UserErrorReply
			w := d.do(t, tc.req)
			decodeReply(t, w, http.StatusBadRequest, &ue)
			if ue.ErrorCode != tc.want {
				t.Fatalf("got error code %v, want %v", ue.ErrorCode,
					tc.want)
			}
		})
	}
}

func TestHandleInvalidBody(t *testing.T) {
	d, _ := newTestDcrdaod(t, nil)

	r := httptest.NewRequest(http.MethodPost, v1.APIRoute+v1.RouteExecute,
		strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, r)

	var ue v1.UserErrorReply
	decodeReply(t, w, http.StatusBadRequest, &ue)
	if ue.ErrorCode != v1.ErrorCodeInputInvalid {
		t.Fatalf("got error code %v, want %v", ue.ErrorCode,
			v1.ErrorCodeInputInvalid)
	}
}

func TestHandleIndex(t *testing.T) {
	index := &fakeIndex{
		proposals: []indexer.Proposal{{
			Module:     "contract2",
			ProposalID: 1,
			Proposer:   "alice",
			Status:     voting.StatusOpen.String(),
			Height:     2,
			Timestamp:  1600000005,
		}},
		votes: []indexer.Vote{{
			Module:     "contract2",
			ProposalID: 1,
			Voter:      "alice",
			Vote:       voting.VoteYes.String(),
			Power:      "1",
			Height:     3,
		}},
	}
	d, _ := newTestDcrdaod(t, index)

	var pr v1.IndexProposalsReply
	w := d.do(t, testRequest{
		method: http.MethodGet,
		route: v1.APIRoute + v1.RouteIndexProposals +
			"?module=contract2&status=open&limit=5",
	})
	decodeReply(t, w, http.StatusOK, &pr)
	wantQuery := indexer.Query{
		Module: "contract2",
		Status: "open",
		Limit:  5,
	}
	if diff := unittest.DeepEqual(index.query, wantQuery); diff != "" {
		t.Fatal(diff)
	}
	if len(pr.Proposals) != 1 || pr.Proposals[0].Proposer != "alice" {
		t.Fatalf("unexpected proposals %+v", pr.Proposals)
	}

	var vr v1.IndexVotesReply
	w = d.do(t, testRequest{
		method: http.MethodGet,
		route: v1.APIRoute + v1.RouteIndexVotes +
			"?module=contract2&proposalid=1",
	})
	decodeReply(t, w, http.StatusOK, &vr)
	want := []v1.IndexVote{{
		Voter:  "alice",
		Vote:   voting.VoteYes.String(),
		Power:  "1",
		Height: 3,
	}}
	if diff := unittest.DeepEqual(vr.Votes, want); diff != "" {
		t.Fatal(diff)
	}

	// Negative offsets are rejected
	var ue v1.UserErrorReply
	w = d.do(t, testRequest{
		method: http.MethodGet,
		route:  v1.APIRoute + v1.RouteIndexProposals + "?offset=-1",
	})
	decodeReply(t, w, http.StatusBadRequest, &ue)
	if ue.ErrorCode != v1.ErrorCodeInputInvalid {
		t.Fatalf("got error code %v, want %v", ue.ErrorCode,
			v1.ErrorCodeInputInvalid)
	}
}

func TestHandleNotFound(t *testing.T) {
	d, _ := newTestDcrdaod(t, nil)

	w := d.do(t, testRequest{method: http.MethodGet, route: "/v1/nope"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestMetrics(t *testing.T) {
	d, h := newTestDcrdaod(t, nil)

	h.Mint("alice", 10)
	d.do(t, testRequest{method: http.MethodGet,
		route: v1.APIRoute + v1.RouteBlock})

	w := d.do(t, testRequest{method: http.MethodGet, route: v1.RouteMetrics})
	if w.Code != http.StatusOK {
		t.Fatalf("got status %v, want %v", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, v := range []string{
		`dcrdaod_block_height 1`,
		`dcrdaod_transactions_total{type="mint"} 1`,
		`dcrdaod_http_requests_total{code="200",route="/block"} 1`,
	} {
		if !strings.Contains(body, v) {
			t.Fatalf("metric %q not found in:\n%v", v, body)
		}
	}
}

func TestBlockClock(t *testing.T) {
	h := daotest.New(t)

	var got []block.Info
	c := newBlockClock(h.Host, 5, func(b block.Info) {
		got = append(got, b)
	})
	for i := 0; i < 2; i++ {
		_, err := c.tick()
		if err != nil {
			t.Fatal(err)
		}
	}
	gt := uint64(hostbe.TestGenesisTime.Unix())
	want := []block.Info{
		{Height: 2, Time: gt + 5, ChainID: hostbe.TestChainID},
		{Height: 3, Time: gt + 10, ChainID: hostbe.TestChainID},
	}
	if diff := unittest.DeepEqual(got, want); diff != "" {
		t.Fatal(diff)
	}

	// The scheduler goroutine exits on stop
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	err := c.start("@every 1h")
	if err != nil {
		t.Fatal(err)
	}
	c.stop()
}

func TestApplyGenesis(t *testing.T) {
	h := daotest.New(t)
	dataDir := t.TempDir()

	payload, err := json.Marshal(members.Instantiate{
		Members: []members.Member{{Addr: "alice", Weight: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	g := &genesis{
		Balances: []genesisBalance{{
			Address: "alice",
			Coins:   []v1.Coin{{Denom: daotest.Denom, Amount: "100"}},
		}},
		Contracts: []genesisContract{{
			Sender:  "alice",
			Code:    members.ID,
			Label:   "members",
			Payload: payload,
		}},
	}
	err = applyGenesis(h.Host, g, dataDir)
	if err != nil {
		t.Fatal(err)
	}

	// The genesis is only applied once
	err = applyGenesis(h.Host, g, dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if b := h.Balance("alice"); b.String() != "100" {
		t.Fatalf("got balance %v, want 100", b)
	}

	b, err := os.ReadFile(filepath.Join(dataDir, genesisFilename))
	if err != nil {
		t.Fatal(err)
	}
	var rec genesisRecord
	err = json.Unmarshal(b, &rec)
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Contracts) != 1 {
		t.Fatalf("got %v contracts, want 1", len(rec.Contracts))
	}
	ci, err := h.Host.ContractInfo(rec.Contracts[0])
	if err != nil {
		t.Fatal(err)
	}
	if ci.CodeID != h.CodeID(members.ID) || ci.Label != "members" {
		t.Fatalf("unexpected contract %+v", ci)
	}

	// Unknown codes are rejected
	g.Contracts[0].Code = "unknown"
	err = applyGenesis(h.Host, g, t.TempDir())
	if err == nil {
		t.Fatal("expected error for unknown code")
	}
}

func TestRecoverMiddleware(t *testing.T) {
	d, _ := newTestDcrdaod(t, nil)

	h := d.recoverMiddleware(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			panic("handler bug")
		}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		v1.APIRoute+v1.RouteBlock, nil))

	var se v1.ServerErrorReply
	decodeReply(t, w, http.StatusInternalServerError, &se)
	if se.ErrorCode == 0 {
		t.Fatalf("missing error code")
	}

	w = d.do(t, testRequest{method: http.MethodGet, route: v1.RouteMetrics})
	if !strings.Contains(w.Body.String(), "dcrdaod_http_panics_total 1") {
		t.Fatalf("panic not counted:\n%v", w.Body.String())
	}
}

func TestDumpRequest(t *testing.T) {
	body := `{"address":"alice"}`
	r := httptest.NewRequest(http.MethodPost, v1.APIRoute+v1.RouteMint,
		strings.NewReader(body))
	r.SetBasicAuth(testRPCUser, testRPCPass)

	trace := dumpRequest(r)
	if strings.Contains(trace, "Basic ") {
		t.Fatalf("credentials logged:\n%v", trace)
	}
	if !strings.Contains(trace, redacted) || !strings.Contains(trace, body) {
		t.Fatalf("unexpected trace:\n%v", trace)
	}

	// The handler still sees the full body.
	b, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != body {
		t.Fatalf("got body %q, want %q", b, body)
	}
	if _, _, ok := r.BasicAuth(); !ok {
		t.Fatalf("credentials removed from the request")
	}
}
