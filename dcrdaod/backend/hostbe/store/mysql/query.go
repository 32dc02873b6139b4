// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"strings"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
)

const (
	queryPut = "INSERT INTO kv (k, v) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE v = VALUES(v);"
	queryDel = "DELETE FROM kv WHERE k = ?;"
	queryGet = "SELECT v FROM kv WHERE k = ?;"
)

// buildRangeQuery returns the select statement and its arguments for the
// provided range query.
//
// Ex: "SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k DESC LIMIT ?;"
func buildRangeQuery(q store.Query) (string, []interface{}) {
	var (
		sb   strings.Builder
		args = make([]interface{}, 0, 3)
	)
	sb.WriteString("SELECT k, v FROM kv WHERE k >= ?")
	args = append(args, q.Start)
	if q.End != "" {
		sb.WriteString(" AND k < ?")
		args = append(args, q.End)
	}
	if q.Reverse {
		sb.WriteString(" ORDER BY k DESC")
	} else {
		sb.WriteString(" ORDER BY k ASC")
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	sb.WriteString(";")
	return sb.String(), args
}
