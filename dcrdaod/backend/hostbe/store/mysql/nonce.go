// Copyright (c) 2020-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// insertNonce inserts a new row into the nonce table, incrementing the auto
// increment nonce value.
func (s *mysql) insertNonce(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "INSERT INTO nonce () VALUES ();")
	return err
}

// queryNonce returns the nonce value that was created by the last insert of
// the provided transaction.
func (s *mysql) queryNonce(ctx context.Context, tx *sql.Tx) (int64, error) {
	rows, err := tx.QueryContext(ctx, "SELECT LAST_INSERT_ID();")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var nonce int64
	for rows.Next() {
		if nonce > 0 {
			// There should only ever be one row returned.
			return 0, fmt.Errorf("multiple rows returned for nonce")
		}
		err = rows.Scan(&nonce)
		if err != nil {
			return 0, fmt.Errorf("scan: %v", err)
		}
	}
	err = rows.Err()
	if err != nil {
		return 0, fmt.Errorf("next: %v", err)
	}
	if nonce == 0 {
		return 0, fmt.Errorf("invalid 0 nonce")
	}

	return nonce, nil
}

// nonce returns a new unique nonce value. The nonce table is auto
// incremented inside of the provided transaction so concurrent encryptions
// never share a nonce.
func (s *mysql) nonce(ctx context.Context, tx *sql.Tx) (int64, error) {
	err := s.insertNonce(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("insert nonce: %v", err)
	}
	return s.queryNonce(ctx, tx)
}
