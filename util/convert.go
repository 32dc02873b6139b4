// Copyright (c) 2017-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Digest returns the SHA256 of a byte slice.
func Digest(b []byte) []byte {
	h := sha256.New()
	h.Write(b)
	return h.Sum(nil)
}

// EncodeJSON returns the JSON encoding of v as a string.
func EncodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeJSON decodes the provided JSON string into v. An empty string is
// decoded as an empty JSON object.
func DecodeJSON(s string, v interface{}) error {
	if s == "" {
		s = "{}"
	}
	err := json.Unmarshal([]byte(s), v)
	if err != nil {
		return fmt.Errorf("decode %T: %v", v, err)
	}
	return nil
}
