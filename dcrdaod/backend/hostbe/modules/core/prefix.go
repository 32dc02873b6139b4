// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

// proposalModulePrefix returns the prefix of the proposal module with the
// provided registration index: A to Z, then AA, AB and so on.
func proposalModulePrefix(index uint64) string {
	var (
		d      = index + 1
		prefix []byte
	)
	for {
		rem := (d - 1) % 26
		d = (d - rem) / 26
		prefix = append(prefix, byte('A'+rem))
		if d == 0 {
			break
		}
	}
	for i, j := 0, len(prefix)-1; i < j; i, j = i+1, j-1 {
		prefix[i], prefix[j] = prefix[j], prefix[i]
	}
	return string(prefix)
}
