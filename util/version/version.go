// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version provides the semantic version of the dcrdao binaries.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

const (
	// Semantic version components.
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

var (
	// PreRelease is the pre-release portion of the version. It can be
	// set at link time with
	// -ldflags "-X github.com/decred/dcrdao/util/version.PreRelease=foo".
	PreRelease = "pre"

	// BuildMetadata is the build metadata portion of the version. It can
	// be set at link time in the same way as PreRelease.
	BuildMetadata = ""
)

// String returns the application version as a properly formed string per the
// semantic versioning 2.0.0 spec (https://semver.org/).
func String() string {
	v := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if PreRelease != "" {
		v += "-" + PreRelease
	}
	if BuildMetadata != "" {
		v += "+" + BuildMetadata
	}
	return v
}

// BuildMainVersion returns the version of the main module as recorded by the
// go toolchain, or "(devel)" when the build info is unavailable.
func BuildMainVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return strings.TrimSpace(bi.Main.Version)
}
