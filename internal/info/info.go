// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package info holds the build metadata of the etl binary.
package info

var (
	// AppName is the name of the binary and the prefix of every logger name.
	AppName = "etl"
	// Version is set at build time via ldflags.
	Version = "DEV"
	// BuildDate is set at build time via ldflags, in the YYYY-MM-DD format.
	BuildDate = ""
)

// UserAgent returns the value sent in the User-Agent header of outgoing requests.
func UserAgent() string {
	return AppName + "/" + Version
}
