// Package version reports build information for the remoter binary and
// its telemetry resource.
//
//	go build -ldflags "-X github.com/kbukum/remoter/version.Version=1.2.0"
package version
