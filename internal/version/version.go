// Package version holds build information.
package version

// Version is the application version, overridden at build time with
// -ldflags "-X github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/version.Version=...".
var Version = "dev"
