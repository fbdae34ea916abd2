// Package utils holds small helpers shared across charge that are too
// small for a package of their own.
package utils

// Build metadata, set with -ldflags "-X" at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies charge to the agent API.
func UserAgent() string {
	return "charge/" + Version
}
