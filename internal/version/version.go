package version

import (
	"fmt"
)

//nolint:gochecknoglobals // populated at build time with -ldflags
var (
	Version = "unknown"
	Commit  = "unknown"

	FullVersion = ""
)

//nolint:gochecknoinits // FullVersion depends on the values injected by the linker
func init() {
	if Version == "unknown" {
		FullVersion = fmt.Sprintf("%s-%s", Version, Commit)
	} else {
		FullVersion = fmt.Sprintf("%s (commit %s)", Version, Commit)
	}
}
