package core

// Build metadata, injected with ldflags:
//
//	go build -ldflags "-X fanwatch/core.Version=$(git describe --tags --always) \
//	    -X fanwatch/core.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ) \
//	    -X fanwatch/core.GitCommit=$(git rev-parse --short HEAD)" .
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// GetVersionInfo returns a formatted version string, for example
// "v1.0.0 (built 2024-01-15T10:30:00Z, commit abc1234)".
func GetVersionInfo() string {
	return Version + " (built " + BuildTime + ", commit " + GitCommit + ")"
}

// BuildLdflags returns the ldflags that inject the given values. Empty values
// are left out.
func BuildLdflags(version, buildTime, gitCommit string) string {
	var flags string
	add := func(name, value string) {
		if value == "" {
			return
		}
		if flags != "" {
			flags += " "
		}
		flags += "-X fanwatch/core." + name + "=" + value
	}
	add("Version", version)
	add("BuildTime", buildTime)
	add("GitCommit", gitCommit)
	return flags
}
