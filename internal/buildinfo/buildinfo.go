// Package buildinfo holds version data stamped at link time with
// -ldflags "-X ridematch/internal/buildinfo.Version=...".
package buildinfo

const Name = "Driver-Rider Matching API"

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"name":    Name,
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
}
