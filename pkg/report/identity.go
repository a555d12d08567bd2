package report

import (
	"strings"

	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
)

// DeriveDisplayIdentity extracts a GitHub username from a report's
// repository identifiers ("owner/repo" → "owner"). Project hubs take
// precedence over flagship projects; the first match wins. Returns ""
// when nothing in the report names an owner. The result is cosmetic,
// never authoritative.
func DeriveDisplayIdentity(report *devpath.FullReport) string {
	if report == nil {
		return ""
	}

	for _, group := range [][]devpath.RepoReport{
		report.ProjectHubs,
		report.FlagshipProjects,
	} {
		for _, repo := range group {
			owner, _, found := strings.Cut(repo.Name, "/")
			if found && owner != "" {
				return owner
			}
		}
	}

	return ""
}
