// Package collab holds the shared pieces of the GitHub/Jira
// collaborator hooks; the actual sync logic lives in the github and
// jira subpackages.
package collab

import "regexp"

var (
	githubRefPattern = regexp.MustCompile(`#?(\d+)`)
	jiraRefPattern   = regexp.MustCompile(`[A-Z]+-\d+`)
)

// ExtractGitHubRefs scans free text (a phase completion report) for
// GitHub issue number references, in addition to whatever the master
// plan's own GitHub Issues field lists.
func ExtractGitHubRefs(text string) []string {
	matches := githubRefPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ExtractJiraRefs scans free text for Jira issue key references
// (PROJ-123 style).
func ExtractJiraRefs(text string) []string {
	return jiraRefPattern.FindAllString(text, -1)
}
