// Package planparser parses master plan and phase markdown files into the
// model package's types.
package planparser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arcflow-dev/orc/internal/model"
)

// frontMatter captures a master plan's optional YAML front matter, an
// alternative to the inline "**GitHub Repo:**"-style markers for
// plans that prefer a structured header.
type frontMatter struct {
	GitHubRepo   string `yaml:"github_repo"`
	GitHubIssues string `yaml:"github_issues"`
	JiraIssues   string `yaml:"jira_issues"`
}

var frontMatterPattern = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n`)

// parseFrontMatter extracts and parses a leading "---"-delimited YAML
// block, returning it along with the content with that block removed.
// A missing or malformed block is not an error: the rest of the plan
// still parses from its markdown markers.
func parseFrontMatter(content string) (frontMatter, string) {
	m := frontMatterPattern.FindStringSubmatch(content)
	if m == nil {
		return frontMatter{}, content
	}
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
		return frontMatter{}, content
	}
	return fm, content[len(m[0]):]
}

var (
	masterTitlePattern = regexp.MustCompile(`(?m)^#\s+(.+?)(?:\s*-\s*Master Plan)?$`)

	// | 1 | [Title](path.md) | Focus | Risk | Status |
	phasesTablePattern = regexp.MustCompile(
		`(?m)^\|\s*(\d+(?:\.\d+)?)\s*\|` + // phase number
			`\s*\[([^\]]+)\]\(([^)]+)\)\s*\|` + // [Title](path.md)
			`\s*[^|]*\|` + // focus (skip)
			`\s*[^|]*\|` + // risk (skip)
			`\s*(\w+)\s*\|`) // status

	githubIssuesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\*\*(?:GitHub\s*Issues?|github_issues)(?::\*\*|\*\*:)\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?i)(?:GitHub\s*Issues?|github_issues):\s*(.+?)(?:\n|$)`),
	}
	githubRepoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\*\*(?:GitHub\s*Repo|github_repo)(?::\*\*|\*\*:)\s*([^\s\n]+)`),
		regexp.MustCompile(`(?i)(?:GitHub\s*Repo|github_repo):\s*([^\s\n]+)`),
	}
	jiraIssuesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\*\*(?:Jira\s*Issues?|jira_issues)(?::\*\*|\*\*:)\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?i)(?:Jira\s*Issues?|jira_issues):\s*(.+?)(?:\n|$)`),
	}
)

var statusMap = map[string]model.PhaseStatus{
	"pending":        model.PhaseStatusPending,
	"in progress":    model.PhaseStatusRunning,
	"in_progress":    model.PhaseStatusRunning,
	"running":        model.PhaseStatusRunning,
	"validating":     model.PhaseStatusValidating,
	"complete":       model.PhaseStatusCompleted,
	"completed":      model.PhaseStatusCompleted,
	"done":           model.PhaseStatusCompleted,
	"failed":         model.PhaseStatusFailed,
	"blocked":        model.PhaseStatusBlocked,
	"awaiting":       model.PhaseStatusAwaitingHuman,
	"awaiting_human": model.PhaseStatusAwaitingHuman,
}

// ParseMasterPlan parses a master plan markdown file.
func ParseMasterPlan(path string) (*model.MasterPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read master plan %s: %w", path, err)
	}
	fm, content := parseFrontMatter(string(data))

	name := filepath.Base(strings.TrimSuffix(path, filepath.Ext(path)))
	if m := masterTitlePattern.FindStringSubmatch(content); m != nil {
		name = strings.TrimSpace(m[1])
	}

	phases := parsePhasesTable(content, filepath.Dir(path))

	githubRepo := fm.GitHubRepo
	if githubRepo == "" {
		githubRepo = parseGitHubRepo(content)
	}
	githubIssues := fm.GitHubIssues
	if githubIssues == "" {
		githubIssues = firstMatch(githubIssuesPatterns, content)
	}
	jiraIssues := fm.JiraIssues
	if jiraIssues == "" {
		jiraIssues = firstMatch(jiraIssuesPatterns, content)
	}

	return &model.MasterPlan{
		Name:         name,
		Path:         path,
		Phases:       phases,
		GitHubIssues: githubIssues,
		GitHubRepo:   githubRepo,
		JiraIssues:   jiraIssues,
		CreatedAt:    time.Now(),
	}, nil
}

func parsePhasesTable(content, baseDir string) []model.Phase {
	var phases []model.Phase
	for _, m := range phasesTablePattern.FindAllStringSubmatch(content, -1) {
		phases = append(phases, model.Phase{
			ID:     m[1],
			Title:  strings.TrimSpace(m[2]),
			Path:   filepath.Join(baseDir, strings.TrimSpace(m[3])),
			Status: parseStatus(strings.ToLower(strings.TrimSpace(m[4]))),
		})
	}
	return phases
}

func parseStatus(s string) model.PhaseStatus {
	if st, ok := statusMap[s]; ok {
		return st
	}
	return model.PhaseStatusPending
}

func firstMatch(patterns []*regexp.Regexp, content string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func parseGitHubRepo(content string) string {
	for _, p := range githubRepoPatterns {
		if m := p.FindStringSubmatch(content); m != nil {
			repo := strings.TrimSpace(m[1])
			if strings.Contains(repo, "/") {
				return repo
			}
		}
	}
	return ""
}
