// Package gitutil wraps the subset of git plumbing the orchestrator
// needs: checking working-directory cleanliness and auto-committing
// tracked changes after a phase completes.
package gitutil

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const statusTimeout = 10 * time.Second

var githubRemotePattern = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/.]+)`)

// DetectGitHubRepo shells out to `git remote get-url origin` and
// extracts "owner/repo" from it. Returns "" (not an error) when there
// is no git repo, no origin remote, or the remote isn't GitHub — sync
// is silently disabled in all of those cases rather than failing the
// run.
func DetectGitHubRepo(ctx context.Context, projectRoot string) string {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "-C", projectRoot, "remote", "get-url", "origin")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}

	match := githubRemotePattern.FindStringSubmatch(strings.TrimSpace(string(out)))
	if match == nil {
		return ""
	}
	return match[1] + "/" + match[2]
}

// Status is the parsed result of `git status --porcelain`.
type Status struct {
	Untracked []string
	Modified  []string
}

// IsClean reports whether there is nothing to commit at all.
func (s Status) IsClean() bool {
	return len(s.Untracked) == 0 && len(s.Modified) == 0
}

// HasTrackedChanges reports whether there are tracked (non-untracked)
// changes worth committing.
func (s Status) HasTrackedChanges() bool {
	return len(s.Modified) > 0
}

// ParsePorcelain parses `git status --porcelain` output. Renames
// (reported as "old -> new") are recorded under their new path.
func ParsePorcelain(output string) Status {
	var status Status
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 3 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])
		if idx := strings.Index(path, " -> "); idx != -1 {
			path = path[idx+4:]
		}
		if code == "??" {
			status.Untracked = append(status.Untracked, path)
		} else {
			status.Modified = append(status.Modified, path)
		}
	}
	return status
}

// GetStatus runs `git status --porcelain` in projectRoot. A nil result
// (not an error) means the directory isn't a git repo, git is missing,
// or the command timed out — all of which the orchestrator treats as
// "nothing to commit" rather than a hard failure.
func GetStatus(ctx context.Context, projectRoot string) *Status {
	runCtx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "-C", projectRoot, "status", "--porcelain")
	out, err := cmd.Output()
	if err != nil {
		return nil
	}
	status := ParsePorcelain(string(out))
	return &status
}

// CheckWorkingDirectory reports cleanliness plus up to 10 modified
// (tracked) file paths for display; untracked files are always
// ignored for this purpose.
func CheckWorkingDirectory(ctx context.Context, projectRoot string) (clean bool, trackedCount int, sample []string) {
	status := GetStatus(ctx, projectRoot)
	if status == nil {
		return true, 0, nil
	}
	sample = status.Modified
	if len(sample) > 10 {
		sample = sample[:10]
	}
	return !status.HasTrackedChanges(), len(status.Modified), sample
}

// CommitTemplate substitutes {phase_id}, {phase_name}, and {status}
// into a commit message template.
func CommitTemplate(template, phaseID, phaseName, status string) string {
	r := strings.NewReplacer(
		"{phase_id}", phaseID,
		"{phase_name}", phaseName,
		"{status}", status,
	)
	return r.Replace(template)
}

// AutoCommit stages and commits tracked changes only (untracked files
// are left alone) using the given message, with a trailer crediting the
// worker product. The orchestrator only knows the configured model
// string, not which underlying model build actually ran, so the
// trailer names the product rather than a specific model.
func AutoCommit(ctx context.Context, projectRoot, message string) error {
	status := GetStatus(ctx, projectRoot)
	if status == nil || !status.HasTrackedChanges() {
		return nil
	}

	for _, path := range status.Modified {
		addCmd := exec.CommandContext(ctx, "git", "-C", projectRoot, "add", "--", path)
		if err := addCmd.Run(); err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
	}

	fullMessage := message + "\n\nCo-Authored-By: Claude <noreply@anthropic.com>"
	commitCmd := exec.CommandContext(ctx, "git", "-C", projectRoot, "commit", "-m", fullMessage)
	if err := commitCmd.Run(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
