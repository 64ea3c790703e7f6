// Package checkpoint handles the cooperative-restart path: capturing a
// summary of a phase attempt's progress before its worker process is
// killed for exceeding its context budget, and detecting when restarts
// are making no forward progress.
package checkpoint

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/arcflow-dev/orc/internal/model"
)

// Sentinel prefixes the session log of a worker session that was
// stopped cooperatively rather than failing outright.
const Sentinel = "CONTEXT_LIMIT_RESTART"

// Manager tracks fingerprints of progress content across restarts of a
// single phase so the orchestrator can detect a stuck loop: the same
// content hash reappearing means the worker made no real progress.
type Manager struct {
	seen []uint64
}

func New() *Manager {
	return &Manager{}
}

// Summarize builds the checkpoint text handed to the next attempt's
// prompt: the most recent progress breadcrumbs, oldest first.
func Summarize(entries []model.ProgressEntry) string {
	if len(entries) == 0 {
		return "No progress breadcrumbs were recorded before the restart."
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s\n", e.LoggedAt.Format("15:04:05"), e.Step)
	}
	return b.String()
}

// Fingerprint hashes checkpoint content so repeated restarts can be
// compared cheaply without storing the full text.
func Fingerprint(content string) uint64 {
	return xxhash.Sum64String(content)
}

// RecordAndCheckStuck records a checkpoint's fingerprint and reports
// whether it is identical to the fingerprint from the previous
// restart, meaning the worker is looping without making progress.
func (m *Manager) RecordAndCheckStuck(content string) bool {
	fp := Fingerprint(content)
	stuck := len(m.seen) > 0 && m.seen[len(m.seen)-1] == fp
	m.seen = append(m.seen, fp)
	return stuck
}
