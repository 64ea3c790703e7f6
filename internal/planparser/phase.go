package planparser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/arcflow-dev/orc/internal/model"
)

var (
	phaseTitlePattern  = regexp.MustCompile(`(?m)^#\s+.*Phase\s+\d+:\s+(.+)$`)
	phaseIDFromName    = regexp.MustCompile(`(?i)phase[_-]?(\d+)`)
	statusFieldPattern = regexp.MustCompile(`\*\*Status:\*\*\s*(\w+)`)

	dependsOnHeaderPattern = regexp.MustCompile(`\*\*Depends On:\*\*\s*(.+?)(?:\n|$)`)
	phaseRefPattern        = regexp.MustCompile(`Phase\s+(\d+(?:\.\d+)?)`)
	dependenciesSection    = regexp.MustCompile(`(?is)## Dependencies\s*\n(.*?)(?:\n##|\z)`)

	explicitDepPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Previous phase:\s*Phase\s+(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)Depends on:\s*Phase\s+(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)Requires:\s*Phase\s+(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(?im)^[-*]\s*Phase\s+(\d+(?:\.\d+)?)`),
	}

	gatesSection = regexp.MustCompile(`(?is)## Gates.*?\n(.*?)(?:\n##|\z)`)
	gateLine     = regexp.MustCompile(`(?m)^[-*]\s+\*{0,2}([\w-]+)\*{0,2}:\s*(.+)$`)

	tasksSection = regexp.MustCompile(`(?is)## Tasks\s*\n(.*?)(?:\n##|\z)`)
	taskLine     = regexp.MustCompile(`(?m)^[-*]\s+\[([ xX])\]\s+(\d+\.\d+):\s*(.+)$`)

	agentMarkerPattern = regexp.MustCompile(`(?i)\*{0,2}AGENT:(\S+)\*{0,2}`)
	agentsTableSection = regexp.MustCompile(`(?is)## Agents to Use.*?\n(.*?)(?:\n##|\z)`)
	requiredRowPattern = regexp.MustCompile(`\|\s*` + "`" + `?([^\s` + "`" + `]+)` + "`" + `?\s*\|[^|]*REQUIRED`)

	processWrapperSection = regexp.MustCompile(`(?is)## Process Wrapper.*?\n(.*?)(?:\n##|\z)`)

	notesInputPattern  = regexp.MustCompile("Read previous notes:\\s*`([^`]+)`")
	notesOutputPattern = regexp.MustCompile("(?i)(?:Write|notes to:?)\\s*`([^`]+)`")
)

// requiredStepPatterns maps a canonical step name to the regexes that
// count as evidence it appears in a phase's Process Wrapper section.
var requiredStepPatterns = []struct {
	pattern *regexp.Regexp
	step    string
}{
	{regexp.MustCompile(`(?i)Read previous notes`), model.StepReadPreviousNotes},
	{regexp.MustCompile(`(?i)doc-sync-manager|AGENT:doc-sync-manager`), model.StepDocSyncManager},
	{regexp.MustCompile(`\[IMPLEMENTATION\]`), model.StepImplementation},
	{regexp.MustCompile(`(?i)Pre-validation`), model.StepPreValidation},
	{regexp.MustCompile(`(?i)task-validator|AGENT:task-validator`), model.StepTaskValidator},
	{regexp.MustCompile(`(?i)Write.*notes|notes.*output`), model.StepWriteNotes},
}

// ParsePhase parses a single phase markdown file. If id is empty the
// phase ID is inferred from the filename.
func ParsePhase(path, id string) (*model.Phase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phase %s: %w", path, err)
	}
	content := string(data)

	title := path
	if m := phaseTitlePattern.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	resolvedID := id
	if resolvedID == "" {
		if m := phaseIDFromName.FindStringSubmatch(path); m != nil {
			resolvedID = m[1]
		} else {
			resolvedID = "1"
		}
	}

	notesInput, notesOutput := parseNotesPaths(content)

	return &model.Phase{
		ID:             resolvedID,
		Title:          title,
		Path:           path,
		Status:         parseStatusField(content),
		DependsOn:      parseDependencies(content),
		Gates:          parseGates(content),
		Tasks:          parseTasks(content),
		RequiredAgents: parseRequiredAgents(content),
		RequiredSteps:  parseRequiredSteps(content),
		NotesInput:     notesInput,
		NotesOutput:    notesOutput,
	}, nil
}

func parseStatusField(content string) model.PhaseStatus {
	m := statusFieldPattern.FindStringSubmatch(content)
	if m == nil {
		return model.PhaseStatusPending
	}
	return parseStatus(strings.ToLower(m[1]))
}

func parseDependencies(content string) []string {
	seen := map[string]bool{}
	var deps []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			deps = append(deps, id)
		}
	}

	if m := dependsOnHeaderPattern.FindStringSubmatch(content); m != nil {
		line := strings.TrimSpace(m[1])
		lower := strings.ToLower(line)
		skip := strings.HasPrefix(lower, "n/a") || strings.HasPrefix(lower, "none") ||
			strings.HasPrefix(lower, "-") || strings.HasPrefix(lower, "no ")
		if !skip {
			for _, ref := range phaseRefPattern.FindAllStringSubmatch(line, -1) {
				add(ref[1])
			}
		}
	}

	if m := dependenciesSection.FindStringSubmatch(content); m != nil {
		section := m[1]
		for _, p := range explicitDepPatterns {
			for _, ref := range p.FindAllStringSubmatch(section, -1) {
				add(ref[1])
			}
		}
	}

	return deps
}

func parseGates(content string) []model.Gate {
	m := gatesSection.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var gates []model.Gate
	for _, g := range gateLine.FindAllStringSubmatch(m[1], -1) {
		name := strings.TrimSpace(g[1])
		gates = append(gates, model.Gate{
			Name:     name,
			Command:  gateCommandFor(name),
			Blocking: true,
		})
	}
	return gates
}

var gateCommands = map[string]string{
	"ruff":     "uv run ruff check .",
	"pyright":  "uv run pyright",
	"ty":       "uv run ty check .",
	"bandit":   "uv run bandit -r src/ -x ./tests",
	"radon":    "uv run radon cc src/ -a -nc",
	"tests":    "uv run pytest",
	"pytest":   "uv run pytest",
	"coverage": "uv run pytest --cov",
	"tsc":      "pnpm exec tsc --noEmit",
	"eslint":   "pnpm lint",
	"build":    "pnpm build",
}

func gateCommandFor(name string) string {
	if cmd, ok := gateCommands[strings.ToLower(name)]; ok {
		return cmd
	}
	return fmt.Sprintf("echo 'Unknown gate: %s'", name)
}

func parseTasks(content string) []model.Task {
	m := tasksSection.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	var tasks []model.Task
	for _, t := range taskLine.FindAllStringSubmatch(m[1], -1) {
		tasks = append(tasks, model.Task{
			ID:          t[2],
			Description: strings.TrimSpace(t[3]),
			Completed:   strings.ToLower(t[1]) == "x",
		})
	}
	return tasks
}

func parseRequiredAgents(content string) []string {
	seen := map[string]bool{}
	var agents []string
	add := func(name string) {
		name = strings.Trim(name, "*")
		name = strings.TrimSpace(name)
		if name != "" && !seen[name] {
			seen[name] = true
			agents = append(agents, name)
		}
	}

	for _, m := range agentMarkerPattern.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}

	if m := agentsTableSection.FindStringSubmatch(content); m != nil {
		for _, r := range requiredRowPattern.FindAllStringSubmatch(m[1], -1) {
			add(r[1])
		}
	}

	return agents
}

func parseRequiredSteps(content string) []string {
	m := processWrapperSection.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	section := m[1]
	var steps []string
	for _, sp := range requiredStepPatterns {
		if sp.pattern.MatchString(section) {
			steps = append(steps, sp.step)
		}
	}
	return steps
}

func parseNotesPaths(content string) (input, output string) {
	if m := notesInputPattern.FindStringSubmatch(content); m != nil {
		p := strings.ToLower(m[1])
		if p != "n/a" && p != "none" && p != "n/a (first phase)" {
			input = m[1]
		}
	}
	if m := notesOutputPattern.FindStringSubmatch(content); m != nil {
		output = m[1]
	}
	return input, output
}
