// Package audit implements the Plan Auditor: deterministic, side-effect
// free validation of a parsed plan tree.
package audit

import (
	"errors"
	"fmt"
	"os"

	"github.com/arcflow-dev/orc/internal/model"
	"github.com/arcflow-dev/orc/internal/planparser"
)

// Auditor validates plan structure without executing anything.
type Auditor struct{}

func New() *Auditor { return &Auditor{} }

// Audit runs all checks against a master plan and its phase files.
func (a *Auditor) Audit(masterPlanPath string) model.AuditResult {
	var issues []model.AuditIssue

	master, err := planparser.ParseMasterPlan(masterPlanPath)
	if err != nil {
		code := "MASTER_PARSE_ERROR"
		if errors.Is(err, os.ErrNotExist) {
			code = "MASTER_NOT_FOUND"
		}
		issues = append(issues, model.AuditIssue{
			Severity: model.AuditSeverityError,
			Code:     code,
			Message:  fmt.Sprintf("failed to parse master plan: %v", err),
			Location: masterPlanPath,
		})
		return model.AuditResult{
			Passed: false,
			Issues: issues,
			Summary: model.AuditSummary{
				MasterPlan: masterPlanPath,
				Errors:     1,
			},
		}
	}

	issues = append(issues, checkMasterPlan(master)...)

	phasesValid := 0
	gatesTotal := 0
	var parsedPhases []model.Phase

	for _, phase := range master.Phases {
		phaseIssues := checkPhaseFile(phase)
		issues = append(issues, phaseIssues...)

		if _, statErr := os.Stat(phase.Path); statErr != nil {
			continue
		}

		detailed, parseErr := planparser.ParsePhase(phase.Path, phase.ID)
		if parseErr != nil {
			issues = append(issues, model.AuditIssue{
				Severity: model.AuditSeverityError,
				Code:     "PHASE_PARSE_ERROR",
				Message:  fmt.Sprintf("failed to parse phase: %v", parseErr),
				Location: phase.Path,
			})
			continue
		}

		parsedPhases = append(parsedPhases, *detailed)
		issues = append(issues, checkGates(*detailed)...)
		issues = append(issues, checkNotesPaths(*detailed)...)

		gatesTotal += len(detailed.Gates)
		if !hasError(phaseIssues) {
			phasesValid++
		}
	}

	issues = append(issues, checkDependencies(parsedPhases)...)

	errors, warnings := 0, 0
	for _, iss := range issues {
		if iss.Severity == model.AuditSeverityError {
			errors++
		} else {
			warnings++
		}
	}

	return model.AuditResult{
		Passed: errors == 0,
		Issues: issues,
		Summary: model.AuditSummary{
			MasterPlan:  master.Name,
			PhasesFound: len(master.Phases),
			PhasesValid: phasesValid,
			GatesTotal:  gatesTotal,
			Errors:      errors,
			Warnings:    warnings,
		},
	}
}

func hasError(issues []model.AuditIssue) bool {
	for _, i := range issues {
		if i.Severity == model.AuditSeverityError {
			return true
		}
	}
	return false
}

func checkMasterPlan(master *model.MasterPlan) []model.AuditIssue {
	if len(master.Phases) == 0 {
		return []model.AuditIssue{{
			Severity: model.AuditSeverityError,
			Code:     "NO_PHASES",
			Message:  "master plan has no phases defined",
			Location: master.Path,
		}}
	}
	return nil
}

func checkPhaseFile(phase model.Phase) []model.AuditIssue {
	if _, err := os.Stat(phase.Path); err != nil {
		return []model.AuditIssue{{
			Severity: model.AuditSeverityError,
			Code:     "PHASE_NOT_FOUND",
			Message:  fmt.Sprintf("phase file not found: %s", phase.Path),
			Location: phase.Path,
		}}
	}
	return nil
}

func checkGates(phase model.Phase) []model.AuditIssue {
	if len(phase.Gates) == 0 {
		return []model.AuditIssue{{
			Severity: model.AuditSeverityError,
			Code:     "MISSING_GATES",
			Message:  fmt.Sprintf("phase %s has no gates defined (critical for validation)", phase.ID),
			Location: phase.Path,
		}}
	}
	return nil
}

func checkNotesPaths(phase model.Phase) []model.AuditIssue {
	if phase.NotesOutput == "" {
		return []model.AuditIssue{{
			Severity: model.AuditSeverityWarning,
			Code:     "NO_NOTES_OUTPUT",
			Message:  fmt.Sprintf("phase %s has no notes output path specified", phase.ID),
			Location: phase.Path,
		}}
	}
	return nil
}

func checkDependencies(phases []model.Phase) []model.AuditIssue {
	var issues []model.AuditIssue

	ids := map[string]bool{}
	for _, p := range phases {
		ids[p.ID] = true
	}

	for _, phase := range phases {
		for _, dep := range phase.DependsOn {
			if !ids[dep] {
				issues = append(issues, model.AuditIssue{
					Severity: model.AuditSeverityWarning,
					Code:     "MISSING_DEPENDENCY",
					Message:  fmt.Sprintf("phase %s depends on non-existent phase %s", phase.ID, dep),
					Location: phase.Path,
				})
			}
		}
		for _, dep := range phase.DependsOn {
			if dep == phase.ID {
				issues = append(issues, model.AuditIssue{
					Severity: model.AuditSeverityError,
					Code:     "CIRCULAR_DEPENDENCY",
					Message:  fmt.Sprintf("phase %s depends on itself", phase.ID),
					Location: phase.Path,
				})
			}
		}
	}

	issues = append(issues, checkDependencyCycles(phases)...)
	return issues
}

// checkDependencyCycles runs a DFS with a recursion stack over the
// dependency graph and reports the first cycle it finds.
func checkDependencyCycles(phases []model.Phase) []model.AuditIssue {
	graph := map[string][]string{}
	for _, p := range phases {
		graph[p.ID] = p.DependsOn
	}

	visited := map[string]bool{}
	recStack := map[string]bool{}

	var hasCycle func(node string, path []string) []string
	hasCycle = func(node string, path []string) []string {
		visited[node] = true
		recStack[node] = true
		path = append(path, node)

		for _, neighbor := range graph[node] {
			if !visited[neighbor] {
				if cycle := hasCycle(neighbor, append([]string{}, path...)); cycle != nil {
					return cycle
				}
			} else if recStack[neighbor] {
				start := indexOf(path, neighbor)
				return append(append([]string{}, path[start:]...), neighbor)
			}
		}

		delete(recStack, node)
		return nil
	}

	for _, phase := range phases {
		if visited[phase.ID] {
			continue
		}
		if cycle := hasCycle(phase.ID, nil); cycle != nil {
			return []model.AuditIssue{{
				Severity: model.AuditSeverityError,
				Code:     "CIRCULAR_DEPENDENCY",
				Message:  fmt.Sprintf("circular dependency detected: %s", joinArrow(cycle)),
			}}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func joinArrow(s []string) string {
	out := ""
	for i, v := range s {
		if i > 0 {
			out += " -> "
		}
		out += v
	}
	return out
}
