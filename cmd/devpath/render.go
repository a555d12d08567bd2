package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ANIMANxd/devpath-cli/pkg/derived"
	"github.com/ANIMANxd/devpath-cli/pkg/devpath"
	"github.com/ANIMANxd/devpath-cli/pkg/report"
)

// formatSkillName turns a raw skill slug like "ci-cd" or "rest-apis"
// into a display name ("Ci Cd", "Rest Apis").
func formatSkillName(skill string) string {
	parts := strings.Split(skill, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}

		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}

	return strings.Join(parts, " ")
}

func formatSkills(skills []string) string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = formatSkillName(s)
	}

	return strings.Join(out, ", ")
}

func renderReport(w io.Writer, r *devpath.FullReport) {
	if r == nil {
		fmt.Fprintln(w, "No report loaded.")

		return
	}

	fmt.Fprintf(w, "Developer archetype: %s\n", r.DeveloperArchetype)
	fmt.Fprintf(w, "Skill constellation: %s\n", formatSkills(r.SkillConstellation))

	if len(r.ProjectHubs) > 0 {
		fmt.Fprintln(w, "\nProject hubs:")
		renderRepos(w, r.ProjectHubs)
	}

	if len(r.FlagshipProjects) > 0 {
		fmt.Fprintln(w, "\nFlagship projects:")
		renderRepos(w, r.FlagshipProjects)
	}

	if r.AICodeQualitySummary != "" {
		fmt.Fprintf(w, "\nCode quality:\n  %s\n", r.AICodeQualitySummary)
	}

	if len(r.SuggestedPaths) > 0 {
		fmt.Fprintln(w, "\nSuggested paths:")
		for _, p := range r.SuggestedPaths {
			fmt.Fprintf(w, "  %s: %s\n", p.PathName, p.Description)
			if len(p.SkillsToDevelop) > 0 {
				fmt.Fprintf(w, "    skills to develop: %s\n", formatSkills(p.SkillsToDevelop))
			}
		}
	}

	if len(r.SuggestedProjects) > 0 {
		fmt.Fprintln(w, "\nSuggested projects:")
		for _, p := range r.SuggestedProjects {
			renderProject(w, p)
		}
	}
}

func renderRepos(w io.Writer, repos []devpath.RepoReport) {
	for _, repo := range repos {
		fmt.Fprintf(w, "  %s (%s)\n", repo.Name, formatSkills(repo.Skills))
		if repo.AISummary != "" {
			fmt.Fprintf(w, "    %s\n", repo.AISummary)
		}
	}
}

func renderProject(w io.Writer, p devpath.GeneratedProject) {
	fmt.Fprintf(w, "  %s: %s\n", p.Title, p.Description)

	for _, f := range p.Features {
		fmt.Fprintf(w, "    - %s\n", f)
	}

	if len(p.SuggestedStack) > 0 {
		fmt.Fprintf(w, "    stack: %s\n", strings.Join(p.SuggestedStack, ", "))
	}
}

func renderHistory(w io.Writer, snap report.Snapshot) {
	if len(snap.History) == 0 {
		fmt.Fprintln(w, "No saved reports.")

		return
	}

	for _, item := range snap.History {
		marker := " "
		if snap.ReportID != nil && *snap.ReportID == item.ID {
			marker = "*"
		}

		fmt.Fprintf(w, "%s %4d  %s\n", marker, item.ID, formatCreatedAt(item.CreatedAt))
	}
}

func formatCreatedAt(value string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
	}

	return value
}

func renderTrack(w io.Writer, t *devpath.CareerTrack) {
	fmt.Fprintf(w, "Career track: %s\n", t.TargetDomain)
	fmt.Fprintf(w, "\nLearning step: %s\n  %s\n", t.LearningStep.Title, t.LearningStep.Description)

	fmt.Fprintln(w, "\nBridge project:")
	renderProject(w, t.BridgeProject)

	fmt.Fprintln(w, "\nCapstone project:")
	renderProject(w, t.CapstoneProject)
}

func renderMatch(w io.Writer, jobTitle string, g *devpath.GapAnalysis) {
	percent := derived.MatchPercent(len(g.MatchingSkills), len(g.MissingSkills))

	fmt.Fprintf(w, "Match for %s: %d%%  %s\n", jobTitle, percent, percentBar(percent))

	if len(g.MatchingSkills) > 0 {
		fmt.Fprintf(w, "\nMatching skills: %s\n", formatSkills(g.MatchingSkills))
	}

	if len(g.MissingSkills) > 0 {
		fmt.Fprintf(w, "Missing skills:  %s\n", formatSkills(g.MissingSkills))
	}

	if g.SummaryParagraph != "" {
		fmt.Fprintf(w, "\n%s\n", g.SummaryParagraph)
	}
}

// percentBar renders a 20-cell progress bar.
func percentBar(percent int) string {
	const cells = 20

	filled := percent * cells / 100
	if filled > cells {
		filled = cells
	}
	if filled < 0 {
		filled = 0
	}

	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", cells-filled) + "]"
}
