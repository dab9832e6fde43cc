package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/screening"
	"github.com/spigell/resume-screener/internal/skills"
)

func printReport(w io.Writer, report *screening.Report, format string) error {
	if format == outputJSON {
		pretty, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(pretty))
		return err
	}

	label, justification := "LLM", report.Justification
	if report.Source == scoring.SourceFallback {
		label = "cosine fallback"
		justification = fmt.Sprintf("%s. LLM error: %s", report.Justification, report.Error)
	}

	fmt.Fprintf(w, "Resume: %s\n", report.Filename)
	if report.JobTitle != "" {
		fmt.Fprintf(w, "Job title: %s\n", report.JobTitle)
	}
	fmt.Fprintf(w, "\nMatch score (%s): %g / 10\n", label, report.Score)
	fmt.Fprintf(w, "\nJustification (%s):\n%s\n", label, justification)

	fmt.Fprintln(w, "\nParsed basic fields:")
	keys := make([]string, 0, len(report.Fields))
	for k := range report.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%s\n", k, report.Fields[k])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nTop matched skills (from taxonomy):")
	if err := printSkills(w, report.Skills); err != nil {
		return err
	}

	if report.Raw != "" {
		fmt.Fprintf(w, "\nRaw model output (debug):\n%s\n", report.Raw)
	}

	return nil
}

func printSkills(w io.Writer, matches []skills.Match) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range matches {
		fmt.Fprintf(tw, "  %s\t%.4f\n", m.Skill, m.Score)
	}
	return tw.Flush()
}
