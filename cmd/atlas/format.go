package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jward/atlas"
)

// topSymbols caps the criticality table in summary output.
const topSymbols = 20

// formatSummary renders the model as readable text: per-language module
// counts and the most critical symbols.
func formatSummary(w io.Writer, doc *atlas.Document) {
	fmt.Fprintln(w, "Project Model")
	fmt.Fprintln(w, "=============")
	fmt.Fprintf(w, "Root:    %s\n", doc.ProjectRoot)
	fmt.Fprintf(w, "Hash:    %s\n", doc.ContentHash)
	fmt.Fprintf(w, "Modules: %d\n", len(doc.Modules))
	fmt.Fprintf(w, "Symbols: %d\n", len(doc.Symbols))
	fmt.Fprintf(w, "Edges:   %d\n", len(doc.Edges))
	fmt.Fprintln(w)

	byLang := map[string]int{}
	var langs []string
	for _, m := range doc.Modules {
		if byLang[m.Language] == 0 {
			langs = append(langs, m.Language)
		}
		byLang[m.Language]++
	}
	if len(langs) > 0 {
		fmt.Fprintln(w, "Languages:")
		for _, l := range langs {
			fmt.Fprintf(w, "  %s: %d files\n", l, byLang[l])
		}
		fmt.Fprintln(w)
	}

	if len(doc.Criticality) > 0 {
		fmt.Fprintln(w, "Most Critical Symbols:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  RANK\tSCORE\tSYMBOL")
		for i, s := range doc.Criticality {
			if i >= topSymbols {
				break
			}
			fmt.Fprintf(tw, "  %d\t%.3f\t%s\n", s.Rank, s.Score, s.SymbolID)
		}
		tw.Flush()
	}
}

// reportDiagnostics prints a per-kind diagnostic count, nothing when the
// run was clean.
func reportDiagnostics(w io.Writer, doc *atlas.Document) {
	if len(doc.Diagnostics) == 0 {
		return
	}
	byKind := map[string]int{}
	var kinds []string
	for _, d := range doc.Diagnostics {
		k := string(d.Kind)
		if byKind[k] == 0 {
			kinds = append(kinds, k)
		}
		byKind[k]++
	}
	fmt.Fprintf(w, "%d diagnostic(s):", len(doc.Diagnostics))
	for _, k := range kinds {
		fmt.Fprintf(w, " %s=%d", k, byKind[k])
	}
	fmt.Fprintln(w)
}
