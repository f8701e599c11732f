package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/stella-dust/zolapub/internal/activity"
	"github.com/stella-dust/zolapub/internal/index"
	"github.com/stella-dust/zolapub/internal/reconcile"
)

var (
	headStyle  = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	kindStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Width(12)
	draftStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func renderReport(w io.Writer, r *reconcile.Report) {
	head := okStyle
	if r.Failed > 0 {
		head = failStyle
	}
	fmt.Fprintln(w, head.Render(r.Summary()))
	for _, f := range r.Files {
		switch f.Action {
		case reconcile.ActionUnchanged, reconcile.ActionKept:
			continue
		case reconcile.ActionFailed:
			fmt.Fprintf(w, "  %s %s\n", failStyle.Render("✗ "+f.Name), dimStyle.Render(f.Error))
		default:
			fmt.Fprintf(w, "  %s %s\n", okStyle.Render("✓ "+f.Name), dimStyle.Render(string(f.Action)))
		}
	}
}

func renderArticles(w io.Writer, rows []index.ArticleRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no articles"))
		return
	}
	for _, row := range rows {
		date := row.Date
		if date == "" {
			date = "----------"
		}
		line := fmt.Sprintf("%s  %s", dimStyle.Render(date), headStyle.Render(row.Title))
		if row.Draft {
			line += " " + draftStyle.Render("[draft]")
		}
		fmt.Fprintln(w, line)
		meta := row.Name
		if len(row.Tags) > 0 {
			meta += "  #" + strings.Join(row.Tags, " #")
		}
		fmt.Fprintln(w, "            "+dimStyle.Render(meta))
	}
}

func renderTags(w io.Writer, tags []index.TagCount) {
	if len(tags) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no tags"))
		return
	}
	for _, tc := range tags {
		fmt.Fprintf(w, "%4d  %s\n", tc.Count, tc.Tag)
	}
}

func renderSearch(w io.Writer, results []index.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no matches"))
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s %s\n", headStyle.Render(r.Title), dimStyle.Render(r.Name))
		if r.Snippet != "" {
			fmt.Fprintln(w, "  "+r.Snippet)
		}
	}
}

func renderActivity(w io.Writer, entries []activity.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no activity yet"))
		return
	}
	for _, e := range entries {
		when := humanize.RelTime(e.Time, now, "ago", "from now")
		fmt.Fprintf(w, "%s %s %s\n", kindStyle.Render(e.Kind), e.Summary, dimStyle.Render("("+when+")"))
		for _, d := range e.Details {
			fmt.Fprintln(w, "    "+dimStyle.Render(d))
		}
	}
}
