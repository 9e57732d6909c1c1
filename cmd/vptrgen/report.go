package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/wippyai/vptr/generator"
)

var (
	pkgStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	typeNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	capStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	addedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// printReport writes the report, styled when stdout is a terminal.
func printReport(w io.Writer, r *generator.Report) {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		r.WriteText(w)
		return
	}

	width := 80
	if cols, _, err := term.GetSize(int(fd)); err == nil && cols > 0 {
		width = cols
	}

	for _, p := range r.Packages {
		fmt.Fprintln(w, pkgStyle.Render(p.Name)+" "+dimStyle.Render(p.Path))
		for _, t := range p.Types {
			fmt.Fprintf(w, "  %s %s\n", typeNameStyle.Render(t.Name),
				dimStyle.Render(fmt.Sprintf("size=%d align=%d", t.Size, t.Align)))
			for _, s := range t.Slots {
				fmt.Fprintln(w, slotLine(s, width))
			}
		}
	}
	for _, f := range r.Files {
		verb := "wrote"
		if !f.Written {
			verb = "would write"
		}
		fmt.Fprintln(w, dimStyle.Render(verb+" ")+f.Path)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintln(w, warnStyle.Render("warning: ")+truncate(warn, width-9))
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d slots, %d added", r.SlotCount(), r.AddedCount())))
}

func slotLine(s generator.SlotReport, width int) string {
	mark := "  "
	if s.Added {
		mark = addedStyle.Render("+ ")
	}
	offset := fmt.Sprintf("@%d", s.Offset)
	// 4 indent + mark + two columns + offset
	col := max((width-8-len(offset))/2, 8)
	field := fmt.Sprintf("%-*s", col, truncate(s.Field, col))
	capability := capStyle.Render(fmt.Sprintf("%-*s", col, truncate(s.Capability, col)))
	line := "    " + mark + field + " " + capability + " " + dimStyle.Render(offset)
	if !s.Implemented {
		line += warnStyle.Render(" !")
	}
	return line
}

func truncate(s string, n int) string {
	if n <= 1 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
