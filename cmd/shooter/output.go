package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/five82/shooter/internal/shooter"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Width(10)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// writeOutput encodes v as json or yaml, or calls text for the text format.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return text(w)
	}
}

type field struct {
	label string
	value string
}

func writeFields(w io.Writer, fields []field) error {
	var b strings.Builder
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		b.WriteString(labelStyle.Render(f.label))
		b.WriteString(f.value)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func kindLabel(kind shooter.OutcomeKind) string {
	switch kind {
	case shooter.OutcomeSucceeded:
		return successStyle.Render(kind.String())
	case shooter.OutcomePending:
		return pendingStyle.Render(kind.String())
	default:
		return failureStyle.Render(kind.String())
	}
}

func creditsValue(credits *int) string {
	if credits == nil {
		return ""
	}
	return fmt.Sprintf("%d", *credits)
}
