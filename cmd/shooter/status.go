package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shooter/internal/app"
	"github.com/five82/shooter/internal/shooter"
)

type statusReport struct {
	TaskID  string              `json:"task_id" yaml:"task_id"`
	Outcome shooter.PollOutcome `json:"outcome" yaml:"outcome"`
}

func newStatusCmd(global *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Check a generation job once",
		Long: `Status performs a single status check for a job submitted earlier, for
example one that timed out in the UI, and prints what the server reports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			rt, err := app.NewRuntime(global.options())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			taskID := strings.TrimSpace(args[0])
			outcome, err := rt.Client.Poll(cmd.Context(), shooter.JobHandle{TaskID: taskID})
			if err != nil {
				return fmt.Errorf("check status: %w", err)
			}
			report := statusReport{TaskID: taskID, Outcome: outcome}
			return writeOutput(cmd.OutOrStdout(), format, report, report.writeText)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}

func (r statusReport) writeText(w io.Writer) error {
	fields := []field{
		{"Task", r.TaskID},
		{"Status", kindLabel(r.Outcome.Kind)},
		{"Message", r.Outcome.Message},
		{"Credits", creditsValue(r.Outcome.Credits)},
	}
	for i, img := range r.Outcome.Images {
		fields = append(fields, field{fmt.Sprintf("Image %d", i+1), img.DownloadURL})
	}
	return writeFields(w, fields)
}
