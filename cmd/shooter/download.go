package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/shooter/internal/app"
	"github.com/five82/shooter/internal/present"
)

type downloadReport struct {
	Dir   string   `json:"dir" yaml:"dir"`
	Saved []string `json:"saved" yaml:"saved"`
}

func newDownloadCmd(global *globalFlags) *cobra.Command {
	var (
		taskID string
		format string
	)

	cmd := &cobra.Command{
		Use:   "download <url>...",
		Short: "Save generated images to the download directory",
		Long: `Download fetches image URLs, such as those printed by generate or status,
into the configured download directory. Files are named {task}_{n}{ext}.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			rt, err := app.NewRuntime(global.options())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			now := time.Now()
			entries := make([]present.Entry, 0, len(args))
			for _, raw := range args {
				u := strings.TrimSpace(raw)
				if u == "" {
					continue
				}
				entries = append(entries, present.Entry{TaskID: taskID, PreviewURL: u, DownloadURL: u, AddedAt: now})
			}

			paths, err := rt.Downloader.Entries(cmd.Context(), entries)
			report := downloadReport{Dir: rt.Downloader.Dir(), Saved: paths}
			if err != nil {
				return fmt.Errorf("download images: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), format, report, report.writeText)
		},
	}

	cmd.Flags().StringVarP(&taskID, "task", "t", "image", "task id used to name the files")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}

func (r downloadReport) writeText(w io.Writer) error {
	fields := make([]field, 0, len(r.Saved))
	for _, p := range r.Saved {
		fields = append(fields, field{"Saved", p})
	}
	return writeFields(w, fields)
}
