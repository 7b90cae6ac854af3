package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/five82/shooter/internal/app"
	"github.com/five82/shooter/internal/present"
	"github.com/five82/shooter/internal/shooter"
)

type generateReport struct {
	app.Result `yaml:",inline"`
	Saved      []string `json:"saved,omitempty" yaml:"saved,omitempty"`
}

func newGenerateCmd(global *globalFlags) *cobra.Command {
	var (
		imagePath string
		count     int
		mode      string
		prompt    string
		save      bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Submit an image and wait for the generated results",
		Long: `Generate submits the source image, polls the job until it finishes and
prints the resulting image URLs. With --download the images are also saved to
the configured download directory.

Progress goes to stderr; the result goes to stdout.`,
		Example: `  shooter generate --image product.png
  shooter generate --image product.png --count 2 --mode model --download
  shooter generate --image product.png --prompt "on a marble table" --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			opts := global.options()
			opts.Ports = present.LogPorts{Logger: progressLogger(cmd.ErrOrStderr())}
			rt, err := app.NewRuntime(opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			req := shooter.GenerationRequest{
				Count:      count,
				Mode:       shooter.Mode(mode),
				UserPrompt: prompt,
			}
			if req.Count == 0 {
				req.Count = rt.DefaultCount()
			}
			if req.Mode == "" {
				req.Mode = rt.DefaultMode()
			}
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				req.Image = data
				req.Filename = filepath.Base(imagePath)
			}

			res, err := rt.Controller.Generate(cmd.Context(), req)
			if err != nil {
				var loginErr *app.LoginRequiredError
				if errors.As(err, &loginErr) {
					return fmt.Errorf("not signed in: sign in at %s and set SHOOTER_SESSION_COOKIE", loginErr.URL)
				}
				return err
			}

			report := generateReport{Result: res}
			if save && res.Outcome.Kind == shooter.OutcomeSucceeded {
				fresh := res.Entries
				if n := len(res.Outcome.Images); n < len(fresh) {
					fresh = fresh[:n]
				}
				paths, err := rt.Downloader.Entries(cmd.Context(), fresh)
				report.Saved = paths
				if err != nil {
					return fmt.Errorf("download images: %w", err)
				}
			}

			if err := writeOutput(cmd.OutOrStdout(), format, report, report.writeText); err != nil {
				return err
			}
			if res.Outcome.Kind != shooter.OutcomeSucceeded {
				return errors.New(res.Outcome.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "source image file")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of images (default from prefs or config)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "generation mode (default from prefs or config)")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "optional instructions for the generator")
	cmd.Flags().BoolVarP(&save, "download", "d", false, "save generated images to the download directory")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or yaml")

	return cmd
}

func (r generateReport) writeText(w io.Writer) error {
	fields := []field{
		{"Task", r.Handle.TaskID},
		{"Outcome", kindLabel(r.Outcome.Kind)},
		{"Message", r.Outcome.Message},
		{"Attempts", fmt.Sprintf("%d", r.Outcome.Attempts)},
		{"Credits", creditsValue(r.Credits)},
	}
	for i, img := range r.Outcome.Images {
		fields = append(fields, field{fmt.Sprintf("Image %d", i+1), img.DownloadURL})
	}
	for _, p := range r.Saved {
		fields = append(fields, field{"Saved", p})
	}
	return writeFields(w, fields)
}

// progressLogger renders presenter output as human-readable lines.
func progressLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
