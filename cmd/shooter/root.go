package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/shooter/internal/app"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	prefsPath  string
	verbose    bool
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		Verbose:    g.verbose,
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "shooter",
		Short: "Generate product photos from a source image",
		Long: `Shooter submits a source image to the image generation service, waits for
the job to finish and keeps a gallery of the results.

Run without a subcommand to open the terminal UI. The generate, status and
download subcommands cover the same flow for scripts.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/shooter/config.toml)")
	cmd.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/shooter/prefs.toml)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "mirror log records to stderr (headless commands)")

	cmd.AddCommand(newGenerateCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newDownloadCmd(flags))

	return cmd
}
