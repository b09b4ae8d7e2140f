package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ecg-viewer/config"
	"ecg-viewer/waveform"
)

// settings is shared by every sub-command; cfg is filled in before any RunE executes.
type settings struct {
	path string
	v    *viper.Viper
	cfg  *config.Config
}

// RootCommand creates the CLI with all sub-commands attached.
func RootCommand() *cobra.Command {
	s := &settings{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "ecg-viewer",
		Short:         "ECG waveform viewer and annotation server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&s.path, "config", "c", "", "Path to config file (default ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level: debug, info, warn, error")
	_ = s.v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		serveCommand(s),
		normalizeCommand(s),
		addUserCommand(s),
		importCommand(s),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(s.v, s.path)
		if err != nil {
			return err
		}
		s.cfg = cfg
		config.InitLogger(cfg.Log)
		return nil
	}

	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := RootCommand().Execute(); err != nil {
		slog.Error("Command failed", "error", err, "category", waveform.Category(err))
		os.Exit(1)
	}
}

func newNormalizer(cfg config.WaveformConfig) waveform.Normalizer {
	return waveform.Normalizer{
		TargetFS:         cfg.TargetFS,
		Length:           cfg.Length,
		TargetLeads:      cfg.TargetLeads,
		DefaultSourceFS:  cfg.SourceFS,
		AmplitudeScale:   cfg.AmplitudeScale,
		FillMissingLeads: cfg.FillMissingLeads,
	}
}

func bandPass(cfg config.WaveformConfig) waveform.BandPass {
	return waveform.BandPass{Low: cfg.LowCutoff, High: cfg.HighCutoff}
}
