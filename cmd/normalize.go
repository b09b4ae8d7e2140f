package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ecg-viewer/waveform"
)

type normalizeOptions struct {
	format  string
	fs      float64
	denoise bool
	indent  bool
}

func normalizeCommand(s *settings) *cobra.Command {
	var opts normalizeOptions

	cmd := &cobra.Command{
		Use:   "normalize [recording]",
		Short: "Normalize a recording and print the lead matrix as JSON",
		Long: `Load a .npy array or WFDB record, resample it, fit it to the configured window,
convert to millivolts and print {"shape": [leads, samples], "data": [...]}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd.OutOrStdout(), s, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Input format: npy, wfdb (default: from extension)")
	cmd.Flags().Float64Var(&opts.fs, "fs", 0, "Source sample rate in Hz (default: from file or config)")
	cmd.Flags().BoolVar(&opts.denoise, "denoise", false, "Apply the band-pass filter before resampling")
	cmd.Flags().BoolVar(&opts.indent, "indent", false, "Indent JSON output")

	return cmd
}

func runNormalize(w io.Writer, s *settings, path string, opts normalizeOptions) error {
	format, err := waveform.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	n := newNormalizer(s.cfg.Waveform)
	if err := n.Validate(); err != nil {
		return err
	}

	leads, err := n.NormalizeFile(
		waveform.Source{Path: path, Format: format, FS: opts.fs},
		waveform.Options{Denoise: opts.denoise || s.cfg.Waveform.Denoise, BandPass: bandPass(s.cfg.Waveform)},
	)
	if err != nil {
		return err
	}

	samples := 0
	if len(leads) > 0 {
		samples = len(leads[0])
	}
	out := struct {
		Shape [2]int      `json:"shape"`
		Data  [][]float64 `json:"data"`
	}{Shape: [2]int{len(leads), samples}, Data: leads}

	enc := json.NewEncoder(w)
	if opts.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
