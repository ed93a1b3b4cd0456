package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/alert"
	"github.com/jedawel/lenssafe/internal/observability"
)

func newToneCmd(opts *rootOptions) *cobra.Command {
	var (
		output    string
		frequency float64
		duration  time.Duration
	)
	defaults := alert.DefaultToneOptions()

	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Write the alert sound as a WAV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = opts.cfg.Alert.SoundFile
			}

			toneOpts := defaults
			toneOpts.Frequency = frequency
			toneOpts.Duration = duration

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := alert.WriteTone(f, toneOpts); err != nil {
				f.Close()
				return fmt.Errorf("failed to write tone: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			observability.GetLogger().Info("alert tone written",
				zap.String("file", output),
				zap.Float64("frequency", frequency),
				zap.Duration("duration", duration))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default is alert.sound_file)")
	cmd.Flags().Float64Var(&frequency, "frequency", defaults.Frequency, "tone frequency in Hz")
	cmd.Flags().DurationVar(&duration, "duration", defaults.Duration, "tone length")
	return cmd
}
