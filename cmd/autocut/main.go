package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/myfatemi04/autocut/internal/config"
	"github.com/myfatemi04/autocut/internal/ffmpeg"
	"github.com/myfatemi04/autocut/internal/logging"
	"github.com/myfatemi04/autocut/internal/loudness"
	"github.com/myfatemi04/autocut/internal/pipeline"
	"github.com/myfatemi04/autocut/pkg/util"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "autocut",
		Short: "autocut - cut the silent parts out of a video",
		Long:  "Measures audio loudness over short chunks, finds the active regions and re-assembles the video from them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize logging
			logging.Init(verbose)

			// Load config
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			// Store config in context
			ctx := config.WithConfig(cmd.Context(), cfg)
			cmd.SetContext(ctx)

			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./autocut.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newTrimCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newVolumeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newListCmd())
	return root
}

// tuning holds the flags shared by trim and analyze
type tuning struct {
	threshold float64
	minGap    float64
	chunk     float64
	formula   string
	keepTemp  bool
	cuts      string
}

func (t *tuning) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&t.threshold, "threshold", 0, "loudness a chunk must exceed to count as active")
	f.Float64Var(&t.minGap, "min-gap", 0, "seconds of quiet that end an active region")
	f.Float64Var(&t.chunk, "chunk", 0, "seconds of audio per loudness measurement")
	f.StringVar(&t.formula, "formula", "", "loudness formula (see 'autocut list formulas')")
	f.BoolVar(&t.keepTemp, "keep-temp", false, "keep the extracted audio and part files")
	f.StringVar(&t.cuts, "cuts", "", "also write the cut list as YAML to this path")
}

// apply copies explicitly set flags over cfg
func (t *tuning) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("threshold") {
		cfg.Segment.MinActiveLoudness = t.threshold
	}
	if f.Changed("min-gap") {
		cfg.Segment.MinInactiveGap = t.minGap
	}
	if f.Changed("chunk") {
		cfg.Segment.ChunkDuration = t.chunk
	}
	if f.Changed("formula") {
		cfg.Segment.LoudnessFormula = t.formula
	}
	if f.Changed("keep-temp") {
		cfg.Output.RemoveTemp = !t.keepTemp
	}
	return cfg.Validate()
}

func newTrimCmd() *cobra.Command {
	var (
		opts   tuning
		output string
		fast   bool
	)

	cmd := &cobra.Command{
		Use:   "trim [input video]",
		Short: "Write a copy of the video with the silent parts removed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("fast") {
				cfg.Output.CopyCodec = fast
			}

			pipe, err := pipeline.New(log.Logger, cfg)
			if err != nil {
				return err
			}

			res, err := pipe.Trim(cmd.Context(), args[0], output)
			if err != nil {
				return err
			}

			if opts.cuts != "" {
				if err := res.SaveCutList(opts.cuts); err != nil {
					return err
				}
			}

			logger := logging.WithComponent("cli")
			logger.Info().
				Str("output", res.OutputPath).
				Int("intervals", len(res.Intervals)).
				Float64("kept_seconds", res.KeptDuration).
				Float64("removed_seconds", res.RemovedDuration()).
				Msg("trim complete")

			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: <input>_active.<ext>)")
	cmd.Flags().BoolVar(&fast, "fast", false, "copy streams instead of re-encoding; cuts snap to keyframes")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var opts tuning

	cmd := &cobra.Command{
		Use:   "analyze [input video]",
		Short: "Print the active intervals of a video as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}

			pipe, err := pipeline.New(log.Logger, cfg)
			if err != nil {
				return err
			}

			res, err := pipe.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if opts.cuts != "" {
				if err := res.SaveCutList(opts.cuts); err != nil {
					return err
				}
				logger := logging.WithComponent("cli")
				logger.Info().Str("path", opts.cuts).Msg("cut list written")
				return nil
			}

			data, err := res.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	opts.register(cmd)
	return cmd
}

func newVolumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "volume [input video]",
		Short: "Report mean and peak volume, useful for picking a threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())

			ff, err := ffmpeg.New(log.Logger, ffmpeg.Options{
				FFmpegPath:  cfg.FFmpeg.BinaryPath,
				FFprobePath: cfg.FFmpeg.ProbePath,
				Threads:     cfg.FFmpeg.Threads,
			})
			if err != nil {
				return err
			}

			stats, err := ff.AnalyzeVolume(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "mean_volume: %.1f dB\nmax_volume: %.1f dB\n", stats.MeanVolume, stats.MaxVolume)
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config management commands",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "autocut.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if util.FileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			logger := logging.WithComponent("cli")
			logger.Info().Str("path", path).Msg("config written")
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(config.FromContext(cmd.Context()))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list [formulas]",
		Short:     "List available resources",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"formulas"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "formulas":
				for _, name := range loudness.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			default:
				return fmt.Errorf("unknown resource %q", args[0])
			}
		},
	}
}
