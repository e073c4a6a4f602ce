// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"spettro/internal/build"
	"spettro/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ParsedArgs is the result of ParseArgs: a fully resolved Config
// (defaults, then an optional YAML file, then env overrides, then CLI
// flags, in increasing precedence) plus the positional audio file
// path(s) left over after flag parsing.
type ParsedArgs struct {
	Config *config.Config
	Files  []string
}

// configPathFromArgs scans args for a --config value ahead of the full
// flag parse, so the YAML file it names can be loaded first and used
// as the baseline the CLI flags are bound against and override.
func configPathFromArgs(args []string) string {
	fs := pflagConfigOnly()
	_ = fs.Parse(args)
	path, _ := fs.GetString("config")
	return path
}

// ParseArgs builds a Config from defaults, an optional --config YAML
// file, environment overrides, then the full CLI flag set, and returns
// it alongside the positional audio file path(s).
func ParseArgs() (*ParsedArgs, error) {
	buildInfo := build.GetBuildFlags()

	cfg, err := config.LoadConfig(configPathFromArgs(os.Args[1:]))
	if err != nil {
		return nil, err
	}
	result := &ParsedArgs{Config: cfg}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [flags] audiofile...",
		Short:         "Render a scrolling logarithmic-frequency spectrogram of an audio file",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			result.Files = args
			if cfg.Display.LeftBarTime != 0 {
				cfg.Display.LeftBarSet = true
			}
			if cfg.Display.RightBarTime != 0 {
				cfg.Display.RightBarSet = true
			}
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio output devices",
		Run: func(cmd *cobra.Command, args []string) {
			cfg.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	d := &cfg.Display
	a := &cfg.Audio

	rootCmd.PersistentFlags().BoolVarP(&d.Autoplay, "autoplay", "p", d.Autoplay, "Start playback immediately")
	rootCmd.PersistentFlags().BoolVarP(&d.ExitWhenPlayed, "exit-when-played", "e", d.ExitWhenPlayed, "Exit once playback reaches the end of the file")
	rootCmd.PersistentFlags().IntVarP(&d.Width, "width", "w", d.Width, "Display width in pixels")
	rootCmd.PersistentFlags().IntVarP(&d.Height, "height", "h", d.Height, "Display height in pixels")
	rootCmd.PersistentFlags().Float64VarP(&d.MinFreq, "min-freq", "n", d.MinFreq, "Minimum displayed frequency (Hz)")
	rootCmd.PersistentFlags().Float64VarP(&d.MaxFreq, "max-freq", "x", d.MaxFreq, "Maximum displayed frequency (Hz)")
	rootCmd.PersistentFlags().Float64VarP(&d.DynRangeDB, "dyn-range", "d", d.DynRangeDB, "Dynamic range in dB")
	rootCmd.PersistentFlags().IntVarP(&d.FPS, "fps", "S", d.FPS, "Scroll/refresh rate in frames per second")
	rootCmd.PersistentFlags().Float64VarP(&d.PixelsPerSec, "ppsec", "P", d.PixelsPerSec, "Pixels per second (horizontal time scale)")
	rootCmd.PersistentFlags().Float64VarP(&d.FFTFreq, "fft-freq", "f", d.FFTFreq, "FFT analysis frequency (Hz), determines window length")
	rootCmd.PersistentFlags().StringVarP(&d.Window, "window", "W", d.Window, "Window function: rectangular, hann, hamming, bartlett, blackman, nuttall, kaiser, dolph-chebyshev")
	rootCmd.PersistentFlags().Float64VarP(&d.StartTime, "start-time", "t", d.StartTime, "Initial playback position in seconds")
	rootCmd.PersistentFlags().Float64VarP(&d.LogMax, "logmax", "M", d.LogMax, "Fixed brightness ceiling (0 = auto)")
	rootCmd.PersistentFlags().BoolVarP(&d.ShowPiano, "piano", "k", d.ShowPiano, "Overlay piano key lines")
	rootCmd.PersistentFlags().BoolVarP(&d.ShowStaff, "staff", "s", d.ShowStaff, "Overlay staff lines")
	rootCmd.PersistentFlags().BoolVarP(&d.ShowGuitar, "guitar", "g", d.ShowGuitar, "Overlay guitar fret lines")
	rootCmd.PersistentFlags().BoolVarP(&d.ShowFreqAxes, "freq-axes", "a", d.ShowFreqAxes, "Show frequency axis")
	rootCmd.PersistentFlags().BoolVarP(&d.ShowTimeAxes, "time-axes", "A", d.ShowTimeAxes, "Show time axis")
	rootCmd.PersistentFlags().Float64VarP(&d.LeftBarTime, "left-bar", "l", d.LeftBarTime, "Left bar-line time in seconds")
	rootCmd.PersistentFlags().Float64VarP(&d.RightBarTime, "right-bar", "r", d.RightBarTime, "Right bar-line time in seconds")
	rootCmd.PersistentFlags().IntVarP(&d.BeatsPerBar, "beats-per-bar", "b", d.BeatsPerBar, "Beat lines drawn per bar")
	rootCmd.PersistentFlags().IntVarP(&d.MaxThreads, "max-threads", "j", d.MaxThreads, "Number of FFT worker threads")
	rootCmd.PersistentFlags().StringVarP(&d.OutputPNG, "output", "o", d.OutputPNG, "Write a screenshot PNG and exit")

	rootCmd.PersistentFlags().IntVar(&a.OutputDevice, "device", a.OutputDevice, "Output device ID; use the 'list' command to see available devices")
	rootCmd.PersistentFlags().StringVar(&result.Config.LogLevel, "log-level", result.Config.LogLevel, "Log verbosity: debug, info, warn, error")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file, loaded before flags are applied")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return result, nil
}

// pflagConfigOnly returns a permissive flag set recognising only
// --config, used to discover the YAML file path before the full flag
// set (whose defaults depend on that file) is built.
func pflagConfigOnly() *pflag.FlagSet {
	fs := pflag.NewFlagSet("config-probe", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	fs.String("config", "", "")
	return fs
}
