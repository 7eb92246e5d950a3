// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"chromascope/internal/build"
	"chromascope/internal/config"
)

// ParseArgs loads the YAML configuration, layers command line flags on
// top, and returns the normalized result. One-off commands set
// Config.Command instead of running the engine.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	options, err := config.LoadConfig("")
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time pitch-class analysis for live audio",
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
			options.RunEngine = true
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "Browse audio devices interactively",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "devices"
		},
	}
	rootCmd.AddCommand(devicesCmd)

	flags := rootCmd.PersistentFlags()

	// Audio device configuration
	flags.IntVarP(&options.Audio.InputDevice, "device", "d", options.Audio.InputDevice,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.Float64VarP(&options.Audio.SampleRate, "sample-rate", "s", options.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&options.Audio.FramesPerBuffer, "frames-per-buffer", "b", options.Audio.FramesPerBuffer,
		"The number of frames per capture buffer (affects latency)")
	flags.BoolVarP(&options.Audio.LowLatency, "low-latency", "l", options.Audio.LowLatency,
		"Use low latency mode for real-time processing")

	// Analysis configuration
	flags.IntVarP(&options.Analysis.WindowSize, "window", "w", options.Analysis.WindowSize,
		"Analysis window length in samples (rounded up to a power of 2)")
	flags.IntVar(&options.Analysis.HopSize, "hop", options.Analysis.HopSize,
		"New samples between analysis passes")
	flags.Float64Var(&options.Analysis.MinHz, "min-hz", options.Analysis.MinHz,
		"Lower bound of the analysis band in Hz")
	flags.Float64Var(&options.Analysis.MaxHz, "max-hz", options.Analysis.MaxHz,
		"Upper bound of the analysis band in Hz")
	flags.Float64Var(&options.Analysis.Smoothing, "smoothing", options.Analysis.Smoothing,
		"Pitch-class smoothing factor in [0, 1); closer to 1 responds slower")
	flags.Float64Var(&options.Analysis.RefPitch, "ref-pitch", options.Analysis.RefPitch,
		"A4 reference frequency in Hz")

	// Tuner configuration
	flags.BoolVar(&options.Tuner.Enabled, "tuner", options.Tuner.Enabled,
		"Estimate the primary pitch each analysis pass")
	flags.Float64Var(&options.Tuner.Reactivity, "reactivity", options.Tuner.Reactivity,
		"Tuner frequency smoothing step in (0, 1]; 1 disables smoothing")

	// Recording configuration
	flags.BoolVarP(&options.Recording.Enabled, "record", "r", options.Recording.Enabled,
		"Record raw audio from the input device")
	flags.StringVarP(&options.Recording.OutputFile, "output", "o", options.Recording.OutputFile,
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Transport configuration
	flags.BoolVar(&options.Transport.WebSocketEnabled, "ws", options.Transport.WebSocketEnabled,
		"Serve analysis events over WebSocket")
	flags.StringVar(&options.Transport.WebSocketPort, "ws-port", options.Transport.WebSocketPort,
		"Port for the WebSocket event server")
	flags.BoolVar(&options.Transport.UDPEnabled, "udp", options.Transport.UDPEnabled,
		"Publish binary pitch-class frames over UDP")
	flags.StringVar(&options.Transport.UDPTarget, "udp-target", options.Transport.UDPTarget,
		"UDP target address, e.g. 127.0.0.1:9090")

	// Debug configuration
	flags.BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")

	if options.Recording.OutputFile == "" {
		options.Recording.OutputFile = "recording-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	options.Normalize()
	return options, nil
}
