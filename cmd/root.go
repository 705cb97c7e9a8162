// Package cmd wires the command line to the visualizer runtime.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/olivier-w/vivid/internal/audio"
	"github.com/olivier-w/vivid/internal/engine"
	"github.com/olivier-w/vivid/internal/media"
	"github.com/olivier-w/vivid/internal/remote"
	"github.com/olivier-w/vivid/internal/ui"
	"github.com/olivier-w/vivid/internal/util"
	"github.com/olivier-w/vivid/internal/vis"
)

type options struct {
	mic         bool
	device      int
	mode        string
	palette     string
	fftSize     int
	smoothing   float64
	sensitivity float64
	listen      string
}

// Execute parses the command line and runs the selected command.
func Execute() error {
	opts := &options{}

	root := &cobra.Command{
		Use:           "vivid [file]",
		Short:         "Real-time audio visualizer for the terminal",
		Long:          "Plays an audio file (or listens to the microphone) and renders animated spectrum visualizations in the terminal.\n\nSupported formats: " + media.SupportedExtsList(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.mic {
				return errors.New("pass an audio file, or --mic for live input")
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return run(path, opts)
		},
	}

	root.Flags().BoolVar(&opts.mic, "mic", false, "visualize live microphone input")
	root.Flags().IntVarP(&opts.device, "device", "d", audio.DefaultDevice,
		"input device ID for --mic (see 'vivid devices')")
	root.Flags().StringVarP(&opts.mode, "mode", "m", "", "initial visualization mode")
	root.Flags().StringVarP(&opts.palette, "palette", "p", "", "initial color palette")
	root.Flags().IntVar(&opts.fftSize, "fft", 0, "FFT size (power of two, 256-8192)")
	root.Flags().Float64Var(&opts.smoothing, "smoothing", -1, "spectrum smoothing time constant (0-1)")
	root.Flags().Float64Var(&opts.sensitivity, "sensitivity", 0, "magnitude sensitivity (0.1-5)")
	root.Flags().StringVar(&opts.listen, "listen", "", "serve spectrum data over WebSocket on this address")

	root.AddCommand(devicesCmd(), modesCmd())
	return root.Execute()
}

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := audio.ListInputDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("no input devices found")
				return nil
			}
			for _, d := range devices {
				fmt.Printf("%3d  %s (%d ch, %s)\n", d.ID, d.Name, d.Channels, util.FormatHz(int(d.SampleRate)))
			}
			return nil
		},
	}
}

func modesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List visualization modes and palettes",
		Run: func(cmd *cobra.Command, args []string) {
			names := make([]string, 0)
			for _, m := range vis.Modes() {
				names = append(names, m.Name())
			}
			fmt.Println("modes:    " + strings.Join(names, ", "))
			fmt.Println("palettes: " + strings.Join(vis.PaletteNames(), ", "))
		},
	}
}

func run(path string, opts *options) error {
	analyzer := audio.NewAnalyzer()
	store := vis.NewStore()
	if err := applyInitialSettings(store, opts); err != nil {
		return err
	}

	eng := engine.New(analyzer, store)
	if opts.mode != "" {
		if err := eng.SetMode(opts.mode); err != nil {
			return fmt.Errorf("%w (available: %s)", err, strings.Join(eng.ModeNames(), ", "))
		}
	}

	title, hasFile, err := attachSource(analyzer, path, opts)
	if err != nil {
		return err
	}
	defer analyzer.Detach()

	if opts.listen != "" {
		server := remote.NewServer(store)
		if err := server.Start(opts.listen); err != nil {
			return err
		}
		eng.AddSink(server)
		defer server.Close()
	}

	model := ui.New(analyzer, eng, store, title, hasFile)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

func attachSource(analyzer *audio.Analyzer, path string, opts *options) (title string, hasFile bool, err error) {
	if opts.mic {
		src := audio.NewMicSource(opts.device)
		if err := analyzer.Attach(src); err != nil {
			return "", false, fmt.Errorf("opening microphone: %w", err)
		}
		return "microphone", false, nil
	}

	if !media.IsAudioFile(path) {
		return "", false, fmt.Errorf("unsupported file type %q (supported: %s)",
			path, media.SupportedExtsList())
	}
	src := audio.NewFileSource(path)
	if err := analyzer.Attach(src); err != nil {
		return "", false, err
	}
	title = src.Meta().Title
	if title == "" {
		title = path
	}
	return title, true, nil
}

func applyInitialSettings(store *vis.Store, opts *options) error {
	var p vis.Patch
	if opts.fftSize > 0 {
		p.FFTSize = &opts.fftSize
	}
	if opts.smoothing >= 0 {
		p.SmoothingTimeConstant = &opts.smoothing
	}
	if opts.sensitivity > 0 {
		p.Sensitivity = &opts.sensitivity
	}
	store.Apply(p)

	if opts.palette != "" {
		known := false
		for _, name := range vis.PaletteNames() {
			if name == opts.palette {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown palette %q (available: %s)",
				opts.palette, strings.Join(vis.PaletteNames(), ", "))
		}
		store.SetPalette(opts.palette)
	}
	return nil
}

// Main is the process entry point shared by the binary.
func Main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
