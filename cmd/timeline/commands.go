package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"interaction-timeline/internal/interaction"
	"interaction-timeline/internal/playback"
	"interaction-timeline/internal/platform/logger"
	"interaction-timeline/internal/script"

	"github.com/spf13/cobra"
)

func evalCmd(logLevel *string) *cobra.Command {
	var (
		frame  int
		fps    int
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Print the snapshot of a script at one frame",
		Example: `  timeline eval sequences/adaptive_system_prompt.yaml --frame 200
  timeline eval intro.json --frame 45 --fps 24 --indent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewWithWriter(cmd.ErrOrStderr(), *logLevel, "text")
			e, err := loadEngine(log, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(e.Evaluate(frame, fps))
		},
	}

	cmd.Flags().IntVar(&frame, "frame", 0, "Frame to evaluate")
	cmd.Flags().IntVar(&fps, "fps", playback.DefaultFPS, "Frames per second")
	cmd.Flags().BoolVar(&indent, "indent", false, "Indent the JSON output")
	return cmd
}

func renderCmd(logLevel *string) *cobra.Command {
	var (
		from, to, step int
		fps, workers   int
		maxFrames      int
	)

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Print one JSON line per frame of a range",
		Long: `render evaluates a script over the frames from --from to --to (default:
the last frame of the sequence), every --step frames, and writes one JSON
object per line with the frame's timecode and snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewWithWriter(cmd.ErrOrStderr(), *logLevel, "text")
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			svc := playback.NewService(
				playback.NewEngineRepository(playback.ScriptCompiler()),
				playback.Options{DefaultFPS: fps, Workers: workers, MaxFrames: maxFrames},
			)
			id := playback.SequenceID(filepath.Base(args[0]))
			sum, _, err := svc.Register(id, source)
			if err != nil {
				return err
			}
			logDiagnostics(log, args[0], sum.Diagnostics)

			var end *int
			if cmd.Flags().Changed("to") {
				end = &to
			}
			rng, err := svc.Range(id, from, end, step)
			if err != nil {
				return err
			}
			snaps, err := svc.RenderRange(cmd.Context(), id, rng, fps)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, snap := range snaps {
				line := struct {
					Timecode string               `json:"timecode"`
					Snapshot interaction.Snapshot `json:"snapshot"`
				}{playback.Timecode(snap.Frame, snap.FPS), snap}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			log.Info("rendered", slog.String("file", args[0]), slog.Int("frames", len(snaps)))
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "First frame")
	cmd.Flags().IntVar(&to, "to", 0, "Last frame (default: end of the sequence)")
	cmd.Flags().IntVar(&step, "step", 1, "Frames between snapshots")
	cmd.Flags().IntVar(&fps, "fps", playback.DefaultFPS, "Frames per second")
	cmd.Flags().IntVar(&workers, "workers", playback.DefaultWorkers, "Frames evaluated concurrently")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 100000, "Refuse ranges with more frames than this")
	return cmd
}

func checkCmd(logLevel *string) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate scripts and list their diagnostics",
		Long: `check compiles each script and prints one line per diagnostic. It fails
when a script does not compile, or with --strict when any diagnostic is found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewWithWriter(cmd.ErrOrStderr(), *logLevel, "text")
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				e, err := loadEngine(log, path)
				if err != nil {
					fmt.Fprintln(out, err)
					failed++
					continue
				}
				diags := e.Diagnostics()
				for _, d := range diags {
					fmt.Fprintf(out, "%s: %s: %s\n", path, d.Kind, d)
				}
				switch {
				case strict && len(diags) > 0:
					failed++
				case len(diags) == 0:
					fmt.Fprintf(out, "%s: ok\n", path)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scripts failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat diagnostics as failures")
	return cmd
}

func loadEngine(log *slog.Logger, path string) (*interaction.Engine, error) {
	doc, err := script.LoadFile(path)
	if err != nil {
		return nil, err
	}
	e, err := doc.Engine()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logDiagnostics(log, path, e.Diagnostics())
	return e, nil
}

func logDiagnostics(log *slog.Logger, path string, diags []interaction.Diagnostic) {
	for _, d := range diags {
		log.Warn("diagnostic",
			slog.String("file", path),
			slog.String("kind", string(d.Kind)),
			slog.String("element", d.Element),
			slog.String("detail", d.Message))
	}
}
