package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/siren.report/internal/capture"
	"github.com/banshee-data/siren.report/internal/fsutil"
	"github.com/banshee-data/siren.report/internal/monitoring"
	"github.com/banshee-data/siren.report/internal/recorder"
	"github.com/banshee-data/siren.report/internal/render"
	"github.com/banshee-data/siren.report/internal/security"
	"github.com/banshee-data/siren.report/internal/siren"
	"github.com/banshee-data/siren.report/internal/timeutil"
	"github.com/banshee-data/siren.report/internal/units"
)

type analyzeOptions struct {
	configPath string
	hop        int
	units      string
	plotPath   string
	htmlPath   string
	realtime   bool
	quiet      bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <recording.wav|recording.mp3>",
		Short: "Estimate vehicle speed from a siren recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAnalyze(ctx, cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "tuning config JSON (defaults to built-in values)")
	f.IntVar(&opts.hop, "hop", 1024, "samples fed to the analyser per tick")
	f.StringVar(&opts.units, "units", "", "display units ("+units.GetValidUnitsString()+"), overrides display_units")
	f.StringVar(&opts.plotPath, "plot", "", "write a frequency plot (.png, .svg or .pdf) of the final state")
	f.StringVar(&opts.htmlPath, "html", "", "write an interactive HTML chart of the final state")
	f.BoolVar(&opts.realtime, "realtime", false, "pace ticks at wall-clock speed instead of replaying as fast as possible")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "print only the final estimate")
	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, opts *analyzeOptions, path string) error {
	tuning, err := loadTuning(opts.configPath)
	if err != nil {
		return err
	}
	unit := tuning.GetDisplayUnits()
	if opts.units != "" {
		if !units.IsValid(opts.units) {
			return fmt.Errorf("invalid units %q, expected one of %s", opts.units, units.GetValidUnitsString())
		}
		unit = opts.units
	}

	for _, out := range []string{opts.plotPath, opts.htmlPath} {
		if out == "" {
			continue
		}
		if err := security.ValidateOutputPath(out); err != nil {
			return err
		}
	}

	fsys := fsutil.OSFileSystem{}
	src, err := capture.OpenFS(fsys, path)
	if err != nil {
		return err
	}

	params := siren.ParamsFromTuning(tuning)
	session := siren.NewSession(params)
	analyser := capture.NewAnalyser(capture.AnalyserConfigFromTuning(tuning), src.SampleRate())

	var clock timeutil.Clock = timeutil.NewMockClock(time.Unix(0, 0))
	if opts.realtime {
		clock = timeutil.RealClock{}
	}
	rec := recorder.New(session, analyser, clock)
	rec.Listen()
	if err := rec.StartRecording(); err != nil {
		return err
	}
	monitoring.Logf("[Analyze] Recording %s: session=%s, rate=%.0fHz, hop=%d",
		path, session.ID(), src.SampleRate(), opts.hop)

	out := cmd.OutOrStdout()
	var last siren.Snapshot
	err = rec.Run(ctx, src, opts.hop, func(snap siren.Snapshot) {
		last = snap
		if snap.Refitted && !opts.quiet {
			fmt.Fprintln(out, render.Summary(snap, unit))
		}
	})
	rec.StopRecording()
	if err != nil {
		return err
	}

	final := session.Snapshot(last.Now)
	final.Readings = last.Readings
	fmt.Fprintf(out, "final: %s\n", render.Summary(final, unit))

	if opts.plotPath != "" {
		if err := render.SavePlot(fsys, opts.plotPath, final, params, unit); err != nil {
			return err
		}
		monitoring.Logf("[Analyze] Wrote plot %s", opts.plotPath)
	}
	if opts.htmlPath != "" {
		if err := writeHTMLFile(fsys, opts.htmlPath, final, params, unit); err != nil {
			return err
		}
		monitoring.Logf("[Analyze] Wrote chart %s", opts.htmlPath)
	}
	return nil
}

func writeHTMLFile(fsys fsutil.FileSystem, path string, snap siren.Snapshot, p siren.Params, unit string) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return render.WriteHTML(f, snap, p, unit)
}
