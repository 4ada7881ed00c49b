package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/gridpipe/internal/apcmini"
	"github.com/dshills/gridpipe/internal/config"
	"github.com/dshills/gridpipe/internal/dispatcher"
	"github.com/dshills/gridpipe/internal/midi"
	"github.com/dshills/gridpipe/internal/queue"
	"github.com/dshills/gridpipe/internal/transport"
)

func newMonitorCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Print controller events as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, *configFlag)
		},
	}
}

func runMonitor(cmd *cobra.Command, configFlag string) error {
	cfg, logger, cfgPath, err := loadConfig(configFlag)
	if err != nil {
		return err
	}

	ring, err := queue.New(cfg.Queue.SizeBits)
	if err != nil {
		return err
	}
	disp := dispatcher.New(ring,
		dispatcher.WithLogger(logger),
		dispatcher.WithMaxBatch(cfg.Dispatcher.MaxBatch),
		dispatcher.WithMaxCallbacks(cfg.Dispatcher.MaxCallbacks),
		dispatcher.WithFeedbackWindow(cfg.Dispatcher.FeedbackWindow()),
	)

	out := cmd.OutOrStdout()
	if _, err := disp.RegisterCallback(midi.AllowAll(), func(ev midi.Event) error {
		fmt.Fprintln(out, describeEvent(ev))
		return nil
	}); err != nil {
		return err
	}

	tr := transport.New(
		transport.WithLogger(logger),
		transport.WithPauseTimeout(cfg.Transport.PauseTimeout()),
		transport.WithReadTimeout(cfg.Transport.ReadTimeout()),
		transport.WithProductPreference(cfg.Transport.PreferredProductIDs),
		transport.WithAppVersion(appVersion()),
		transport.WithEventSink(func(ev midi.Event) {
			if !disp.Submit(ev) {
				logger.Warn("event dropped, queue full")
			}
		}),
	)
	if err := tr.Open(); err != nil {
		return err
	}
	defer tr.Close()

	loop := dispatcher.NewLoop(disp,
		dispatcher.WithPollInterval(cfg.Loop.PollInterval()),
		dispatcher.WithBatch(cfg.Dispatcher.MaxBatch),
	)
	loop.Start()
	defer loop.Stop()

	// Live reload only touches soft settings today, so log the change
	// and leave the running pipeline alone.
	if cfgPath != "" {
		if watcher, werr := config.Watch(cfgPath, func(config.Config) {
			logger.Info("configuration changed on disk, restart to apply")
		}, config.WithWatchLogger(logger)); werr == nil {
			defer watcher.Close()
		}
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	m := disp.Metrics()
	st := tr.Stats()
	logger.Info("monitor stopped",
		"processed", m.Processed,
		"suppressed", m.Suppressed,
		"sent", st.Sent,
		"received", st.Received,
		"dropped_frames", st.DroppedFrames)
	return nil
}

func describeEvent(ev midi.Event) string {
	switch {
	case ev.IsSysEx():
		return fmt.Sprintf("sysex   % x", ev.SysEx)
	case ev.Class() == midi.ClassNoteOn && apcmini.IsPadNote(ev.Data1):
		x, y := apcmini.NoteToPad(ev.Data1)
		return fmt.Sprintf("pad     (%d,%d) velocity %d", x, y, ev.Data2)
	case ev.Class() == midi.ClassNoteOff && apcmini.IsPadNote(ev.Data1):
		x, y := apcmini.NoteToPad(ev.Data1)
		return fmt.Sprintf("pad     (%d,%d) released", x, y)
	case apcmini.IsSceneNote(ev.Data1) && ev.Class() != midi.ClassControlChange:
		return fmt.Sprintf("scene   %d %s", ev.Data1-apcmini.SceneNoteStart+1, pressState(ev))
	case apcmini.IsTrackNote(ev.Data1) && ev.Class() != midi.ClassControlChange:
		return fmt.Sprintf("track   %d %s", ev.Data1-apcmini.TrackNoteStart+1, pressState(ev))
	case apcmini.IsShiftNote(ev.Data1) && ev.Class() != midi.ClassControlChange:
		return fmt.Sprintf("shift   %s", pressState(ev))
	case ev.Class() == midi.ClassControlChange && apcmini.IsFaderCC(ev.Data1):
		return fmt.Sprintf("fader   cc %#x value %d", ev.Data1, ev.Data2)
	default:
		return fmt.Sprintf("midi    %02x %02x %02x", ev.Status, ev.Data1, ev.Data2)
	}
}

func pressState(ev midi.Event) string {
	if ev.Class() == midi.ClassNoteOn && ev.Data2 > 0 {
		return "pressed"
	}
	return "released"
}
