package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/gridpipe/internal/apcmini"
	"github.com/dshills/gridpipe/internal/transport"
)

func newPaintCommand(configFlag *string) *cobra.Command {
	var all bool
	var rgb string

	cmd := &cobra.Command{
		Use:   "paint [note] [value]",
		Short: "Light controller LEDs",
		Long: `Light controller LEDs.

With a note and value, sends a single LED update. With --all, repaints
the full 8x8 pad grid in one batch. With --rgb RRGGBB, paints the grid
using the MK2 RGB lighting message instead of velocity colors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaint(cmd, *configFlag, args, all, rgb)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "paint every pad with the given value")
	cmd.Flags().StringVar(&rgb, "rgb", "", "paint the grid with a hex RGB color (MK2 only)")
	return cmd
}

func runPaint(cmd *cobra.Command, configFlag string, args []string, all bool, rgb string) error {
	cfg, logger, _, err := loadConfig(configFlag)
	if err != nil {
		return err
	}

	tr := transport.New(
		transport.WithLogger(logger),
		transport.WithPauseTimeout(cfg.Transport.PauseTimeout()),
		transport.WithReadTimeout(cfg.Transport.ReadTimeout()),
		transport.WithAppVersion(appVersion()),
	)
	if err := tr.Open(); err != nil {
		return err
	}
	defer tr.Close()

	switch {
	case rgb != "":
		color, err := parseRGB(rgb)
		if err != nil {
			return err
		}
		return tr.SendSysEx(apcmini.RGBRangeMessage(apcmini.PadNoteStart, apcmini.PadNoteEnd, color))

	case all:
		value, err := parseData(args, 0, "value")
		if err != nil {
			return err
		}
		indices := make([]uint8, apcmini.PadCount)
		values := make([]uint8, apcmini.PadCount)
		for i := range indices {
			indices[i] = uint8(i)
			values[i] = value
		}
		return tr.BatchSend(indices, values)

	default:
		if len(args) != 2 {
			return fmt.Errorf("paint needs a note and a value, got %d arguments", len(args))
		}
		note, err := parseData(args, 0, "note")
		if err != nil {
			return err
		}
		value, err := parseData(args, 1, "value")
		if err != nil {
			return err
		}
		return tr.SetOutput(note, value)
	}
}

func parseData(args []string, i int, name string) (uint8, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing %s argument", name)
	}
	v, err := strconv.ParseUint(args[i], 0, 8)
	if err != nil || v > 0x7F {
		return 0, fmt.Errorf("%s must be 0-127, got %q", name, args[i])
	}
	return uint8(v), nil
}

func parseRGB(s string) (apcmini.RGB, error) {
	if len(s) != 6 {
		return apcmini.RGB{}, fmt.Errorf("rgb color must be 6 hex digits, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return apcmini.RGB{}, fmt.Errorf("rgb color must be hex, got %q", s)
	}
	return apcmini.RGB{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}
