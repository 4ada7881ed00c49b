package apcmini

import (
	"bytes"
	"testing"
)

func TestPadNoteRoundTrip(t *testing.T) {
	for y := 0; y < PadRows; y++ {
		for x := 0; x < PadCols; x++ {
			note := PadToNote(x, y)
			if !IsPadNote(note) {
				t.Fatalf("PadToNote(%d,%d) = %d outside pad range", x, y, note)
			}
			gx, gy := NoteToPad(note)
			if gx != x || gy != y {
				t.Fatalf("NoteToPad(%d) = (%d,%d), want (%d,%d)", note, gx, gy, x, y)
			}
		}
	}
}

func TestNoteClassification(t *testing.T) {
	tests := []struct {
		name  string
		note  uint8
		pad   bool
		track bool
		scene bool
		shift bool
	}{
		{"first pad", 0x00, true, false, false, false},
		{"last pad", 0x3F, true, false, false, false},
		{"first track", 0x64, false, true, false, false},
		{"last track", 0x6B, false, true, false, false},
		{"first scene", 0x70, false, false, true, false},
		{"shift", 0x7A, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPadNote(tt.note); got != tt.pad {
				t.Errorf("IsPadNote(0x%02X) = %v", tt.note, got)
			}
			if got := IsTrackNote(tt.note); got != tt.track {
				t.Errorf("IsTrackNote(0x%02X) = %v", tt.note, got)
			}
			if got := IsSceneNote(tt.note); got != tt.scene {
				t.Errorf("IsSceneNote(0x%02X) = %v", tt.note, got)
			}
			if got := IsShiftNote(tt.note); got != tt.shift {
				t.Errorf("IsShiftNote(0x%02X) = %v", tt.note, got)
			}
		})
	}
}

func TestFaderCC(t *testing.T) {
	for cc := FaderCCStart; cc <= FaderCCEnd; cc++ {
		if !IsTrackFaderCC(cc) || !IsFaderCC(cc) {
			t.Errorf("cc 0x%02X not recognized as track fader", cc)
		}
	}
	if IsTrackFaderCC(MasterFaderCC) {
		t.Error("master fader misclassified as track fader")
	}
	if !IsFaderCC(MasterFaderCC) {
		t.Error("master fader not recognized as fader")
	}
	if IsFaderCC(0x2F) || IsFaderCC(0x39) {
		t.Error("out-of-range cc recognized as fader")
	}
}

func TestIntroductionMessage(t *testing.T) {
	got := IntroductionMessage(1, 2, 3)
	want := []byte{0x47, 0x7F, 0x4F, 0x60, 0x00, 0x04, 0x01, 0x01, 0x02, 0x03}
	if !bytes.Equal(got, want) {
		t.Errorf("IntroductionMessage = % X, want % X", got, want)
	}

	// Version fields must stay 7-bit clean.
	got = IntroductionMessage(0xFF, 0x80, 0x7F)
	for i, b := range got {
		if b > 0x7F {
			t.Errorf("byte %d = 0x%02X exceeds 7 bits", i, b)
		}
	}
}

func TestRGBRangeMessage(t *testing.T) {
	got := RGBRangeMessage(0, 63, RGB{R: 255, G: 128, B: 1})
	want := []byte{
		0x47, 0x7F, 0x4F, 0x24,
		0x00, 0x08,
		0x00, 0x3F,
		0x01, 0x7F, // R=255 -> MSB 1, LSB 0x7F
		0x01, 0x00, // G=128 -> MSB 1, LSB 0
		0x00, 0x01, // B=1
	}
	if !bytes.Equal(got, want) {
		t.Errorf("RGBRangeMessage = % X, want % X", got, want)
	}
}

func TestModeChangeMessage(t *testing.T) {
	got := ModeChangeMessage(ModeDrum)
	want := []byte{0x47, 0x7F, 0x4F, 0x62, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("ModeChangeMessage = % X, want % X", got, want)
	}
}
