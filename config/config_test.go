package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-stepseq/sequencer"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tempo != 110 || cfg.Swing != 0 {
		t.Fatalf("expected 110 bpm straight, got %v/%v", cfg.Tempo, cfg.Swing)
	}
	if len(cfg.Tracks) != 6 || cfg.Tracks[5].Name != "Synth" {
		t.Fatalf("expected reference kit, got %+v", cfg.Tracks)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "tempo: 92.5\nswing: 30\noutput:\n  port: IAC\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tempo != 92.5 || cfg.Swing != 30 {
		t.Fatalf("transport not read: %+v", cfg)
	}
	if cfg.Output.Port != "IAC" || cfg.Output.Channel != 1 || cfg.Output.Velocity != 100 {
		t.Fatalf("output defaults lost: %+v", cfg.Output)
	}
	if len(cfg.Tracks) != len(sequencer.DefaultVoices()) {
		t.Fatalf("expected default tracks, got %d", len(cfg.Tracks))
	}
}

func TestCustomTracks(t *testing.T) {
	path := writeFile(t, `
tracks:
  - name: Rim
    role: percussive
    sample: c#1
  - name: Pad
    role: melodic
    chords:
      - from: 0
        to: 15
        pitches: [c3, eb3, g3]
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(cfg.Tracks))
	}
	pad := cfg.FindTrack("Pad")
	if pad == nil || pad.Duration != sequencer.DefaultChordDuration {
		t.Fatalf("melodic duration should default, got %+v", pad)
	}
	if cfg.FindTrack("Kick") != nil {
		t.Fatalf("custom tracks replace the kit")
	}
}

func TestRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"zero tempo":  "tempo: 0\n",
		"bad channel": "output:\n  channel: 17\n",
		"bad sample":  "tracks:\n  - name: X\n    role: percussive\n    sample: snare.wav\n",
		"bad pitch":   "tracks:\n  - name: X\n    role: melodic\n    chords:\n      - {from: 0, to: 15, pitches: [q4]}\n",
		"gap range":   "tracks:\n  - name: X\n    role: melodic\n    chords:\n      - {from: 3, to: 16, pitches: [c4]}\n",
		"not yaml":    "tempo: [\n",
	}
	for name, body := range cases {
		if _, err := LoadFile(writeFile(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestValidateWrapsVoiceErrors(t *testing.T) {
	cfg := Default()
	cfg.Tracks = nil
	if err := cfg.Validate(); !errors.Is(err, sequencer.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Tempo = 128
	cfg.Output.Port = "Digitakt"
	cfg.Log.File = "/tmp/stepseq.log"
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Tempo != 128 || got.Output.Port != "Digitakt" || got.Log.File != "/tmp/stepseq.log" {
		t.Fatalf("round trip lost values: %+v", got)
	}
	synth := got.FindTrack("Synth")
	if synth == nil || len(synth.Chords) != 2 || synth.Chords[1].From != 7 {
		t.Fatalf("chord table lost: %+v", synth)
	}
}

func TestValidateParsesNotesBeyondStructure(t *testing.T) {
	cfg := Default()
	cfg.Tracks[5].Chords[1].Pitches = []string{"a#3", "d4", "gx4"}
	if err := sequencer.ValidateVoices(cfg.Tracks); err != nil {
		t.Fatalf("structure is valid, got %v", err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "gx4") {
		t.Fatalf("expected note error for gx4, got %v", err)
	}
}
