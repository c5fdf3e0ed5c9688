package subtitle

import (
	"strings"
	"testing"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
- Olá, tudo bem?

2
00:00:04,000 --> 00:00:06,000
<i>Tudo ótimo,</i>
obrigado.

3
00:00:07,250 --> 00:00:09,000
Até já!
`

const sampleVTT = `WEBVTT

NOTE this block should be skipped

intro
00:01.000 --> 00:03.500 align:start
Olá, tudo bem?

00:00:04.000 --> 00:00:06.000
Tudo ótimo, obrigado.
`

func TestParseSRT(t *testing.T) {
	cues, format, err := Parse(strings.NewReader(sampleSRT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if format != FormatSRT {
		t.Errorf("format = %q, want %q", format, FormatSRT)
	}
	if len(cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(cues))
	}
	if cues[0].StartMs != 1000 || cues[0].EndMs != 3500 {
		t.Errorf("cue 0 timing = %d..%d, want 1000..3500", cues[0].StartMs, cues[0].EndMs)
	}
	if cues[0].Text != "- Olá, tudo bem?" {
		t.Errorf("cue 0 text = %q", cues[0].Text)
	}
	// Multi-line cue joined, markup stripped.
	if cues[1].Text != "Tudo ótimo, obrigado." {
		t.Errorf("cue 1 text = %q", cues[1].Text)
	}
	if cues[2].StartMs != 7250 {
		t.Errorf("cue 2 start = %d, want 7250", cues[2].StartMs)
	}
}

func TestParseWebVTT(t *testing.T) {
	cues, format, err := Parse(strings.NewReader(sampleVTT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if format != FormatWebVTT {
		t.Errorf("format = %q, want %q", format, FormatWebVTT)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	// Short timestamp form and cue settings after the end time.
	if cues[0].StartMs != 1000 || cues[0].EndMs != 3500 {
		t.Errorf("cue 0 timing = %d..%d, want 1000..3500", cues[0].StartMs, cues[0].EndMs)
	}
	if cues[1].Text != "Tudo ótimo, obrigado." {
		t.Errorf("cue 1 text = %q", cues[1].Text)
	}
}

func TestParseWebVTTWithByteOrderMark(t *testing.T) {
	cues, format, err := Parse(strings.NewReader("\uFEFF" + sampleVTT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if format != FormatWebVTT {
		t.Errorf("format = %q, want %q", format, FormatWebVTT)
	}
	if len(cues) != 2 {
		t.Errorf("got %d cues, want 2", len(cues))
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, _, err := Parse(strings.NewReader("not a subtitle file\n")); err == nil {
		t.Error("expected error for non-subtitle input")
	}
	bad := "1\n00:00:05,000 --> 00:00:01,000\nbackwards\n"
	if _, _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Error("expected error for cue ending before it starts")
	}
}

func TestPlainText(t *testing.T) {
	cues := []Cue{
		{StartMs: 0, EndMs: 1000, Text: "Olá."},
		{StartMs: 2000, EndMs: 3000, Text: "Adeus."},
	}
	got := PlainText(cues)
	want := "Olá.\nAdeus."
	if got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}
}

func TestCueForTime(t *testing.T) {
	cues := []Cue{
		{StartMs: 0, EndMs: 1000, Text: "a"},
		{StartMs: 2000, EndMs: 3000, Text: "b"},
	}
	if c := CueForTime(cues, 2500); c == nil || c.Text != "b" {
		t.Errorf("CueForTime(2500) = %+v, want cue b", c)
	}
	if c := CueForTime(cues, 1500); c != nil {
		t.Errorf("CueForTime(1500) = %+v, want nil", c)
	}
}
