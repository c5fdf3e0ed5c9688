// Package subtitle parses SRT and WebVTT subtitle files into timed cues.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Cue is a single timed subtitle line.
type Cue struct {
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// Format identifies a subtitle file format.
type Format string

const (
	FormatSRT    Format = "srt"
	FormatWebVTT Format = "vtt"
)

var (
	// 00:01:02,345 (SRT) or 00:01:02.345 (WebVTT); hours optional in WebVTT.
	timestampRe = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{2})[,.](\d{3})$`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
)

// Parse reads subtitle cues from r, detecting the format from the content.
// A leading WEBVTT header selects WebVTT, anything else is treated as SRT.
func Parse(r io.Reader) ([]Cue, Format, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to read subtitle file: %w", err)
	}

	format := FormatSRT
	if len(lines) > 0 && strings.HasPrefix(strings.TrimPrefix(lines[0], "\uFEFF"), "WEBVTT") {
		format = FormatWebVTT
		lines = lines[1:]
	}

	cues, err := parseCues(lines, format)
	if err != nil {
		return nil, format, err
	}
	return cues, format, nil
}

func parseCues(lines []string, format Format) ([]Cue, error) {
	var cues []Cue
	i := 0
	for i < len(lines) {
		// Skip blank lines and, for WebVTT, NOTE/STYLE blocks.
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if format == FormatWebVTT && (strings.HasPrefix(line, "NOTE") || line == "STYLE" || line == "REGION") {
			for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
				i++
			}
			continue
		}

		// Optional cue identifier (SRT sequence number or WebVTT cue id).
		if !strings.Contains(line, "-->") {
			i++
			if i >= len(lines) {
				break
			}
			line = strings.TrimSpace(lines[i])
		}

		start, end, err := parseTimingLine(line)
		if err != nil {
			return nil, fmt.Errorf("cue near line %d: %w", i+1, err)
		}
		i++

		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, cleanText(lines[i]))
			i++
		}
		joined := strings.TrimSpace(strings.Join(text, " "))
		if joined != "" {
			cues = append(cues, Cue{StartMs: start, EndMs: end, Text: joined})
		}
	}
	if len(cues) == 0 {
		return nil, fmt.Errorf("no cues found")
	}
	return cues, nil
}

func parseTimingLine(line string) (int64, int64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	// WebVTT allows cue settings after the end timestamp.
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	end, err := parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("cue ends before it starts: %q", line)
	}
	return start, end, nil
}

func parseTimestamp(s string) (int64, error) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	var hours int64
	if m[1] != "" {
		hours, _ = strconv.ParseInt(m[1], 10, 64)
	}
	minutes, _ := strconv.ParseInt(m[2], 10, 64)
	seconds, _ := strconv.ParseInt(m[3], 10, 64)
	millis, _ := strconv.ParseInt(m[4], 10, 64)
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	return ((hours*60+minutes)*60+seconds)*1000 + millis, nil
}

func cleanText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return strings.TrimSpace(s)
}

// PlainText joins the cues into one block of dialogue, one cue per line.
func PlainText(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(cue.Text)
	}
	return b.String()
}

// CueForTime returns the cue covering the given millisecond offset, or nil.
func CueForTime(cues []Cue, ms int64) *Cue {
	for i := range cues {
		if cues[i].StartMs <= ms && ms <= cues[i].EndMs {
			return &cues[i]
		}
	}
	return nil
}
