package sensor

import (
	"math"
	"strconv"
	"strings"
)

// Parsed is the result of converting raw delimited text into frames.
type Parsed struct {
	// Frames holds one frame per complete block of Rows input lines,
	// or a single snapshot frame when the input is shorter than that.
	Frames []Frame

	// Last is the most recent frame, i.e. the final element of Frames.
	Last Frame

	// Degraded counts samples that could not be read from the input and
	// were replaced with BaselineValue.
	Degraded int
}

// Parse converts raw delimited sensor text into a sequence of fixed-size
// frames. Lines are trimmed and empty lines skipped; tokens split on
// comma, semicolon and whitespace. Malformed tokens never fail the parse,
// they degrade to BaselineValue.
//
// Each block of Rows lines becomes one frame; trailing lines that do not
// fill a complete block are dropped. Input shorter than one block yields a
// single snapshot frame with zero rows padded at the front, so the most
// recent data lands at the end of the frame. Empty input yields one
// zero-filled frame.
//
// Parse is a pure function of its input.
func Parse(raw string) Parsed {
	lines := splitLines(raw)
	if len(lines) == 0 {
		f := zeroFrame()
		return Parsed{Frames: []Frame{f}, Last: f}
	}

	var degraded int
	rows := make([][]float64, len(lines))
	for i, line := range lines {
		var n int
		rows[i], n = parseRow(line)
		degraded += n
	}

	if len(rows) < Rows {
		f := snapshotFrame(rows)
		return Parsed{Frames: []Frame{f}, Last: f, Degraded: degraded}
	}

	count := len(rows) / Rows
	frames := make([]Frame, 0, count)
	for b := 0; b < count; b++ {
		f := zeroFrame()
		block := rows[b*Rows : (b+1)*Rows]
		for r, row := range block {
			copy(f[r*Cols:(r+1)*Cols], row)
		}
		frames = append(frames, f)
	}

	return Parsed{Frames: frames, Last: frames[len(frames)-1], Degraded: degraded}
}

// splitLines breaks raw text into trimmed, non-empty lines.
func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isDelimiter(r rune) bool {
	return r == ',' || r == ';' || r == ' ' || r == '\t'
}

// parseRow converts one input line into exactly Cols samples, padding short
// rows with BaselineValue and truncating long ones. It returns the number
// of samples that degraded to the baseline.
func parseRow(line string) ([]float64, int) {
	tokens := strings.FieldsFunc(line, isDelimiter)

	var degraded int
	row := make([]float64, Cols)
	for i := 0; i < Cols; i++ {
		if i >= len(tokens) {
			row[i] = BaselineValue
			degraded++
			continue
		}
		v, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			v = BaselineValue
			degraded++
		}
		row[i] = v
	}
	return row, degraded
}

// snapshotFrame builds the single-frame fallback for inputs shorter than
// one full block: available rows go at the bottom of the grid, zero rows
// fill the space above them.
func snapshotFrame(rows [][]float64) Frame {
	if len(rows) > Rows {
		rows = rows[len(rows)-Rows:]
	}
	f := zeroFrame()
	offset := Rows - len(rows)
	for i, row := range rows {
		copy(f[(offset+i)*Cols:(offset+i+1)*Cols], row)
	}
	return f
}
