// Package conflict turns the working tree left by a trial merge into
// annotated conflict records.
package conflict

import (
	"strings"
)

const (
	markerOurs   = "<<<<<<<"
	markerBase   = "|||||||"
	markerSplit  = "======="
	markerTheirs = ">>>>>>>"
)

// Range is a 1-indexed inclusive line range of a divergent region.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Record describes one conflicted file.
type Record struct {
	FilePath         string  `json:"fileName"`
	MarkerRanges     []Range `json:"markerRanges"`
	AnnotatedContent string  `json:"conflictContent"`
}

// SplitLines splits content on newlines, dropping the empty tail after a
// final newline.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func isMarker(line, marker string) bool {
	if !strings.HasPrefix(line, marker) {
		return false
	}
	rest := line[len(marker):]
	return rest == "" || rest[0] == ' '
}

// ExtractRanges strips git's conflict markers from content. It returns the
// remaining lines and one range per conflict hunk covering the ours lines
// followed by the theirs lines. Base sections of diff3 output are dropped.
func ExtractRanges(content string) ([]string, []Range) {
	const (
		outside = iota
		ours
		base
		theirs
	)

	var (
		lines  []string
		ranges []Range
		state  = outside
		start  int
	)

	closeHunk := func() {
		if end := len(lines); end >= start {
			ranges = append(ranges, Range{Start: start, End: end})
		}
		state = outside
	}

	for _, line := range SplitLines(content) {
		switch {
		case state == outside && isMarker(line, markerOurs):
			state = ours
			start = len(lines) + 1
		case state == ours && isMarker(line, markerBase):
			state = base
		case (state == ours || state == base) && line == markerSplit:
			state = theirs
		case state == theirs && isMarker(line, markerTheirs):
			closeHunk()
		case state == base:
		default:
			lines = append(lines, line)
		}
	}
	if state != outside {
		closeHunk()
	}
	return lines, ranges
}

// Annotate re-inserts markers named after the branches around each range.
// Lines outside ranges are emitted verbatim, each followed by a newline.
func Annotate(lines []string, ranges []Range, target, source string) string {
	var b strings.Builder
	next := 0
	for i, line := range lines {
		n := i + 1
		for next < len(ranges) && ranges[next].End < n {
			next++
		}
		if next < len(ranges) && n == ranges[next].Start {
			b.WriteString(markerOurs + " " + target + "\n")
		}
		b.WriteString(line)
		b.WriteByte('\n')
		if next < len(ranges) && n == ranges[next].End {
			b.WriteString(markerSplit + "\n")
			b.WriteString(markerTheirs + " " + source + "\n")
			next++
		}
	}
	return b.String()
}

// HasMarkers reports whether content still carries an opening or closing
// conflict marker line.
func HasMarkers(content string) bool {
	for _, line := range SplitLines(content) {
		if isMarker(line, markerOurs) || isMarker(line, markerTheirs) {
			return true
		}
	}
	return false
}
