package ffmpeg

import (
	"strings"
	"sync"
)

const (
	// MaxDiagnosticLength bounds the message attached to engine errors.
	MaxDiagnosticLength = 500

	fallbackLines = 3
	tailCapacity  = 64
)

var errorKeywords = []string{
	"error",
	"invalid",
	"failed",
	"no such file",
	"not found",
	"unable",
	"cannot",
	"could not",
	"permission denied",
	"does not contain",
	"unrecognized",
}

// tailBuffer keeps the last lines written to it. It is the engine's stderr
// sink, so the process's output never grows memory without bound.
type tailBuffer struct {
	mu      sync.Mutex
	lines   []string
	head    int
	count   int
	partial strings.Builder
}

func newTailBuffer(capacity int) *tailBuffer {
	if capacity < 1 {
		capacity = tailCapacity
	}
	return &tailBuffer{lines: make([]string, capacity)}
}

// Write splits p into lines. A trailing fragment without a newline is held
// until the next write or Lines.
func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := string(p)
	for {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			break
		}
		b.partial.WriteString(s[:i])
		b.push(b.partial.String())
		b.partial.Reset()
		s = s[i+1:]
	}
	// A single overlong line must not defeat the bound.
	if b.partial.Len()+len(s) > 4*MaxDiagnosticLength {
		b.push(b.partial.String() + s)
		b.partial.Reset()
	} else {
		b.partial.WriteString(s)
	}
	return len(p), nil
}

func (b *tailBuffer) push(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	b.lines[b.head] = line
	b.head = (b.head + 1) % len(b.lines)
	if b.count < len(b.lines) {
		b.count++
	}
}

// Lines returns the retained non-empty lines, oldest first.
func (b *tailBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.partial.Len() > 0 {
		b.push(b.partial.String())
		b.partial.Reset()
	}
	out := make([]string, 0, b.count)
	start := (b.head - b.count + len(b.lines)) % len(b.lines)
	for i := 0; i < b.count; i++ {
		out = append(out, b.lines[(start+i)%len(b.lines)])
	}
	return out
}

// ExtractDiagnostic picks the lines worth reporting from engine stderr:
// every line containing an error keyword, or the last three non-empty lines
// when none match. The result is bounded to MaxDiagnosticLength.
func ExtractDiagnostic(lines []string) string {
	var picked []string
	for _, line := range lines {
		if hasErrorKeyword(line) {
			picked = append(picked, strings.TrimSpace(line))
		}
	}
	if len(picked) == 0 {
		for _, line := range lines {
			if line = strings.TrimSpace(line); line != "" {
				picked = append(picked, line)
			}
		}
		if len(picked) > fallbackLines {
			picked = picked[len(picked)-fallbackLines:]
		}
	}
	return truncate(strings.Join(picked, "; "), MaxDiagnosticLength)
}

func hasErrorKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range errorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// truncate keeps the tail of s, where the fatal message usually is, cut on a
// rune boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	const ellipsis = "..."
	cut := len(s) - (max - len(ellipsis))
	for cut < len(s) && !isRuneStart(s[cut]) {
		cut++
	}
	return ellipsis + s[cut:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
