// Package chunker splits narration into pieces small enough for a
// text-to-speech request.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultTargetSize = 400
	DefaultMaxSize    = 600
)

// Options configures chunking behavior. Chunks grow toward TargetSize and
// never exceed MaxSize bytes.
type Options struct {
	TargetSize int
	MaxSize    int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MaxSize:    DefaultMaxSize,
	}
}

// Chunk splits text into chunks. Short text (<= MaxSize) returns a single chunk.
func Chunk(text string, opts Options) []string {
	if opts.MaxSize <= 0 {
		opts = DefaultOptions()
	}
	if opts.TargetSize <= 0 || opts.TargetSize > opts.MaxSize {
		opts.TargetSize = opts.MaxSize
	}

	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}

	// Short content, no chunking needed
	if len(text) <= opts.MaxSize {
		return []string{text}
	}

	return merge(sentences(text), opts)
}

// sentences splits text after ., ! or ? followed by whitespace, and on
// blank lines.
func sentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' && r != '\n' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next >= len(text) {
			break
		}
		nr, _ := utf8.DecodeRuneInString(text[next:])
		if r == '\n' && nr != '\n' {
			continue
		}
		if !unicode.IsSpace(nr) {
			continue
		}
		if s := strings.TrimSpace(text[start:next]); s != "" {
			out = append(out, s)
		}
		start = next
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// merge packs sentences into chunks, splitting any sentence that alone
// exceeds MaxSize.
func merge(parts []string, opts Options) []string {
	var results []string
	var accum string

	flush := func() {
		if accum != "" {
			results = append(results, accum)
			accum = ""
		}
	}

	for _, p := range parts {
		if len(p) > opts.MaxSize {
			flush()
			results = append(results, splitWords(p, opts.MaxSize)...)
			continue
		}
		if accum == "" {
			accum = p
			continue
		}
		if combined := accum + " " + p; len(combined) <= opts.TargetSize {
			accum = combined
			continue
		}
		flush()
		accum = p
	}
	flush()

	return results
}

// splitWords breaks text on whitespace. Words longer than max are hard-split.
func splitWords(text string, max int) []string {
	var results []string
	var current string

	for _, w := range strings.Fields(text) {
		if len(w) > max {
			if current != "" {
				results = append(results, current)
				current = ""
			}
			results = append(results, hardSplit(w, max)...)
			continue
		}
		if current == "" {
			current = w
			continue
		}
		if len(current)+1+len(w) > max {
			results = append(results, current)
			current = w
			continue
		}
		current += " " + w
	}
	if current != "" {
		results = append(results, current)
	}
	return results
}

// hardSplit cuts s into pieces of at most max bytes on rune boundaries.
func hardSplit(s string, max int) []string {
	var results []string
	for len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			// max is smaller than one rune
			_, cut = utf8.DecodeRuneInString(s)
		}
		results = append(results, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		results = append(results, s)
	}
	return results
}
