package ingest

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order, from paragraph breaks down to single runes
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into chunks of at most ChunkSize runes, carrying up to
// ChunkOverlap runes of the previous chunk into the next one.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter creates a recursive character splitter
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 200
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// Split returns the chunks of text. Blank chunks are dropped.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	// pick the first separator present in the text
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = runeStrings(text)
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, good []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if runeLen(p) < s.ChunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good, sep)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, p)
			continue
		}
		out = append(out, s.split(p, rest)...)
	}
	if len(good) > 0 {
		out = append(out, s.merge(good, sep)...)
	}
	return out
}

// merge packs small pieces into chunks, keeping a tail of at most
// ChunkOverlap runes as the head of the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	var chunks []string
	var current []string
	total := 0

	for _, p := range pieces {
		n := runeLen(p)
		joined := 0
		if len(current) > 0 {
			joined = sepLen
		}
		if total+n+joined > s.ChunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// drop from the front until the tail fits the overlap and leaves room for p
			for len(current) > 0 {
				extra := 0
				if len(current) > 1 {
					extra = sepLen
				}
				if total <= s.ChunkOverlap && total+n+sepLen <= s.ChunkSize {
					break
				}
				total -= runeLen(current[0]) + extra
				current = current[1:]
			}
			if len(current) == 0 {
				total = 0
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, p)
		total += n
	}
	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
