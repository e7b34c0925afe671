package parser

import (
	"regexp"
	"strings"
)

// Chunker splits text into sentence-aligned chunks of roughly chunkSize
// characters, where consecutive chunks share whole trailing sentences
// totaling at least overlap characters.
type Chunker struct {
	chunkSize int
	overlap   int
}

var sentenceRe = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk returns the ordered chunk texts for the given input. Boundaries
// always fall on sentence boundaries; a single sentence longer than the
// chunk size becomes its own oversized chunk. Empty input yields nil.
func (c *Chunker) Chunk(text string) []string {
	sentences := c.sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var cur []string
	curLen := 0

	appendSentence := func(s string) {
		if len(cur) > 0 {
			curLen++ // joining space
		}
		cur = append(cur, s)
		curLen += len(s)
	}

	for _, s := range sentences {
		projected := curLen + len(s)
		if len(cur) > 0 {
			projected++
		}
		if projected > c.chunkSize && len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, " "))
			cur, curLen = c.seed(cur, len(s))
		}
		appendSentence(s)
	}
	chunks = append(chunks, strings.Join(cur, " "))
	return chunks
}

// seed picks the trailing sentences of the just-emitted chunk that start
// the next one. It takes the shortest suffix totaling at least the
// overlap size, never the whole chunk, and shrinks further if the next
// sentence would not fit alongside it.
func (c *Chunker) seed(prev []string, nextLen int) ([]string, int) {
	if c.overlap == 0 || len(prev) < 2 {
		return nil, 0
	}
	start := len(prev)
	for start > 1 && len(strings.Join(prev[start:], " ")) < c.overlap {
		start--
	}
	for start < len(prev) && len(strings.Join(prev[start:], " "))+1+nextLen > c.chunkSize {
		start++
	}
	if start >= len(prev) {
		return nil, 0
	}
	out := append([]string(nil), prev[start:]...)
	return out, len(strings.Join(out, " "))
}

// sentences normalizes whitespace and splits on terminator heuristics.
func (c *Chunker) sentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}
	raw := sentenceRe.FindAllString(normalized, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
