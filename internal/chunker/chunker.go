// Package chunker splits raw document text into bounded, semantically
// coherent segments for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTargetSize is the upper bound a chunk is grown toward.
	DefaultTargetSize = 1000
	// MinChunkLength filters out stray fragments left over from the
	// sentence split.
	MinChunkLength = 50
)

// Split segments text into chunks of at most targetSize characters.
//
// The text is split into sentence units on terminal punctuation, then
// sentences are greedily accumulated: when appending the next sentence
// would push a non-empty buffer past targetSize, the buffer is emitted
// and the sentence starts a new one. A single sentence longer than
// targetSize is emitted whole rather than force-split. Chunks shorter
// than MinChunkLength are discarded as noise.
//
// All sizes count characters (runes), not bytes; Turkish and Arabic
// text would otherwise hit the bounds at half the intended length.
//
// Split is a pure function of (text, targetSize).
func Split(text string, targetSize int) []string {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentRunes := 0

	for _, sentence := range sentences {
		sentenceRunes := utf8.RuneCountInString(sentence)
		if currentRunes > 0 && currentRunes+sentenceRunes > targetSize {
			chunks = appendChunk(chunks, current.String())
			current.Reset()
			current.WriteString(sentence)
			currentRunes = sentenceRunes
			continue
		}
		if currentRunes > 0 {
			current.WriteString(" ")
			currentRunes++
		}
		current.WriteString(sentence)
		currentRunes += sentenceRunes
	}

	if strings.TrimSpace(current.String()) != "" {
		chunks = appendChunk(chunks, current.String())
	}

	return chunks
}

// splitSentences breaks text on sentence-terminal punctuation and trims
// the resulting units. Empty units (consecutive terminators, trailing
// punctuation) are dropped.
func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder

	flush := func() {
		s := strings.TrimSpace(sb.String())
		sb.Reset()
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	for _, r := range text {
		switch r {
		case '.', '!', '?':
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()

	return sentences
}

func appendChunk(chunks []string, chunk string) []string {
	chunk = strings.TrimSpace(chunk)
	if utf8.RuneCountInString(chunk) < MinChunkLength {
		return chunks
	}
	return append(chunks, chunk)
}
