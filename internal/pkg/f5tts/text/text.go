// Package text prepares transcripts for synthesis: light normalization,
// reference transcript fixup, and splitting long generation text into
// chunks the model can cover with one reference pass.
package text

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Chunk boundaries: western and CJK clause punctuation.
	splitRe = regexp.MustCompile(`[^;:,.!?；：，。！？]*[;:,.!?；：，。！？]*\s*`)
)

// Normalize canonicalizes text before encoding: NFC, straightened quotes,
// plain punctuation, collapsed whitespace.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = normalizeQuotes(text)
	text = normalizePunctuation(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// EnsureTerminated makes sure the reference transcript ends with terminal
// punctuation and a trailing space, which the model expects as the
// boundary between reference and generated text.
func EnsureTerminated(refText string) string {
	refText = strings.TrimRight(refText, " ")
	if refText == "" {
		return refText
	}
	if strings.HasSuffix(refText, "。") || strings.HasSuffix(refText, "？") || strings.HasSuffix(refText, "！") {
		return refText
	}
	switch refText[len(refText)-1] {
	case '.', '!', '?':
		return refText + " "
	}
	return refText + ". "
}

// MaxChunkBytes derives the text budget of one synthesis pass from how many
// transcript bytes the reference covers per second, scaled by the portion of
// the model's duration window left after the reference.
func MaxChunkBytes(refText string, refSeconds, speed float64) int {
	const durationWindow = 22.0

	if refSeconds <= 0 {
		refSeconds = 1
	}
	headroom := durationWindow - refSeconds
	if headroom < 2 {
		headroom = 2
	}

	budget := int(float64(len(refText)) / refSeconds * headroom * speed)
	if budget < 10 {
		budget = 10
	}
	return budget
}

// Chunk splits text at punctuation boundaries and greedily packs the pieces
// into chunks of at most maxBytes bytes. A single piece longer than the
// budget becomes its own chunk rather than being split mid-clause.
func Chunk(text string, maxBytes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	pieces := splitRe.FindAllString(text, -1)

	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(piece) > maxBytes {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

func normalizeQuotes(text string) string {
	text = strings.ReplaceAll(text, "“", "\"")
	text = strings.ReplaceAll(text, "”", "\"")
	text = strings.ReplaceAll(text, "‘", "'")
	text = strings.ReplaceAll(text, "’", "'")
	text = strings.ReplaceAll(text, "«", "\"")
	text = strings.ReplaceAll(text, "»", "\"")
	return text
}

func normalizePunctuation(text string) string {
	text = strings.ReplaceAll(text, "—", ", ")
	text = strings.ReplaceAll(text, "–", ", ")
	text = strings.ReplaceAll(text, "…", "...")
	text = strings.ReplaceAll(text, "•", ",")
	return text
}
