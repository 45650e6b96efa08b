package services

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunk is one retrieval unit cut from a resume. SequenceIndex is stable
// across re-ingestions of the same text, which keeps vector ids
// deterministic.
type Chunk struct {
	SequenceIndex int
	Text          string
}

type Chunker interface {
	Split(text string) ([]Chunk, error)
}

type textChunker struct {
	chunkSize int
	overlap   int
	minChars  int
}

func NewChunker(cfg PipelineConfig) Chunker {
	cfg = cfg.withDefaults()
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 4
	}
	return &textChunker{
		chunkSize: cfg.ChunkSize,
		overlap:   cfg.ChunkOverlap,
		minChars:  cfg.MinDocumentChars,
	}
}

// Split normalizes the text and cuts it into chunks of roughly chunkSize
// runes. Paragraph breaks are preferred boundaries, then sentence breaks;
// a single run of text longer than chunkSize is hard-cut. Consecutive
// chunks share an overlap so context spanning a boundary survives
// retrieval.
func (tc *textChunker) Split(text string) ([]Chunk, error) {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil, fmt.Errorf("%w: document text is empty", ErrIngestion)
	}
	if count := utf8.RuneCountInString(normalized); count < tc.minChars {
		return nil, fmt.Errorf("%w: document has %d characters, need at least %d", ErrIngestion, count, tc.minChars)
	}

	pieces := tc.splitText(normalized)
	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, Chunk{SequenceIndex: i, Text: piece})
	}
	return chunks, nil
}

func (tc *textChunker) splitText(text string) []string {
	var chunks []string
	var current strings.Builder
	currentRunes := 0
	onlyCarry := false

	flush := func() {
		chunks = append(chunks, current.String())
		current.Reset()
		currentRunes = 0
		if tc.overlap > 0 {
			carry := getLastNChars(chunks[len(chunks)-1], tc.overlap)
			if carry != "" {
				current.WriteString(carry)
				currentRunes = utf8.RuneCountInString(carry)
				onlyCarry = true
			}
		}
	}

	appendPiece := func(piece, sep string) {
		pieceRunes := utf8.RuneCountInString(piece)
		if current.Len() > 0 && !onlyCarry &&
			currentRunes+len(sep)+pieceRunes > tc.chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
			currentRunes += utf8.RuneCountInString(sep)
		}
		current.WriteString(piece)
		currentRunes += pieceRunes
		onlyCarry = false
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= tc.chunkSize {
			appendPiece(para, "\n\n")
			continue
		}

		// Paragraph too long, fall back to sentence boundaries.
		for _, sentence := range splitIntoSentences(para) {
			if utf8.RuneCountInString(sentence) <= tc.chunkSize {
				appendPiece(sentence, " ")
				continue
			}
			// No usable boundary at all, hard-cut the run.
			for _, piece := range hardCut(sentence, tc.chunkSize) {
				appendPiece(piece, " ")
			}
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// normalizeText straightens line endings, strips trailing whitespace and
// collapses blank-line runs, keeping single paragraph breaks intact.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

func splitIntoSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func hardCut(text string, size int) []string {
	runes := []rune(text)
	pieces := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

func getLastNChars(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
