package docdex

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the target chunk length in bytes.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the number of bytes a chunk extends back into
// its predecessor when a paragraph is split at sentence boundaries.
const DefaultChunkOverlap = 100

// paragraphRe matches blank-line paragraph separators.
var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// sentenceSeps are the recognized sentence terminators, in the order
// they are tried when searching for a break point.
var sentenceSeps = []string{".\n", ". ", "!\n", "! ", "?\n", "? "}

// Chunker splits document text into ordered, overlapping chunks with
// byte offsets into the original content. Identical input and
// parameters always produce the identical chunk sequence.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker returns a Chunker with the given parameters, falling back
// to defaults for non-positive size and negative overlap. An overlap
// that is not smaller than the size is reduced to size/4 so splitting
// always makes forward progress.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 4
	}
	return Chunker{Size: size, Overlap: overlap}
}

// span is a half-open byte range into the source content.
type span struct {
	start, end int
}

// Split produces the chunk sequence for content. Each chunk's Content
// equals content[StartPos:EndPos]. ID and DocumentID are left zero for
// the store to assign.
func (c Chunker) Split(content string) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	var chunks []Chunk
	emit := func(s span) {
		if s.end <= s.start {
			return
		}
		text := content[s.start:s.end]
		if strings.TrimSpace(text) == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Content:  text,
			StartPos: s.start,
			EndPos:   s.end,
		})
	}

	// Accumulate consecutive paragraphs into one chunk while the span
	// stays within the size budget.
	var cur *span
	flush := func() {
		if cur != nil {
			emit(*cur)
			cur = nil
		}
	}

	for _, para := range paragraphs(content) {
		if cur != nil && para.end-cur.start <= c.Size {
			cur.end = para.end
			continue
		}
		flush()

		if para.end-para.start <= c.Size {
			cur = &span{start: para.start, end: para.end}
			continue
		}

		// Oversized paragraph: split at sentence boundaries, stitching
		// consecutive chunks with Overlap bytes of shared context.
		for _, s := range c.splitParagraphSpans(content, para) {
			emit(s)
		}
	}
	flush()

	// Content with no recognizable structure still yields one chunk.
	if len(chunks) == 0 {
		emit(trimSpan(content, span{0, len(content)}))
	}

	return chunks
}

// splitParagraphSpans splits an oversized paragraph at sentence
// boundaries. A single sentence longer than Size is emitted whole
// rather than cut mid-sentence.
func (c Chunker) splitParagraphSpans(content string, para span) []span {
	text := content[para.start:para.end]
	var out []span

	start := 0
	for start < len(text) {
		end := start + c.Size
		if end >= len(text) {
			end = len(text)
		} else {
			if b := lastSentenceBoundary(text, start, end); b > start {
				end = b
			} else if b := nextSentenceBoundary(text, end); b > end {
				// No boundary inside the window: the sentence exceeds
				// Size, so extend to its end instead of truncating.
				end = b
			} else {
				end = len(text)
			}
		}

		out = append(out, span{start: para.start + start, end: para.start + end})

		next := end - c.Overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return out
}

// lastSentenceBoundary searches backwards within text[start:end) for a
// sentence terminator followed by whitespace and returns the position
// just after it, or start if none is found.
func lastSentenceBoundary(text string, start, end int) int {
	for _, sep := range sentenceSeps {
		if i := strings.LastIndex(text[start:end], sep); i > 0 {
			return start + i + len(sep)
		}
	}
	return start
}

// nextSentenceBoundary returns the position just after the earliest
// sentence terminator at or beyond from, or from if none exists.
func nextSentenceBoundary(text string, from int) int {
	best := -1
	for _, sep := range sentenceSeps {
		if i := strings.Index(text[from:], sep); i >= 0 {
			pos := from + i + len(sep)
			if best == -1 || pos < best {
				best = pos
			}
		}
	}
	if best == -1 {
		return from
	}
	return best
}

// paragraphs returns the spans between blank-line separators, trimmed
// to their non-whitespace extent.
func paragraphs(content string) []span {
	var out []span
	last := 0
	for _, m := range paragraphRe.FindAllStringIndex(content, -1) {
		if m[0] > last {
			if s := trimSpan(content, span{last, m[0]}); s.end > s.start {
				out = append(out, s)
			}
		}
		last = m[1]
	}
	if last < len(content) {
		if s := trimSpan(content, span{last, len(content)}); s.end > s.start {
			out = append(out, s)
		}
	}
	return out
}

// trimSpan narrows a span so it covers no leading or trailing
// whitespace, keeping offsets consistent with the original content.
func trimSpan(content string, s span) span {
	text := content[s.start:s.end]
	trimmed := strings.TrimLeft(text, " \t\r\n")
	s.start += len(text) - len(trimmed)
	trimmed = strings.TrimRight(trimmed, " \t\r\n")
	s.end = s.start + len(trimmed)
	return s
}
