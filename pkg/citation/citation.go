// Package citation links numbered markers in assistant answers to the
// sources returned alongside them.
package citation

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"pharmarag-chat/pkg/conversation"
)

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Segment is either plain text or a resolved citation marker.
type Segment struct {
	Text   string               `json:"text"`
	Marker int                  `json:"marker,omitempty"`
	Source *conversation.Source `json:"source,omitempty"`
}

func (s Segment) IsCitation() bool { return s.Source != nil }

// Split breaks text into plain and citation segments. A marker [N] resolves
// to sources[N-1]; markers outside 1..len(sources) stay literal text and are
// counted in unresolved.
func Split(text string, sources []conversation.Source) (segments []Segment, unresolved int) {
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			segments = append(segments, Segment{Text: buf.String()})
			buf.Reset()
		}
	}

	last := 0
	for _, m := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		buf.WriteString(text[last:m[0]])
		last = m[1]

		raw := text[m[0]:m[1]]
		n, err := strconv.Atoi(text[m[2]:m[3]])
		src, ok := Resolve(sources, n)
		if err != nil || !ok {
			unresolved++
			buf.WriteString(raw)
			continue
		}

		flush()
		segments = append(segments, Segment{Text: raw, Marker: n, Source: &src})
	}
	buf.WriteString(text[last:])
	flush()
	return segments, unresolved
}

// Resolve returns the source a 1-based marker points at.
func Resolve(sources []conversation.Source, n int) (conversation.Source, bool) {
	if n < 1 || n > len(sources) {
		return conversation.Source{}, false
	}
	return sources[n-1], true
}

// Markers returns the marker numbers in text, in order of appearance.
func Markers(text string) []int {
	var out []int
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// MedicineName derives the document name a source refers to: the H1 heading
// when present, otherwise the last path element without its .md suffix.
// It returns "" when the source carries nothing to name a document by.
func MedicineName(src conversation.Source) string {
	if h1 := strings.TrimSpace(src.Metadata.H1); h1 != "" {
		return h1
	}
	p := strings.TrimSpace(src.Metadata.Path)
	if p == "" {
		p = strings.TrimSpace(src.Title)
	}
	p = strings.TrimRight(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSuffix(path.Base(p), ".md"))
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Highlight is a byte range inside a document body.
type Highlight struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Locate finds excerpt in body by literal substring match. No match is not
// an error; the caller simply shows the document without a highlight.
func Locate(body, excerpt string) (Highlight, bool) {
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		return Highlight{}, false
	}
	i := strings.Index(body, excerpt)
	if i < 0 {
		return Highlight{}, false
	}
	return Highlight{Start: i, End: i + len(excerpt)}, true
}
