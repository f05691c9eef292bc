package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmarag-chat/pkg/conversation"
)

func sources(titles ...string) []conversation.Source {
	out := make([]conversation.Source, len(titles))
	for i, t := range titles {
		out[i] = conversation.Source{ID: string(rune('1' + i)), Title: t, Type: conversation.SourceType}
	}
	return out
}

func TestSplit(t *testing.T) {
	srcs := sources("Metformina", "Apap")

	tests := []struct {
		name       string
		text       string
		wantTexts  []string
		wantCites  []int
		unresolved int
	}{
		{
			name:      "plain text",
			text:      "Brak cytowań.",
			wantTexts: []string{"Brak cytowań."},
			wantCites: []int{0},
		},
		{
			name:      "two markers",
			text:      "Nudności [1] oraz ból głowy [2].",
			wantTexts: []string{"Nudności ", "[1]", " oraz ból głowy ", "[2]", "."},
			wantCites: []int{0, 1, 0, 2, 0},
		},
		{
			name:       "out of range stays literal",
			text:       "Zobacz [3] i [1]",
			wantTexts:  []string{"Zobacz [3] i ", "[1]"},
			wantCites:  []int{0, 1},
			unresolved: 1,
		},
		{
			name:       "zero is never a marker",
			text:       "[0]",
			wantTexts:  []string{"[0]"},
			wantCites:  []int{0},
			unresolved: 1,
		},
		{
			name:      "adjacent markers",
			text:      "[1][2]",
			wantTexts: []string{"[1]", "[2]"},
			wantCites: []int{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, unresolved := Split(tt.text, srcs)
			require.Len(t, segs, len(tt.wantTexts))
			assert.Equal(t, tt.unresolved, unresolved)

			joined := ""
			for i, s := range segs {
				joined += s.Text
				assert.Equal(t, tt.wantTexts[i], s.Text)
				assert.Equal(t, tt.wantCites[i], s.Marker)
				if tt.wantCites[i] > 0 {
					require.True(t, s.IsCitation())
					assert.Equal(t, srcs[tt.wantCites[i]-1].Title, s.Source.Title)
				}
			}
			assert.Equal(t, tt.text, joined, "segments must reassemble the original text")
		})
	}
}

func TestSplitWithoutSources(t *testing.T) {
	segs, unresolved := Split("Tekst [1] [2]", nil)
	require.Len(t, segs, 1)
	assert.Equal(t, "Tekst [1] [2]", segs[0].Text)
	assert.Equal(t, 2, unresolved)
}

func TestMarkers(t *testing.T) {
	assert.Equal(t, []int{1, 12, 3}, Markers("a [1] b [12] c [3] [x]"))
	assert.Nil(t, Markers("nic"))
}

func TestMedicineName(t *testing.T) {
	tests := []struct {
		name string
		src  conversation.Source
		want string
	}{
		{
			name: "prefers h1",
			src:  conversation.Source{Title: "x", Metadata: conversation.SourceMetadata{H1: "Paracetamol", Path: "data/other.md"}},
			want: "Paracetamol",
		},
		{
			name: "path tail without suffix",
			src:  conversation.Source{Metadata: conversation.SourceMetadata{Path: "data/leki/Ibuprom.md"}},
			want: "Ibuprom",
		},
		{
			name: "windows separators",
			src:  conversation.Source{Metadata: conversation.SourceMetadata{Path: `data\leki\Apap.md`}},
			want: "Apap",
		},
		{
			name: "falls back to title",
			src:  conversation.Source{Title: "Metformina"},
			want: "Metformina",
		},
		{
			name: "nothing to name",
			src:  conversation.Source{ID: "1"},
			want: "",
		},
		{
			name: "bare directory path",
			src:  conversation.Source{Metadata: conversation.SourceMetadata{Path: "data/"}},
			want: "data",
		},
		{
			name: "dot path",
			src:  conversation.Source{Metadata: conversation.SourceMetadata{Path: "./"}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MedicineName(tt.src))
		})
	}
}

func TestLocate(t *testing.T) {
	body := "# Paracetamol\n\nDawkowanie: 500 mg co 6 godzin."

	h, ok := Locate(body, "500 mg co 6 godzin")
	require.True(t, ok)
	assert.Equal(t, "500 mg co 6 godzin", body[h.Start:h.End])

	_, ok = Locate(body, "nie ma takiego fragmentu")
	assert.False(t, ok)

	_, ok = Locate(body, "   ")
	assert.False(t, ok)
}
