package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CHAT_ANSWERED", "pharmachat.chat.answered"},
		{"CITATION_UNRESOLVED", "pharmachat.citation.unresolved"},
		{"SESSION_STARTED", "pharmachat.session.started"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Subject(tt.in))
	}
}
