package myaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionedTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		source   string
		existing []string
		want     string
	}{
		{
			name:     "unversioned base gets (1)",
			source:   "meeting",
			existing: []string{"meeting"},
			want:     "meeting (1)",
		},
		{
			name:     "skips taken versions",
			source:   "meeting",
			existing: []string{"meeting", "meeting (1)", "meeting (2)"},
			want:     "meeting (3)",
		},
		{
			name:     "versioned source restarts at 1",
			source:   "meeting (7)",
			existing: []string{"meeting (7)"},
			want:     "meeting (1)",
		},
		{
			name:     "fills the first gap",
			source:   "meeting (3)",
			existing: []string{"meeting (1)", "meeting (3)"},
			want:     "meeting (2)",
		},
		{
			name:     "match is case sensitive",
			source:   "Notes",
			existing: []string{"notes (1)"},
			want:     "Notes (1)",
		},
		{
			name:     "no existing titles",
			source:   "blah #1",
			existing: nil,
			want:     "blah #1 (1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := VersionedTitle(tt.source, tt.existing)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, tt.existing, got,
				"generated title must not collide with existing titles")
		})
	}
}
