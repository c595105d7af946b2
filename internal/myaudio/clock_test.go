package myaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicevault/voicevault/internal/errors"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "minutes and seconds", input: "00:10", want: 10},
		{name: "minutes over an hour", input: "90:00", want: 5400},
		{name: "hours minutes seconds", input: "01:02:03", want: 3723},
		{name: "surrounding whitespace", input: "  02:30 ", want: 150},
		{name: "single component", input: "42", wantErr: true},
		{name: "four components", input: "1:2:3:4", wantErr: true},
		{name: "non numeric component", input: "aa:10", wantErr: true},
		{name: "empty component", input: ":10", wantErr: true},
		{name: "negative component", input: "-1:10", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseClock(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCategory(err, errors.CategoryValidation),
					"parse failures should be validation errors")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "00:09", FormatClock(9))
	assert.Equal(t, "02:05", FormatClock(125))
	assert.Equal(t, "90:00", FormatClock(5400))
}
