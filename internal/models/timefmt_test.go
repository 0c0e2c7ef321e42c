package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr string
	}{
		{input: "09:15", want: "09:15"},
		{input: " 09:05 ", want: "09:05"},
		{input: "09:15:00", want: "09:15"},
		{input: "09:00:10", wantErr: "seconds must be 00"},
		{input: "09:00:59", wantErr: "seconds must be 00"},
		{input: "24:00", wantErr: "expected HH:MM"},
		{input: "noon", wantErr: "expected HH:MM"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(" 2024-06-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", got)

	_, err = ParseDate("2024-02-30")
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")
}
