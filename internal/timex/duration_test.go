package timex

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "string seconds", in: `"3s"`, want: 3 * time.Second},
		{name: "string hours", in: `"720h"`, want: 720 * time.Hour},
		{name: "nanoseconds", in: `1000000000`, want: time.Second},
		{name: "null keeps zero", in: `null`, want: 0},
		{name: "garbage string", in: `"soon"`, wantErr: true},
		{name: "float", in: `1.5`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 90 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}

func TestDays(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, Days(30))
	assert.Equal(t, time.Duration(0), Days(0))
}

func TestUnixMilli(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	assert.True(t, ts.Equal(UnixMilli(ts.UnixMilli())))
}
