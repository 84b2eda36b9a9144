package strap_err

import (
	"testing"

	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestExtractSummary(t *testing.T) {
	tests := []struct {
		name   string
		output string
		max    int
		want   string
	}{
		{
			name:   "empty output",
			output: "",
			max:    2,
			want:   "No output provided.",
		},
		{
			name:   "picks the error line out of apt noise",
			output: "Reading package lists...\nBuilding dependency tree...\nE: Unable to locate package nodejs-18\n",
			max:    2,
			want:   "E: Unable to locate package nodejs-18",
		},
		{
			name:   "caps candidates",
			output: "error: one\nerror: two\nerror: three",
			max:    2,
			want:   "error: one - error: two",
		},
		{
			name:   "falls back to first non-empty line",
			output: "\n\nall quiet here\n",
			max:    2,
			want:   "all quiet here",
		},
		{
			name:   "nginx emerg line",
			output: "nginx: [emerg] unknown directive \"servr_name\" in /etc/nginx/sites-enabled/bot:3\nnginx: configuration file /etc/nginx/nginx.conf test failed",
			max:    1,
			want:   "nginx: configuration file /etc/nginx/nginx.conf test failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSummary(tt.output, tt.max))
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := cerr.New("request to https://api.telegram.org/bot123456789:AAFakeTokenFakeTokenFakeTokenFT0/getMe failed")
	got := SanitizeErrorMessage(err)
	assert.NotContains(t, got, "AAFakeToken")
	assert.Contains(t, got, "api.telegram.org")
	assert.Empty(t, SanitizeErrorMessage(nil))
}
