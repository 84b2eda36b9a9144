// pkg/nodejs/nodejs_test.go

package nodejs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name      string
		out       string
		wantMajor int
		wantErr   bool
	}{
		{name: "typical output", out: "v22.14.0\n", wantMajor: 22},
		{name: "no leading v", out: "20.11.1", wantMajor: 20},
		{name: "trailing whitespace", out: "  v18.19.0  \n", wantMajor: 18},
		{name: "garbage", out: "command not found", wantErr: true},
		{name: "empty", out: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersion(tt.out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMajor, v.Segments()[0])
		})
	}
}
