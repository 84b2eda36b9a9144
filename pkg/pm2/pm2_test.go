// pkg/pm2/pm2_test.go

package pm2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJList(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    []Process
		wantErr bool
	}{
		{
			name: "single online process",
			out:  `[{"name":"mybot","pm_id":0,"pm2_env":{"status":"online"}}]`,
			want: []Process{{Name: "mybot", PMID: 0, Status: "online"}},
		},
		{
			name: "update notice before the JSON",
			out: "pm2 update available: 5.3.0 -> 5.4.2\n" +
				`[{"name":"mybot","pm_id":1,"pm2_env":{"status":"stopped"}}]`,
			want: []Process{{Name: "mybot", PMID: 1, Status: "stopped"}},
		},
		{
			name: "empty list",
			out:  "[]",
			want: []Process{},
		},
		{
			name:    "no JSON at all",
			out:     "pm2: command not found",
			wantErr: true,
		},
		{
			name:    "truncated JSON",
			out:     `[{"name":"mybot"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJList(tt.out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFind(t *testing.T) {
	procs := []Process{
		{Name: "mybot", Status: "online"},
		{Name: "worker", Status: "stopped"},
	}

	require.NotNil(t, Find(procs, "worker"))
	assert.Equal(t, "stopped", Find(procs, "worker").Status)
	assert.Nil(t, Find(procs, "absent"))
	assert.Nil(t, Find(nil, "mybot"))
}
