package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSafeString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		wantErr   bool
	}{
		{"simple name ok", "tg-webhook", 64, false},
		{"dots ok", "bot.example", 64, false},
		{"empty rejected", "", 64, true},
		{"too long rejected", "aaaaaaaaaaaaaaaaa", 8, true},
		{"shell metacharacters rejected", "site;rm -rf /", 64, true},
		{"spaces rejected", "my site", 64, true},
		{"consecutive dots rejected", "a..b", 64, true},
		{"path traversal rejected", "../etc/passwd", 64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSafeString(tt.input, tt.maxLength, "field")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHostname(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"bare domain", "example.com", false},
		{"subdomain", "bot.example.com", false},
		{"single label", "localhost", false},
		{"digits allowed", "h4x0r.example.com", false},
		{"empty rejected", "", true},
		{"slash rejected", "example.com/evil", true},
		{"semicolon rejected", "example.com;", true},
		{"space rejected", "exam ple.com", true},
		{"leading hyphen rejected", "-bad.example.com", true},
		{"nginx block injection rejected", "example.com{listen 81}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHostname(tt.input, "domain")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort(1, "port"))
	assert.NoError(t, ValidatePort(3000, "port"))
	assert.NoError(t, ValidatePort(65535, "port"))
	assert.Error(t, ValidatePort(0, "port"))
	assert.Error(t, ValidatePort(-1, "port"))
	assert.Error(t, ValidatePort(65536, "port"))
}
