package hcl

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"explicit hcl", "application/vnd.hcl; charset=utf-8", `{"looks":"like json"}`, ContentTypeHCL},
		{"explicit json", "application/json", `job "x" {}`, ContentTypeJSON},
		{"sniffed json", "", `  {"players": []}`, ContentTypeJSON},
		{"sniffed hcl", "text/plain", `job "x" { replay = "x.json" }`, ContentTypeHCL},
		{"empty body", "", "", ContentTypeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/replays/analyze", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			got, err := DetectContentType(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestIsHCLBasedOnExtension(t *testing.T) {
	assert.True(t, IsHCLBasedOnExtension("jobs.hcl"))
	assert.False(t, IsHCLBasedOnExtension("jobs.json"))
}
