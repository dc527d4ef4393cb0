package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_CFG_HOST", "db.internal")
	t.Setenv("TEST_CFG_EMPTY", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "env var set",
			input: "host: ${TEST_CFG_HOST}",
			want:  "host: db.internal",
		},
		{
			name:  "env var overrides default",
			input: "host: ${TEST_CFG_HOST:localhost}",
			want:  "host: db.internal",
		},
		{
			name:  "missing var uses default",
			input: "port: ${TEST_CFG_MISSING_PORT:5432}",
			want:  "port: 5432",
		},
		{
			name:  "missing var with empty default",
			input: "key: ${TEST_CFG_MISSING_KEY:}",
			want:  "key: ",
		},
		{
			name:  "empty env var wins over default",
			input: "key: ${TEST_CFG_EMPTY:fallback}",
			want:  "key: ",
		},
		{
			name:  "missing var without default kept verbatim",
			input: "dsn: ${TEST_CFG_MISSING_DSN}",
			want:  "dsn: ${TEST_CFG_MISSING_DSN}",
		},
		{
			name:  "default containing special characters",
			input: "redirect: ${TEST_CFG_MISSING_URL:http://localhost:8080/cb}",
			want:  "redirect: http://localhost:8080/cb",
		},
		{
			name:  "multiple placeholders on one line",
			input: "addr: ${TEST_CFG_HOST}:${TEST_CFG_MISSING_PORT:5432}",
			want:  "addr: db.internal:5432",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.input))
		})
	}
}
