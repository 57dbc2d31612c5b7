package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.expectedPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyBuilder_KeyGeneration(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "PollVoters key",
			key:      kb.KeyPollVoters("3f2a"),
			expected: "prod:feedback:poll:3f2a:voters",
		},
		{
			name:     "Report key",
			key:      kb.KeyReport("abc"),
			expected: "prod:feedback:report:abc",
		},
		{
			name:     "Report pattern",
			key:      kb.KeyReportAll(),
			expected: "prod:feedback:report:*",
		},
		{
			name:     "Report generation key",
			key:      kb.KeyReportGeneration(),
			expected: "prod:feedback:report_generation",
		},
		{
			name:     "SubmitLimit key",
			key:      kb.KeySubmitLimit("s-1", "2026021009"),
			expected: "prod:feedback:ratelimit:s-1:2026021009",
		},
		{
			name:     "Custom key",
			key:      kb.KeyCustom("feedback:%s:%d", "x", 7),
			expected: "prod:feedback:x:7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.key)
		})
	}
}

func TestKeyBuilder_EnvironmentSeparation(t *testing.T) {
	prod := NewKeyBuilder("production")
	staging := NewKeyBuilder("staging")

	assert.NotEqual(t, prod.KeyReport("h"), staging.KeyReport("h"))
	assert.Equal(t, "staging:feedback:report:h", staging.KeyReport("h"))
}
