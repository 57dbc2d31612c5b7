package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeyPollVoters(pollID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPollVoters, pollID))
}

func (kb *KeyBuilder) KeyReport(hash string) string {
	return kb.BuildKey(fmt.Sprintf(KeyReport, hash))
}

// KeyReportAll is a SCAN pattern matching every cached report
func (kb *KeyBuilder) KeyReportAll() string {
	return kb.BuildKey(KeyReportAll)
}

// KeyReportGeneration holds the report cache generation counter
func (kb *KeyBuilder) KeyReportGeneration() string {
	return kb.BuildKey(KeyReportGen)
}

func (kb *KeyBuilder) KeySubmitLimit(respondentID, window string) string {
	return kb.BuildKey(fmt.Sprintf(KeySubmitLimit, respondentID, window))
}

// KeyCustom builds a key from a custom pattern
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	return kb.BuildKey(fmt.Sprintf(pattern, args...))
}
