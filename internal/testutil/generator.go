package testutil

import (
	"context"
	"strings"
	"sync"
)

// StubGenerator answers by pattern match on the prompt and records every
// prompt it sees, so tests can assert both what was generated and what
// was asked.
type StubGenerator struct {
	// Responses maps a prompt substring to the reply it triggers; first
	// match in Patterns order wins.
	Responses map[string]string
	// Patterns fixes the match order for Responses.
	Patterns []string
	// Default is returned when nothing matches; empty means "stub reply".
	Default string
	// Err, when set, fails every call.
	Err error

	mu      sync.Mutex
	prompts []string
}

// Generate records the prompt and returns the configured reply.
func (s *StubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}

	for _, pattern := range s.Patterns {
		if strings.Contains(prompt, pattern) {
			return s.Responses[pattern], nil
		}
	}
	if s.Default != "" {
		return s.Default, nil
	}
	return "stub reply", nil
}

// Calls returns how many prompts were generated.
func (s *StubGenerator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// LastPrompt returns the most recent prompt, or empty when none.
func (s *StubGenerator) LastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}
