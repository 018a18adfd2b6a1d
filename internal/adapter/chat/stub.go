package chat

import (
	"fmt"

	"semcluster/internal/port"
)

// Stub is a scripted chat model. Responses are consumed in order; once only
// one remains it repeats for every further call. With no script and no error
// set, every call fails, which exercises the generic fallbacks end to end.
type Stub struct {
	Responses []string
	Err       error
	Calls     int
}

func (s *Stub) Complete(systemPrompt, userPrompt string, opts port.ChatOptions) (string, error) {
	s.Calls++
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", fmt.Errorf("stub chat: no scripted response")
	}
	r := s.Responses[0]
	if len(s.Responses) > 1 {
		s.Responses = s.Responses[1:]
	}
	return r, nil
}

func (s *Stub) ModelName() string {
	return "stub"
}
