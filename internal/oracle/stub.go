package oracle

import "context"

// StubExtractor returns canned results, in order, then repeats the last one.
// Err (when set) takes precedence. Calls records every transcript received.
type StubExtractor struct {
	Results []Extraction
	Err     error

	Calls []string
	next  int
}

func (s *StubExtractor) Extract(ctx context.Context, transcript string) (Extraction, error) {
	s.Calls = append(s.Calls, transcript)
	if s.Err != nil {
		return Extraction{}, s.Err
	}
	if len(s.Results) == 0 {
		return Extraction{}, nil
	}
	i := s.next
	if i >= len(s.Results) {
		i = len(s.Results) - 1
	}
	s.next++
	return s.Results[i], nil
}

// StubVerifier returns a fixed verification result.
type StubVerifier struct {
	Result Verification
	Err    error

	Calls int
}

func (s *StubVerifier) Verify(ctx context.Context, name string, age int) (Verification, error) {
	s.Calls++
	if s.Err != nil {
		return Verification{}, s.Err
	}
	return s.Result, nil
}
