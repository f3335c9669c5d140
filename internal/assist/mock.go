package assist

import "context"

// MockResponder permite tests sin llamar a un backend real.
type MockResponder struct {
	Response string
	Err      error

	Prompts []string
}

func (m *MockResponder) Reply(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.Response, m.Err
}
