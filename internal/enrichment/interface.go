package enrichment

import "context"

// Provider is a text-completion backend (Claude, Gemini)
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	IsHealthy(ctx context.Context) error
	Name() string
}

// Completer is the part of a Provider the Service needs; Manager implements it
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Fetcher returns the readable text of a web page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Name() string
}
