package thumb

import "log/slog"

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for decode failures and misuse
// warnings. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithTargetSize sets the target size applied when Request is called with
// targetSize 0.
func WithTargetSize(size int) Option {
	return func(p *Provider) {
		p.defaultSize = size
	}
}
