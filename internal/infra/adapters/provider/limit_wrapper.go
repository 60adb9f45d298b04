package provider

import (
	"context"

	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ProviderAdapter = (*limitedProvider)(nil)

type limitedProvider struct {
	inner adapter.ProviderAdapter
	sem   chan struct{}
}

// NewLimitedProvider bounds concurrent vendor calls. Submissions and status
// checks both count against the limit so a burst of pollers cannot starve
// new submissions of connections.
func NewLimitedProvider(inner adapter.ProviderAdapter, maxConcurrent int) adapter.ProviderAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedProvider{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedProvider) Vendor() model.Vendor { return l.inner.Vendor() }

func (l *limitedProvider) Submit(ctx context.Context, req *model.CanonicalJobRequest) (adapter.Submission, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.inner.Submit(ctx, req)
}

func (l *limitedProvider) CheckStatus(ctx context.Context, sub adapter.Submission) (adapter.StatusResult, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.inner.CheckStatus(ctx, sub)
}
