package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"elegance/backend/internal/domain"
	"elegance/backend/internal/insight"
	"elegance/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	BusinessName string
	Currency     string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Service owns every read-modify-write over the collections. A single mutex
// serialises operations so each one sees and writes a consistent snapshot.
type Service struct {
	repo     *store.Repository
	insights insight.Generator
	opts     Options

	mu sync.Mutex
}

func New(repo *store.Repository, insights insight.Generator, opts Options) *Service {
	if insights == nil {
		insights = insight.New(nil, nil, insight.Options{})
	}
	if opts.BusinessName == "" {
		opts.BusinessName = "Elegance Boutique"
	}
	if opts.Currency == "" {
		opts.Currency = "MK"
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		repo:     repo,
		insights: insights,
		opts:     opts,
	}
}

func (s *Service) now() time.Time {
	return s.opts.Now()
}

func actorName(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.Username != "" {
		return actor.Username
	}
	return "system"
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
