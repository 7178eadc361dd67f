package insight

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"elegance/backend/internal/cache"
	"elegance/backend/internal/domain"
)

const (
	MissingKeyMessage  = "API Key is missing. Please ensure the GEMINI_API_KEY environment variable is set to use AI features."
	UnavailableMessage = "Unable to generate insights at the moment. Please try again later."
	DefaultDescription = "Premium fashion item suitable for any occasion."
)

// Generator produces free text for the dashboard. Implementations never fail;
// they degrade to a fixed message instead.
type Generator interface {
	AnalyzeBusiness(ctx context.Context, input domain.InsightInput) string
	DescribeProduct(ctx context.Context, name string, category string) string
}

type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	BusinessName string
	Currency     string
	Timeout      time.Duration
	CacheTTL     time.Duration
}

type Assistant struct {
	model TextModel
	cache cache.InsightCache
	opts  Options
}

// New returns an Assistant. A nil model means no credential is configured and
// every call answers with the fallback text.
func New(model TextModel, cacheStore cache.InsightCache, opts Options) *Assistant {
	if cacheStore == nil {
		cacheStore = cache.NoopInsightCache{}
	}
	if opts.BusinessName == "" {
		opts.BusinessName = "Elegance Boutique"
	}
	if opts.Currency == "" {
		opts.Currency = "MK"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	return &Assistant{model: model, cache: cacheStore, opts: opts}
}

func (a *Assistant) AnalyzeBusiness(ctx context.Context, input domain.InsightInput) string {
	if a.model == nil {
		return MissingKeyMessage
	}
	prompt, err := a.businessPrompt(input)
	if err != nil {
		log.Printf("[insight] WARN: analysis prompt: %v", err)
		return UnavailableMessage
	}
	return a.generate(ctx, "analysis", prompt, UnavailableMessage)
}

func (a *Assistant) DescribeProduct(ctx context.Context, name string, category string) string {
	if a.model == nil {
		return DefaultDescription
	}
	prompt := fmt.Sprintf("Write a short, luxurious, and catchy product description (max 2 sentences) for a fashion item named %q in the category %q.", name, category)
	return a.generate(ctx, "description", prompt, DefaultDescription)
}

func (a *Assistant) generate(ctx context.Context, kind string, prompt string, fallback string) string {
	key := cacheKey(kind, prompt)
	if cached, ok, err := a.cache.Get(ctx, key); err == nil && ok {
		return cached
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	text, err := a.model.GenerateText(callCtx, prompt)
	if err != nil {
		log.Printf("[insight] WARN: %s generation failed: %v", kind, err)
		return fallback
	}

	if err := a.cache.Set(ctx, key, text, a.opts.CacheTTL); err != nil {
		log.Printf("[insight] WARN: failed to cache %s: %v", kind, err)
	}
	return text
}

func (a *Assistant) businessPrompt(input domain.InsightInput) (string, error) {
	orders, err := json.Marshal(input.RecentOrders)
	if err != nil {
		return "", fmt.Errorf("encode recent orders: %w", err)
	}
	stock, err := json.Marshal(input.LowStock)
	if err != nil {
		return "", fmt.Errorf("encode low stock: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a business consultant for %q, a fashion retailer.\n", a.opts.BusinessName)
	b.WriteString("Give 3 key insights and 1 actionable recommendation from the data below, in a professional and encouraging tone.\n\n")
	fmt.Fprintf(&b, "Currency: %s\n", a.opts.Currency)
	fmt.Fprintf(&b, "Recent orders: %s\n", orders)
	fmt.Fprintf(&b, "Low stock items: %s\n", stock)
	fmt.Fprintf(&b, "Total outstanding debt: %s\n\n", input.TotalDebt.String())
	b.WriteString("Answer in HTML using <b>, <br> and <ul><li>, without markdown code fences. Keep it concise.")
	return b.String(), nil
}

func cacheKey(kind string, prompt string) string {
	sum := sha1.Sum([]byte(kind + "\x00" + prompt))
	return kind + ":" + hex.EncodeToString(sum[:])
}
