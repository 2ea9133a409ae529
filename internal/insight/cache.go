// Package insight gates calls to an external text generator so that each
// user gets at most one generated homeostasis insight per calendar day.
//
// The cache key is userId + "_" + YYYY-MM-DD, with the date taken in a pinned
// time zone (UTC unless configured). A hit returns the stored text without
// calling the generator. A miss generates once and stores the entry with a
// create-if-absent write; when that write loses to a concurrent request the
// stored winner is returned instead, so every caller sees one text per key.
// Concurrent misses within one process share a single generator call.
package insight

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"Xuunu.homeostasis/internal/models"
)

// MaxOutputTokens bounds the length of a generated insight.
const MaxOutputTokens = 200

// DefaultFlightTimeout bounds one shared generate-and-store call.
const DefaultFlightTimeout = 30 * time.Second

const dateLayout = "2006-01-02"

// Store persists insight entries keyed by Key.
type Store interface {
	// Get returns the entry for key, or nil when there is none.
	Get(ctx context.Context, key string) (*models.InsightCacheEntry, error)
	// Create writes entry only if its key is absent and reports whether it did.
	Create(ctx context.Context, entry models.InsightCacheEntry) (bool, error)
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

// Request carries what an insight is generated from.
type Request struct {
	UserID      string
	Score       int
	Health      *models.HealthSample
	Environment *models.EnvironmentalSample
}

// Result is the insight text. Fallback is set when Text is a degraded-mode message.
type Result struct {
	Text      string
	WasCached bool
	Fallback  Fallback
}

// Cache is the daily insight gate. It is safe for concurrent use.
type Cache struct {
	store     Store
	generator Generator
	loc       *time.Location
	now       func() time.Time
	flights   singleflight.Group

	flightTimeout time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithLocation pins the time zone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(c *Cache) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithFlightTimeout bounds the shared generate-and-store call, which does not
// stop when the caller that started it goes away.
func WithFlightTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.flightTimeout = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates a Cache. A nil generator behaves as an unconfigured one.
func NewCache(store Store, generator Generator, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		generator: generator,
		loc:       time.UTC,
		now:       time.Now,

		flightTimeout: DefaultFlightTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for a user on the calendar day of t.
func Key(userID string, t time.Time) string {
	return userID + "_" + t.Format(dateLayout)
}

// GetOrCreate returns today's insight for the user, generating it on a miss.
func (c *Cache) GetOrCreate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return Result{}, ErrMissingUserID
	}

	today := c.now().In(c.loc)
	key := Key(req.UserID, today)

	entry, err := c.store.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("reading insight cache %s: %w", key, err)
	}
	if entry != nil {
		return Result{Text: entry.Text, WasCached: true}, nil
	}

	// The flight outlives any single caller; each caller stops waiting on its own context.
	flight := c.flights.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()
		return c.generate(fctx, key, today, req)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

func (c *Cache) generate(ctx context.Context, key string, today time.Time, req Request) (Result, error) {
	if c.generator == nil {
		return fallback(FallbackUnavailable), nil
	}

	text, err := c.generator.Generate(ctx, BuildPrompt(req.Score, req.Health, req.Environment), MaxOutputTokens)
	switch {
	case errors.Is(err, ErrGeneratorUnavailable):
		log.Printf("insight: generator unavailable, returning fallback for %s", key)
		return fallback(FallbackUnavailable), nil
	case errors.Is(err, ErrQuotaExceeded):
		log.Printf("insight: generator quota exceeded, returning fallback for %s", key)
		return fallback(FallbackQuota), nil
	case errors.Is(err, ErrEmptyGeneration):
		log.Printf("insight: generator returned no content for %s", key)
		return fallback(FallbackEmpty), nil
	case err != nil:
		return Result{}, fmt.Errorf("generating insight: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fallback(FallbackEmpty), nil
	}

	created, err := c.store.Create(ctx, models.InsightCacheEntry{
		Key:         key,
		UserID:      req.UserID,
		Date:        today.Format(dateLayout),
		Text:        text,
		Score:       req.Score,
		Health:      req.Health,
		Environment: req.Environment,
		CreatedAt:   c.now().UTC(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("storing insight %s: %w", key, err)
	}
	if created {
		return Result{Text: text}, nil
	}

	// Another request stored today's insight first; its text is the one of record.
	winner, err := c.store.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("reading insight cache %s: %w", key, err)
	}
	if winner == nil {
		return Result{Text: text}, nil
	}
	return Result{Text: winner.Text, WasCached: true}, nil
}

func fallback(f Fallback) Result {
	return Result{Text: f.Text(), Fallback: f}
}
