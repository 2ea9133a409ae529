package cli

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"

	"Xuunu.homeostasis/internal/config"
	"Xuunu.homeostasis/internal/generator"
	"Xuunu.homeostasis/internal/insight"
	"Xuunu.homeostasis/internal/repository"
	"Xuunu.homeostasis/internal/service"
)

// app holds the store clients and services built from one Config.
type app struct {
	cfg         config.Config
	samples     *service.SampleService
	homeostasis *service.HomeostasisService
	closers     []func()
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var fs *firestore.Client
	if cfg.SampleStore == config.StoreFirestore || cfg.InsightStore == config.StoreFirestore {
		client, err := repository.NewFirestoreClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseServiceAccountKey)
		if err != nil {
			return nil, err
		}
		fs = client
		a.closers = append(a.closers, func() { _ = client.Close() })
	}

	repo, err := a.sampleRepository(ctx, fs)
	if err != nil {
		return nil, err
	}
	store, err := a.insightStore(ctx, fs)
	if err != nil {
		return nil, err
	}

	var gen insight.Generator
	if cfg.OpenAIAPIKey != "" {
		gen = generator.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.OpenAITimeout)
	} else {
		log.Println("OPENAI_API_KEY not set, insights will return the unavailable message")
	}

	cache := insight.NewCache(store, gen,
		insight.WithLocation(cfg.InsightLocation),
		insight.WithFlightTimeout(cfg.RequestTimeout),
	)
	a.samples = service.NewSampleService(repo)
	a.homeostasis = service.NewHomeostasisService(repo, cache)
	ok = true
	return a, nil
}

func (a *app) sampleRepository(ctx context.Context, fs *firestore.Client) (repository.SampleRepository, error) {
	switch a.cfg.SampleStore {
	case config.StoreInflux:
		repo := repository.NewInfluxDBRepository(a.cfg.InfluxDBURL, a.cfg.InfluxDBToken, a.cfg.InfluxDBOrg, a.cfg.InfluxDBBucket)
		a.closers = append(a.closers, repo.Close)
		if err := repo.Health(ctx); err != nil {
			return nil, err
		}
		log.Println("Successfully connected to InfluxDB!")
		return repo, nil
	case config.StoreFirestore:
		return repository.NewFirestoreRepository(fs), nil
	case config.StoreMemory:
		log.Println("Using in-memory sample store; data is lost on exit")
		return repository.NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("unknown sample store %q", a.cfg.SampleStore)
}

func (a *app) insightStore(ctx context.Context, fs *firestore.Client) (insight.Store, error) {
	switch a.cfg.InsightStore {
	case config.StoreRedis:
		client := repository.NewRedisClient(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		a.closers = append(a.closers, func() { _ = client.Close() })
		store := repository.NewRedisInsightStore(client, a.cfg.InsightCacheTTL)
		if err := store.Health(ctx); err != nil {
			return nil, err
		}
		log.Println("Connected to Redis successfully!")
		return store, nil
	case config.StoreFirestore:
		return repository.NewFirestoreInsightStore(fs), nil
	case config.StoreMemory:
		return repository.NewMemoryInsightStore(), nil
	}
	return nil, fmt.Errorf("unknown insight store %q", a.cfg.InsightStore)
}

// Close releases store clients in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
