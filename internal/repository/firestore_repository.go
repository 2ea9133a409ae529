package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"Xuunu.homeostasis/internal/models"
)

// NewFirestoreClient opens a Firestore client from a service account key.
// The key may carry its private key with escaped newlines, as it does when
// stored in an environment variable. An empty projectID is read from the key.
func NewFirestoreClient(ctx context.Context, projectID, serviceAccountKey string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if serviceAccountKey != "" {
		creds, keyProject, err := normalizeServiceAccountKey(serviceAccountKey)
		if err != nil {
			return nil, err
		}
		if projectID == "" {
			projectID = keyProject
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return client, nil
}

func normalizeServiceAccountKey(raw string) ([]byte, string, error) {
	var key map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return nil, "", fmt.Errorf("invalid service account key format: must be valid JSON: %w", err)
	}
	for _, field := range []string{"project_id", "private_key", "client_email"} {
		if s, _ := key[field].(string); s == "" {
			return nil, "", fmt.Errorf("invalid service account key: missing %s", field)
		}
	}
	key["private_key"] = strings.ReplaceAll(key["private_key"].(string), `\n`, "\n")

	creds, err := json.Marshal(key)
	if err != nil {
		return nil, "", err
	}
	return creds, key["project_id"].(string), nil
}

// FirestoreRepository stores samples as documents, one collection per sample kind.
type FirestoreRepository struct {
	client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{client: client}
}

func (r *FirestoreRepository) WriteHealthSample(ctx context.Context, sample models.HealthSample) (models.HealthSample, error) {
	ref := r.client.Collection(HealthCollection).NewDoc()
	if _, err := ref.Set(ctx, sample); err != nil {
		return models.HealthSample{}, fmt.Errorf("writing health entry: %w", err)
	}
	sample.ID = ref.ID
	return sample, nil
}

func (r *FirestoreRepository) WriteEnvironmentalSample(ctx context.Context, sample models.EnvironmentalSample) (models.EnvironmentalSample, error) {
	ref := r.client.Collection(EnvironmentalCollection).NewDoc()
	if _, err := ref.Set(ctx, sample); err != nil {
		return models.EnvironmentalSample{}, fmt.Errorf("writing environmental reading: %w", err)
	}
	sample.ID = ref.ID
	return sample, nil
}

func (r *FirestoreRepository) ListHealthSamples(ctx context.Context, userID string, limit int) ([]models.HealthSample, error) {
	var samples []models.HealthSample
	err := r.latest(ctx, HealthCollection, userID, limit, func(doc *firestore.DocumentSnapshot) error {
		var s models.HealthSample
		if err := doc.DataTo(&s); err != nil {
			return err
		}
		s.ID = doc.Ref.ID
		samples = append(samples, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing health entries: %w", err)
	}
	return samples, nil
}

func (r *FirestoreRepository) ListEnvironmentalSamples(ctx context.Context, userID string, limit int) ([]models.EnvironmentalSample, error) {
	var samples []models.EnvironmentalSample
	err := r.latest(ctx, EnvironmentalCollection, userID, limit, func(doc *firestore.DocumentSnapshot) error {
		var s models.EnvironmentalSample
		if err := doc.DataTo(&s); err != nil {
			return err
		}
		s.ID = doc.Ref.ID
		samples = append(samples, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing environmental readings: %w", err)
	}
	return samples, nil
}

func (r *FirestoreRepository) LatestHealthSample(ctx context.Context, userID string) (*models.HealthSample, error) {
	samples, err := r.ListHealthSamples(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	return firstHealth(samples), nil
}

func (r *FirestoreRepository) LatestEnvironmentalSample(ctx context.Context, userID string) (*models.EnvironmentalSample, error) {
	samples, err := r.ListEnvironmentalSamples(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	return firstEnvironmental(samples), nil
}

func (r *FirestoreRepository) latest(ctx context.Context, collection, userID string, limit int, each func(*firestore.DocumentSnapshot) error) error {
	if limit <= 0 {
		limit = 1
	}
	iter := r.client.Collection(collection).
		Where("userId", "==", userID).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := each(doc); err != nil {
			return err
		}
	}
}

// FirestoreInsightStore keeps one document per insight key. Document IDs are
// the path-escaped key, so a user ID containing "/" cannot address another document.
type FirestoreInsightStore struct {
	client *firestore.Client
}

func NewFirestoreInsightStore(client *firestore.Client) *FirestoreInsightStore {
	return &FirestoreInsightStore{client: client}
}

func (s *FirestoreInsightStore) Get(ctx context.Context, key string) (*models.InsightCacheEntry, error) {
	doc, err := s.client.Collection(InsightCollection).Doc(url.PathEscape(key)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading insight %s: %w", key, err)
	}

	var entry models.InsightCacheEntry
	if err := doc.DataTo(&entry); err != nil {
		return nil, fmt.Errorf("decoding insight %s: %w", key, err)
	}
	return &entry, nil
}

// Create relies on DocumentRef.Create failing when the document already exists.
func (s *FirestoreInsightStore) Create(ctx context.Context, entry models.InsightCacheEntry) (bool, error) {
	_, err := s.client.Collection(InsightCollection).Doc(url.PathEscape(entry.Key)).Create(ctx, entry)
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating insight %s: %w", entry.Key, err)
	}
	return true, nil
}
