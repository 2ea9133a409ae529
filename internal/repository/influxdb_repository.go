package repository

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/query"

	"Xuunu.homeostasis/internal/models"
)

// InfluxDBRepository stores samples as points in a single InfluxDB bucket.
// Each sample is one point tagged with user_id; the metric readings are its fields.
type InfluxDBRepository struct {
	client influxdb2.Client
	org    string
	bucket string

	mu          sync.Mutex
	bucketReady bool
}

// NewInfluxDBRepository creates a new InfluxDBRepository.
func NewInfluxDBRepository(url, token, org, bucket string) *InfluxDBRepository {
	return &InfluxDBRepository{
		client: influxdb2.NewClient(url, token),
		org:    org,
		bucket: bucket,
	}
}

// Health checks that the InfluxDB server is reachable and healthy.
func (r *InfluxDBRepository) Health(ctx context.Context) error {
	health, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("InfluxDB health check failed: %s", msg)
	}
	return nil
}

func (r *InfluxDBRepository) Close() {
	r.client.Close()
}

// BucketExists checks if a bucket exists in InfluxDB.
func (r *InfluxDBRepository) BucketExists(ctx context.Context, name string) (bool, error) {
	_, err := r.client.BucketsAPI().FindBucketByName(ctx, name)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	return true, nil
}

// CreateBucket creates a new bucket in the configured organization.
func (r *InfluxDBRepository) CreateBucket(ctx context.Context, name string) error {
	org, err := r.client.OrganizationsAPI().FindOrganizationByName(ctx, r.org)
	if err != nil {
		return fmt.Errorf("finding organization %q: %w", r.org, err)
	}
	if org == nil {
		return fmt.Errorf("organization %q not found", r.org)
	}

	if _, err := r.client.BucketsAPI().CreateBucketWithName(ctx, org, name); err != nil {
		return fmt.Errorf("creating bucket %q: %w", name, err)
	}
	log.Printf("influx: bucket %q created", name)
	return nil
}

// ensureBucket creates the sample bucket on first write if it is missing.
func (r *InfluxDBRepository) ensureBucket(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bucketReady {
		return nil
	}
	exists, err := r.BucketExists(ctx, r.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := r.CreateBucket(ctx, r.bucket); err != nil {
			return err
		}
	}
	r.bucketReady = true
	return nil
}

func (r *InfluxDBRepository) WriteHealthSample(ctx context.Context, sample models.HealthSample) (models.HealthSample, error) {
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}

	fields := map[string]interface{}{"sample_id": sample.ID}
	putFloat(fields, "glucose", sample.Glucose)
	putFloat(fields, "hrv", sample.HRV)
	putFloat(fields, "sleep_hours", sample.SleepHours)
	putFloat(fields, "heart_rate", sample.HeartRate)
	if sample.Steps != nil {
		fields["steps"] = *sample.Steps
	}

	if err := r.writePoint(ctx, HealthMeasurement, sample.UserID, fields, sample.Timestamp); err != nil {
		return models.HealthSample{}, err
	}
	return sample, nil
}

func (r *InfluxDBRepository) WriteEnvironmentalSample(ctx context.Context, sample models.EnvironmentalSample) (models.EnvironmentalSample, error) {
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}

	fields := map[string]interface{}{"sample_id": sample.ID}
	putFloat(fields, "aqi", sample.AQI)
	putFloat(fields, "temperature", sample.Temperature)
	putFloat(fields, "humidity", sample.Humidity)

	if err := r.writePoint(ctx, EnvironmentalMeasurement, sample.UserID, fields, sample.Timestamp); err != nil {
		return models.EnvironmentalSample{}, err
	}
	return sample, nil
}

func (r *InfluxDBRepository) writePoint(ctx context.Context, measurement, userID string, fields map[string]interface{}, ts time.Time) error {
	if err := r.ensureBucket(ctx); err != nil {
		return err
	}

	p := influxdb2.NewPoint(measurement, map[string]string{"user_id": userID}, fields, ts)
	if err := r.client.WriteAPIBlocking(r.org, r.bucket).WritePoint(ctx, p); err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	return nil
}

func (r *InfluxDBRepository) ListHealthSamples(ctx context.Context, userID string, limit int) ([]models.HealthSample, error) {
	var samples []models.HealthSample
	err := r.query(ctx, HealthMeasurement, userID, limit, func(rec *query.FluxRecord) {
		samples = append(samples, healthFromRecord(rec))
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *InfluxDBRepository) ListEnvironmentalSamples(ctx context.Context, userID string, limit int) ([]models.EnvironmentalSample, error) {
	var samples []models.EnvironmentalSample
	err := r.query(ctx, EnvironmentalMeasurement, userID, limit, func(rec *query.FluxRecord) {
		samples = append(samples, environmentalFromRecord(rec))
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *InfluxDBRepository) LatestHealthSample(ctx context.Context, userID string) (*models.HealthSample, error) {
	samples, err := r.ListHealthSamples(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	return firstHealth(samples), nil
}

func (r *InfluxDBRepository) LatestEnvironmentalSample(ctx context.Context, userID string) (*models.EnvironmentalSample, error) {
	samples, err := r.ListEnvironmentalSamples(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	return firstEnvironmental(samples), nil
}

func (r *InfluxDBRepository) query(ctx context.Context, measurement, userID string, limit int, each func(*query.FluxRecord)) error {
	fluxQuery := buildLatestQuery(r.bucket, measurement, userID, limit)

	result, err := r.client.QueryAPI(r.org).Query(ctx, fluxQuery)
	if err != nil {
		log.Printf("influx: query failed: %v\nQuery: %s", err, fluxQuery)
		return fmt.Errorf("error querying InfluxDB: %w", err)
	}
	defer result.Close()

	for result.Next() {
		each(result.Record())
	}
	if result.Err() != nil {
		return fmt.Errorf("query error: %w", result.Err())
	}
	return nil
}

// buildLatestQuery pivots each point's fields into one row so a row maps to one sample.
func buildLatestQuery(bucket, measurement, userID string, limit int) string {
	if limit <= 0 {
		limit = 1
	}
	return fmt.Sprintf(`from(bucket: "%s")
	|> range(start: 0)
	|> filter(fn: (r) => r["_measurement"] == "%s" and r["user_id"] == "%s")
	|> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
	|> group()
	|> sort(columns: ["_time"], desc: true)
	|> limit(n: %d)`, fluxString(bucket), fluxString(measurement), fluxString(userID), limit)
}

func fluxString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func healthFromRecord(rec *query.FluxRecord) models.HealthSample {
	return models.HealthSample{
		ID:         stringValue(rec.ValueByKey("sample_id")),
		UserID:     stringValue(rec.ValueByKey("user_id")),
		Glucose:    floatValue(rec.ValueByKey("glucose")),
		HRV:        floatValue(rec.ValueByKey("hrv")),
		SleepHours: floatValue(rec.ValueByKey("sleep_hours")),
		HeartRate:  floatValue(rec.ValueByKey("heart_rate")),
		Steps:      intValue(rec.ValueByKey("steps")),
		Timestamp:  rec.Time(),
	}
}

func environmentalFromRecord(rec *query.FluxRecord) models.EnvironmentalSample {
	return models.EnvironmentalSample{
		ID:          stringValue(rec.ValueByKey("sample_id")),
		UserID:      stringValue(rec.ValueByKey("user_id")),
		AQI:         floatValue(rec.ValueByKey("aqi")),
		Temperature: floatValue(rec.ValueByKey("temperature")),
		Humidity:    floatValue(rec.ValueByKey("humidity")),
		Timestamp:   rec.Time(),
	}
}

func putFloat(fields map[string]interface{}, name string, v *float64) {
	if v != nil {
		fields[name] = *v
	}
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func floatValue(v interface{}) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func intValue(v interface{}) *int64 {
	var i int64
	switch n := v.(type) {
	case int64:
		i = n
	case uint64:
		i = int64(n)
	case float64:
		i = int64(n)
	default:
		return nil
	}
	return &i
}
