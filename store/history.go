package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"workforce-scheduler/models"
)

// VolumeProfile is the average call volume of one hour-of-day or weekday bucket.
type VolumeProfile struct {
	Bucket       int     `json:"bucket"`
	AverageCalls float64 `json:"average_calls"`
	TotalCalls   int64   `json:"total_calls"`
	Samples      int     `json:"samples"`
}

// VolumeByHour averages call counts per hour of day (0-23) in the store's
// location over [from, to).
func (s *Store) VolumeByHour(ctx context.Context, queue models.QueueName, from, to time.Time) ([]VolumeProfile, error) {
	return s.profile(ctx, queue, from, to, func(t time.Time) int { return t.Hour() })
}

// VolumeByWeekday averages call counts per ISO weekday (1 = Monday).
func (s *Store) VolumeByWeekday(ctx context.Context, queue models.QueueName, from, to time.Time) ([]VolumeProfile, error) {
	return s.profile(ctx, queue, from, to, models.ISOWeekday)
}

// TotalCalls sums call counts of a queue over [from, to).
func (s *Store) TotalCalls(ctx context.Context, queue models.QueueName, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(call_count), 0)
		FROM historical_samples
		WHERE queue_name = ? AND ts >= ? AND ts < ?`, string(queue), from.Unix(), to.Unix()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum calls: %w", err)
	}
	return total, nil
}

// profile buckets samples in Go so the local-time bucketing follows the
// store location, DST included.
func (s *Store) profile(ctx context.Context, queue models.QueueName, from, to time.Time, bucket func(time.Time) int) ([]VolumeProfile, error) {
	samples, err := s.Samples(ctx, []models.QueueName{queue}, from, to)
	if err != nil {
		return nil, err
	}

	byBucket := make(map[int]*VolumeProfile)
	for _, sm := range samples {
		b := bucket(sm.Timestamp)
		p, ok := byBucket[b]
		if !ok {
			p = &VolumeProfile{Bucket: b}
			byBucket[b] = p
		}
		p.TotalCalls += int64(sm.CallCount)
		p.Samples++
	}

	out := make([]VolumeProfile, 0, len(byBucket))
	for _, p := range byBucket {
		p.AverageCalls = float64(p.TotalCalls) / float64(p.Samples)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out, nil
}
