package storage

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// GetTrainingSummary returns per-period session counts and volume totals from
// the user's session logs in [start, end).
func (db *DB) GetTrainingSummary(ctx context.Context, userID string, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	// Query 1: sessions grouped by period + name, with the mean of each log's heart rate
	sessionRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, l.logged_at)::date AS period,
		        l.session_name,
		        COUNT(*)::int,
		        AVG(l.duration_sec)::float8,
		        COALESCE(SUM(l.calories), 0),
		        AVG(hr.avg_bpm)
		 FROM session_logs l
		 LEFT JOIN (
		     SELECT session_log_id, AVG(bpm) AS avg_bpm
		     FROM session_log_heart_rate
		     GROUP BY session_log_id
		 ) hr ON hr.session_log_id = l.id
		 WHERE l.logged_at >= $2 AND l.logged_at < $3 AND l.user_id = $4
		 GROUP BY period, l.session_name
		 ORDER BY period DESC, COUNT(*) DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying session summary: %w", err)
	}
	defer sessionRows.Close()

	b := newSummaryBuilder()
	for sessionRows.Next() {
		var periodTime time.Time
		var ss models.SessionTypeSummary
		if err := sessionRows.Scan(&periodTime, &ss.Name, &ss.Count, &ss.AvgDuration, &ss.TotalCalories, &ss.AvgHeartRate); err != nil {
			return nil, fmt.Errorf("scanning session summary: %w", err)
		}
		b.addSessions(periodTime, ss)
	}
	if err := sessionRows.Err(); err != nil {
		return nil, err
	}

	// Query 2: volume totals grouped by period
	volumeRows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, logged_at)::date AS period,
		        COALESCE(SUM(total_sets), 0)::int,
		        COALESCE(SUM(total_reps), 0)::int,
		        COALESCE(SUM(total_volume), 0),
		        COALESCE(SUM(total_weight), 0),
		        COUNT(*)::int
		 FROM session_logs
		 WHERE logged_at >= $2 AND logged_at < $3 AND user_id = $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying volume summary: %w", err)
	}
	defer volumeRows.Close()

	for volumeRows.Next() {
		var periodTime time.Time
		var v models.VolumeSummary
		if err := volumeRows.Scan(&periodTime, &v.Sets, &v.Reps, &v.Volume, &v.Weight, &v.Sessions); err != nil {
			return nil, fmt.Errorf("scanning volume summary: %w", err)
		}
		b.setVolume(periodTime, v)
	}
	if err := volumeRows.Err(); err != nil {
		return nil, err
	}

	return b.result(), nil
}

// summaryBuilder collects rows keyed by period start.
type summaryBuilder struct {
	periods map[string]*models.TrainingSummaryPeriod
}

func newSummaryBuilder() *summaryBuilder {
	return &summaryBuilder{periods: make(map[string]*models.TrainingSummaryPeriod)}
}

func (b *summaryBuilder) period(t time.Time) *models.TrainingSummaryPeriod {
	key := t.Format("2006-01-02")
	p, ok := b.periods[key]
	if !ok {
		p = &models.TrainingSummaryPeriod{Period: key, Sessions: []models.SessionTypeSummary{}}
		b.periods[key] = p
	}
	return p
}

func (b *summaryBuilder) addSessions(t time.Time, s models.SessionTypeSummary) {
	p := b.period(t)
	p.Sessions = append(p.Sessions, s)
}

func (b *summaryBuilder) setVolume(t time.Time, v models.VolumeSummary) {
	if v.Sessions > 0 {
		v.AvgSetsPerSession = float64(v.Sets) / float64(v.Sessions)
	}
	b.period(t).Volume = &v
}

// result returns periods newest first.
func (b *summaryBuilder) result() []models.TrainingSummaryPeriod {
	keys := make([]string, 0, len(b.periods))
	for k := range b.periods {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	slices.Reverse(keys)

	out := make([]models.TrainingSummaryPeriod, 0, len(keys))
	for _, k := range keys {
		out = append(out, *b.periods[k])
	}
	return out
}

// truncInterval converts bucket strings like "1 month" to the interval name
// that date_trunc expects (e.g. "month", "week").
func truncInterval(bucket string) string {
	switch bucket {
	case models.BucketWeek:
		return "week"
	case models.BucketMonth:
		return "month"
	default:
		return "month"
	}
}
