package models

import "time"

// Summary buckets accepted by training summaries.
const (
	BucketWeek  = "1 week"
	BucketMonth = "1 month"
)

// SessionTypeSummary aggregates the logged sessions sharing one name within a period.
type SessionTypeSummary struct {
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	AvgDuration   float64  `json:"avgDurationSec"`
	TotalCalories float64  `json:"totalCalories"`
	AvgHeartRate  *float64 `json:"avgHeartRate,omitempty"`
}

// VolumeSummary totals the work recorded in a period's session logs.
type VolumeSummary struct {
	Sets              int     `json:"sets"`
	Reps              int     `json:"reps"`
	Volume            float64 `json:"volume"`
	Weight            float64 `json:"weight"`
	Sessions          int     `json:"sessions"`
	AvgSetsPerSession float64 `json:"avgSetsPerSession"`
}

// TrainingSummaryPeriod holds session counts and volume for one week or month.
// Period is the first day of the bucket, formatted YYYY-MM-DD.
type TrainingSummaryPeriod struct {
	Period   string               `json:"period"`
	Sessions []SessionTypeSummary `json:"sessions"`
	Volume   *VolumeSummary       `json:"volume,omitempty"`
}

// PeriodStart truncates t, in UTC, to the Monday of its week or the first of
// its month. Unknown buckets are treated as months.
func PeriodStart(t time.Time, bucket string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if bucket == BucketWeek {
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	}
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}
