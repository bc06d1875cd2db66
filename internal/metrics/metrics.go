package metrics

import (
	"context"
	"fmt"
	"time"
)

// Pillar is one of the four tracked life domains.
type Pillar string

const (
	PillarFinancial    Pillar = "financial"
	PillarHealth       Pillar = "health"
	PillarWorkLife     Pillar = "worklife"
	PillarProductivity Pillar = "productivity"
)

// AllPillars lists the pillars in canonical order.
var AllPillars = []Pillar{
	PillarFinancial,
	PillarHealth,
	PillarWorkLife,
	PillarProductivity,
}

// Valid reports whether p is a known pillar.
func (p Pillar) Valid() bool {
	switch p {
	case PillarFinancial, PillarHealth, PillarWorkLife, PillarProductivity:
		return true
	}
	return false
}

// Key identifies a single named metric within a pillar.
type Key struct {
	Pillar Pillar `json:"pillar"`
	Metric string `json:"metric"`
}

// String renders the key as "pillar.metric".
func (k Key) String() string {
	return fmt.Sprintf("%s.%s", k.Pillar, k.Metric)
}

// Point is a single day-aligned observation.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ordered, day-aligned sequence of observations for one metric.
// Multiple same-day samples are averaged by the Source before the series is
// handed upward. A Series is immutable once returned and never cached beyond
// a single computation pass.
type Series struct {
	Key    Key     `json:"key"`
	Points []Point `json:"points"`
}

// Len returns the number of points in the series.
func (s Series) Len() int { return len(s.Points) }

// IsEmpty reports whether the series has no points.
func (s Series) IsEmpty() bool { return len(s.Points) == 0 }

// Values returns the point values in order.
func (s Series) Values() []float64 {
	vs := make([]float64, len(s.Points))
	for i, p := range s.Points {
		vs[i] = p.Value
	}
	return vs
}

// Latest returns the most recent point. ok is false for an empty series.
func (s Series) Latest() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// ByDate returns the series values indexed by day (UTC midnight).
func (s Series) ByDate() map[time.Time]float64 {
	m := make(map[time.Time]float64, len(s.Points))
	for _, p := range s.Points {
		m[Day(p.Date)] = p.Value
	}
	return m
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InnerJoin aligns two series on shared days and returns the paired values
// in date order. Only dates present in both series contribute.
func InnerJoin(a, b Series) (x, y []float64) {
	bv := b.ByDate()
	for _, p := range a.Points {
		day := Day(p.Date)
		if v, ok := bv[day]; ok {
			x = append(x, p.Value)
			y = append(y, v)
		}
	}
	return x, y
}

// Source is the metric access layer: a uniform read-only query surface over
// the pillar time series.
//
// Fetch returns the day-aligned series for the given user and metric over
// [from, to]. Missing data is not an error; the series is simply empty.
// A non-nil error means the pillar backing this metric is unreachable.
type Source interface {
	Fetch(ctx context.Context, userID string, key Key, from, to time.Time) (Series, error)
}
