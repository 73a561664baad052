package types

import (
	"context"
	"time"
)

// Clock abstracts time so the best-time search and assessments can be tested
// at fixed instants.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// ForecastProvider returns the hourly forecast for a coordinate.
type ForecastProvider interface {
	Hourly(ctx context.Context, loc Location) (*HourlySeries, error)
}

// ArchiveProvider returns daily historical observations for a coordinate.
type ArchiveProvider interface {
	Daily(ctx context.Context, loc Location, from, to time.Time) (*DailySeries, error)
}
