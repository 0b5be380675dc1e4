package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/pkg/geo"
)

const (
	DefaultLocationTimeout = 15 * time.Second
	DefaultLocationMaxAge  = 30 * time.Second
)

// LocationSample is a single device position fix.
type LocationSample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	CapturedAt     time.Time
}

func (s LocationSample) Coordinates() geo.Coordinates {
	return geo.Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}

// LocationProvider yields one best-effort location sample. Failures should be
// reported as *LocationError so the reason reaches the user.
type LocationProvider interface {
	Locate(ctx context.Context) (LocationSample, error)
}

// ErrNoLocationReported is returned by providers that have nothing to offer.
// It is not a failure of acquisition: the submission gate reports it as
// LocationRequired.
var ErrNoLocationReported = errors.New("no location reported")

type AcquireOptions struct {
	Timeout time.Duration
	MaxAge  time.Duration
	Now     func() time.Time
}

// AcquireLocation asks provider for a sample, bounded by opts.Timeout, and
// rejects samples that are out of range or older than opts.MaxAge. It never
// retries; a new attempt is a new call.
func AcquireLocation(ctx context.Context, provider LocationProvider, opts AcquireOptions) (LocationSample, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLocationTimeout
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultLocationMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	sample, err := provider.Locate(ctx)
	if err != nil {
		var locErr *LocationError
		switch {
		case errors.As(err, &locErr):
			return LocationSample{}, locErr
		case errors.Is(err, ErrNoLocationReported):
			return LocationSample{}, err
		case errors.Is(err, context.DeadlineExceeded):
			return LocationSample{}, &LocationError{Reason: LocationTimeout, Err: err}
		default:
			return LocationSample{}, &LocationError{Reason: LocationUnavailable, Err: err}
		}
	}

	if !geo.ValidCoordinates(sample.Latitude, sample.Longitude) {
		return LocationSample{}, &LocationError{Reason: LocationUnavailable, Err: errors.New("coordinates out of range")}
	}

	if !sample.CapturedAt.IsZero() && opts.Now().Sub(sample.CapturedAt) > opts.MaxAge {
		return LocationSample{}, &LocationError{Reason: LocationStale}
	}

	return sample, nil
}

// ReportedLocation is a location sample (or failure) relayed by the client
// device along with the submission.
type ReportedLocation struct {
	Latitude       *float64
	Longitude      *float64
	AccuracyMeters *float64
	CapturedAt     *time.Time
	Failure        *LocationFailure
}

// Locate implements LocationProvider.
func (r ReportedLocation) Locate(ctx context.Context) (LocationSample, error) {
	if err := ctx.Err(); err != nil {
		return LocationSample{}, err
	}
	if r.Failure != nil {
		return LocationSample{}, &LocationError{Reason: *r.Failure}
	}
	if r.Latitude == nil || r.Longitude == nil {
		return LocationSample{}, ErrNoLocationReported
	}

	sample := LocationSample{
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
	}
	if r.AccuracyMeters != nil {
		sample.AccuracyMeters = *r.AccuracyMeters
	}
	if r.CapturedAt != nil {
		sample.CapturedAt = *r.CapturedAt
	}
	return sample, nil
}
