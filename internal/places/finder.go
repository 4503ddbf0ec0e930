// Package places finds business candidates around a point using the Google
// Places Nearby Search API.
package places

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/resilience"
	"github.com/sells-group/lead-finder/pkg/google"
)

// Kind classifies a places failure.
type Kind int

const (
	KindOther Kind = iota
	KindInvalidCredentials
	KindQuotaExceeded
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindQuotaExceeded:
		return "quota_exceeded"
	default:
		return "other"
	}
}

// Error is a typed places-search failure. Any Error is fatal to a run.
type Error struct {
	Kind    Kind
	Status  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("places: %s", e.Kind)
	if e.Status != "" {
		msg += " (" + e.Status + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a places Error of kind k.
func IsKind(err error, k Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == k
}

// defaultPlaceType keeps Nearby Search to businesses.
const defaultPlaceType = "establishment"

// Finder lists places for a keyword search.
type Finder struct {
	client     google.Client
	tokenDelay time.Duration
	placeType  string
}

// Option configures a Finder.
type Option func(*Finder)

// WithPageTokenDelay sets the wait before a continuation token is used.
// Tokens are rejected by the API if used too soon after issue.
func WithPageTokenDelay(d time.Duration) Option {
	return func(f *Finder) { f.tokenDelay = d }
}

// WithPlaceType restricts results to a place type.
func WithPlaceType(t string) Option {
	return func(f *Finder) { f.placeType = t }
}

// NewFinder returns a Finder over client.
func NewFinder(client google.Client, opts ...Option) *Finder {
	f := &Finder{
		client:     client,
		tokenDelay: 2 * time.Second,
		placeType:  defaultPlaceType,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FindPlaces returns at most limit open places matching keywords within
// radius meters of center, in provider order.
func (f *Finder) FindPlaces(ctx context.Context, keywords string, center model.LatLng, radius float64, limit int) ([]model.Place, error) {
	if limit <= 0 {
		return nil, nil
	}

	log := zap.L().With(
		zap.String("keywords", keywords),
		zap.String("center", center.String()),
		zap.Float64("radius_m", radius),
	)

	req := google.NearbySearchRequest{
		Keyword: keywords,
		Lat:     center.Lat,
		Lng:     center.Lng,
		Radius:  radius,
		Type:    f.placeType,
	}

	var out []model.Place
	for page := 1; ; page++ {
		resp, err := f.client.NearbySearch(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &Error{Kind: KindOther, Err: err}
		}

		switch resp.Status {
		case google.StatusOK:
		case google.StatusZeroResults:
			log.Info("places: no results", zap.Int("page", page))
			return truncate(out, limit), nil
		default:
			return nil, classify(resp)
		}

		for _, p := range resp.Results {
			if p.PlaceID == "" || p.Name == "" || p.BusinessStatus == google.BusinessClosedPermanently {
				continue
			}
			out = append(out, toPlace(p))
		}
		log.Debug("places: page fetched",
			zap.Int("page", page),
			zap.Int("results", len(resp.Results)),
			zap.Int("accumulated", len(out)),
		)

		if len(out) >= limit || resp.NextPageToken == "" {
			break
		}

		if err := resilience.Sleep(ctx, f.tokenDelay); err != nil {
			return nil, err
		}
		req = google.NearbySearchRequest{PageToken: resp.NextPageToken}
	}

	out = truncate(out, limit)
	log.Info("places: search complete", zap.Int("places", len(out)))
	return out, nil
}

func classify(resp *google.NearbySearchResponse) *Error {
	e := &Error{Status: resp.Status, Message: resp.ErrorMessage}
	switch resp.Status {
	case google.StatusRequestDenied:
		e.Kind = KindInvalidCredentials
	case google.StatusOverQueryLimit:
		e.Kind = KindQuotaExceeded
	default:
		e.Kind = KindOther
	}
	return e
}

func toPlace(p google.Place) model.Place {
	mp := model.Place{
		ID:      p.PlaceID,
		Name:    p.Name,
		Address: p.Address(),
		Rating:  p.Rating,
		Types:   p.Types,
	}
	if p.Geometry != nil {
		loc := model.LatLng{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng}
		mp.Location = &loc
	}
	return mp
}

func truncate(places []model.Place, limit int) []model.Place {
	if len(places) > limit {
		return places[:limit]
	}
	return places
}
