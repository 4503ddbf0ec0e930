package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the point as "lat,lng", the form the places API and the
// lead table both use.
func (p LatLng) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lng)
}

// SearchRequest is the input to a lead search. It is treated as immutable
// once a run starts.
type SearchRequest struct {
	Keywords     string   `json:"keywords"`
	TargetTitles []string `json:"target_titles"`
	Location     LatLng   `json:"location"`
	RadiusMeters float64  `json:"radius_meters"`
	ResultLimit  int      `json:"result_limit"`
}

// RadiusKm returns the radius in kilometres.
func (r SearchRequest) RadiusKm() float64 {
	return r.RadiusMeters / 1000
}

// Validate checks the request for values the pipeline cannot run with.
func (r SearchRequest) Validate() error {
	if r.Keywords == "" {
		return eris.New("model: keywords are required")
	}
	if len(r.TargetTitles) == 0 {
		return eris.New("model: at least one target title is required")
	}
	if r.RadiusMeters <= 0 {
		return eris.Errorf("model: radius must be positive, got %g", r.RadiusMeters)
	}
	if r.ResultLimit <= 0 {
		return eris.Errorf("model: result limit must be positive, got %d", r.ResultLimit)
	}
	if r.Location.Lat < -90 || r.Location.Lat > 90 || r.Location.Lng < -180 || r.Location.Lng > 180 {
		return eris.Errorf("model: location %s out of range", r.Location)
	}
	return nil
}

// Place is a business candidate returned by the places search.
type Place struct {
	ID       string   `json:"place_id"`
	Name     string   `json:"name"`
	Address  string   `json:"formatted_address"`
	Rating   *float64 `json:"rating,omitempty"`
	Types    []string `json:"types,omitempty"`
	Location *LatLng  `json:"location,omitempty"`
}

// RawSearchHit is one item returned by a contact source. Hits live only for
// the duration of a single place's processing.
type RawSearchHit struct {
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	URL      string `json:"url"`
	Query    string `json:"query"`
	Provider string `json:"provider"`
}

// ExtractedSignals holds the candidate contact fields pattern-matched out of
// a set of hits, plus the text they were matched against.
type ExtractedSignals struct {
	Emails   []string `json:"emails"`
	Phones   []string `json:"phones"`
	Names    []string `json:"names"`
	Websites []string `json:"websites"`
	Facebook string   `json:"facebook,omitempty"`
	Line     string   `json:"line,omitempty"`
	RawText  string   `json:"raw_text"`
}
