// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package codec

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	// ErrNotPointFeature is returned for anything but a GeoJSON Point Feature.
	ErrNotPointFeature = errors.New("not a GeoJSON Point Feature")

	// ErrOutOfRange is returned when a coordinate is outside WGS-84 bounds.
	ErrOutOfRange = errors.New("coordinate out of range")
)

// Feature is the subset of a GeoJSON Feature carried by a status change.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   *Geometry         `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Geometry is a GeoJSON geometry object.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// FeatureProperties holds the telemetry timestamp MDS attaches to a location.
type FeatureProperties struct {
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// Location is a decoded and range-checked Point Feature.
type Location struct {
	Lng float64  `validate:"longitude"`
	Lat float64  `validate:"latitude"`
	Alt *float64 `validate:"-"`
	// Timestamp is properties.timestamp in milliseconds, when present and valid.
	Timestamp *int64 `validate:"-"`
}

var (
	coordinateValidator     *validator.Validate
	coordinateValidatorOnce sync.Once
)

func getCoordinateValidator() *validator.Validate {
	coordinateValidatorOnce.Do(func() {
		coordinateValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return coordinateValidator
}

// ParsePointFeature decodes raw as a Point Feature. With swap set, the first
// two coordinates are exchanged before the ranges are checked.
func ParsePointFeature(raw []byte, swap bool) (*Location, error) {
	var f Feature
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPointFeature, err)
	}
	if f.Type != "Feature" {
		return nil, fmt.Errorf("%w: type %q", ErrNotPointFeature, f.Type)
	}
	if f.Geometry == nil || f.Geometry.Type != "Point" {
		return nil, fmt.Errorf("%w: geometry is not a Point", ErrNotPointFeature)
	}

	coords := f.Geometry.Coordinates
	if len(coords) != 2 && len(coords) != 3 {
		return nil, fmt.Errorf("%w: %d coordinates", ErrNotPointFeature, len(coords))
	}

	loc := &Location{Lng: coords[0], Lat: coords[1]}
	if swap {
		loc.Lng, loc.Lat = loc.Lat, loc.Lng
	}
	if len(coords) == 3 {
		alt := coords[2]
		loc.Alt = &alt
	}

	if err := CheckRange(loc.Lng, loc.Lat); err != nil {
		return nil, err
	}

	// A bad telemetry timestamp does not invalidate the position.
	if ts, err := ParseOptionalMS(f.Properties.Timestamp); err == nil {
		loc.Timestamp = ts
	}
	return loc, nil
}

// CheckRange verifies lng in [-180, 180] and lat in [-90, 90].
func CheckRange(lng, lat float64) error {
	err := getCoordinateValidator().Struct(Location{Lng: lng, Lat: lat})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s=%v", ErrOutOfRange, verrs[0].Tag(), verrs[0].Value())
	}
	return fmt.Errorf("%w: %v", ErrOutOfRange, err)
}
