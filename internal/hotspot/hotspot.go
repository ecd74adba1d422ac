package hotspot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrNotFound is returned by a Source when no document exists for a video.
var ErrNotFound = errors.New("hotspot document not found")

// Placement is the styling payload rendered with the control when a hotspot
// fires. It is passed through to the presentation layer untouched.
type Placement json.RawMessage

// DefaultPlacement is the centered control shown while playing.
var DefaultPlacement = Placement(`{"bottom":"0%","left":""}`)

func (p Placement) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *Placement) UnmarshalJSON(data []byte) error {
	if p == nil {
		return errors.New("hotspot: UnmarshalJSON on nil Placement")
	}
	*p = append((*p)[0:0], data...)
	return nil
}

// Equal reports whether two placements carry the same JSON bytes.
func (p Placement) Equal(other Placement) bool {
	return bytes.Equal(p, other)
}

// IsDefault reports whether p is empty or the default placement.
func (p Placement) IsDefault() bool {
	return len(p) == 0 || p.Equal(DefaultPlacement)
}

// Record is a single hotspot: a playback position and where to show the control.
type Record struct {
	Time      float64   `json:"time"`
	Placement Placement `json:"location"`
}

// Document maps a variant name ("regular", "dynamic") to its ordered hotspot list.
type Document map[string][]Record

// ParseDocument decodes a hotspot document. List order is preserved.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode hotspot document: %w", err)
	}
	if doc == nil {
		return nil, errors.New("decode hotspot document: empty document")
	}
	for variant, records := range doc {
		if err := Validate(records); err != nil {
			return nil, fmt.Errorf("variant %q: %w", variant, err)
		}
	}
	return doc, nil
}

// Validate rejects records whose time is negative or not a finite number.
func Validate(records []Record) error {
	for i, r := range records {
		if math.IsNaN(r.Time) || math.IsInf(r.Time, 0) {
			return fmt.Errorf("hotspot %d: time is not a number", i)
		}
		if r.Time < 0 {
			return fmt.Errorf("hotspot %d: time %.2f is negative", i, r.Time)
		}
	}
	return nil
}

// Times returns the hotspot times in list order.
func Times(records []Record) []float64 {
	times := make([]float64, len(records))
	for i, r := range records {
		times[i] = r.Time
	}
	return times
}
