// Package segment holds per-customer prepaid/postpaid activity counters
// and the coarse category derived from them. Segment membership is a
// weak secondary fraud signal.
package segment

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a customer has no segment profile.
// Absence is a valid input state, not a failure.
var ErrNotFound = errors.New("segment profile not found")

// Segment is the coarse customer category.
type Segment string

const (
	SegmentA Segment = "SEGMENT_A" // prepaid activity only
	SegmentB Segment = "SEGMENT_B" // postpaid activity only
	SegmentC Segment = "SEGMENT_C" // both
	NoData   Segment = "NO_DATA"   // unknown customer or no activity
)

// Profile carries the activity counters for one customer.
type Profile struct {
	CustomerID    string `json:"customerId"`
	PrepaidCount  int    `json:"prepaidCount"`
	PostpaidCount int    `json:"postpaidCount"`
}

// Classify derives the segment from the counters. A nil profile means
// the customer is unknown.
func Classify(p *Profile) Segment {
	if p == nil {
		return NoData
	}
	switch {
	case p.PrepaidCount > 0 && p.PostpaidCount > 0:
		return SegmentC
	case p.PrepaidCount > 0:
		return SegmentA
	case p.PostpaidCount > 0:
		return SegmentB
	default:
		return NoData
	}
}

// Store looks up segment profiles by customer id.
type Store interface {
	Lookup(ctx context.Context, customerID string) (*Profile, error)
	Upsert(ctx context.Context, profile *Profile) error
}
