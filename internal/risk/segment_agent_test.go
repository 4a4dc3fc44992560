package risk

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/halcyonpay/fraudsentry/internal/segment"
)

type failingSegmentStore struct{}

func (failingSegmentStore) Lookup(ctx context.Context, customerID string) (*segment.Profile, error) {
	return nil, errors.New("connection refused")
}

func (failingSegmentStore) Upsert(ctx context.Context, profile *segment.Profile) error {
	return errors.New("connection refused")
}

func TestSegmentAgentStoreFailureScoresAsNoData(t *testing.T) {
	agent := NewSegmentAgent(failingSegmentStore{}, DefaultSegmentTable, slog.New(slog.DiscardHandler))

	f := agent.Score(context.Background(), "c1")
	if f.Probability != 0.25 {
		t.Errorf("store failure should score as NO_DATA (0.25), got %v", f.Probability)
	}
	if f.Extra["segment"] != string(segment.NoData) {
		t.Errorf("expected NO_DATA segment, got %v", f.Extra["segment"])
	}
}

func TestSegmentAgentZeroCountersAreNoData(t *testing.T) {
	store := segment.NewMemoryStore()
	_ = store.Upsert(context.Background(), &segment.Profile{CustomerID: "idle"})

	agent := NewSegmentAgent(store, DefaultSegmentTable, slog.New(slog.DiscardHandler))
	f := agent.Score(context.Background(), "idle")
	if f.Probability != 0.25 {
		t.Errorf("zero counters should score as NO_DATA, got %v", f.Probability)
	}
}
