package segment

import (
	"context"
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		want    Segment
	}{
		{"both counters", &Profile{PrepaidCount: 1, PostpaidCount: 1}, SegmentC},
		{"prepaid only", &Profile{PrepaidCount: 3}, SegmentA},
		{"postpaid only", &Profile{PostpaidCount: 2}, SegmentB},
		{"zero counters", &Profile{}, NoData},
		{"unknown customer", nil, NoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.profile); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMemoryStoreLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Lookup(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := &Profile{CustomerID: "1072", PrepaidCount: 2, PostpaidCount: 1}
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := store.Lookup(ctx, "1072")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.PrepaidCount != 2 || got.PostpaidCount != 1 {
		t.Errorf("unexpected profile: %+v", got)
	}

	// Mutating the returned profile must not leak back into the store.
	got.PrepaidCount = 99
	again, _ := store.Lookup(ctx, "1072")
	if again.PrepaidCount != 2 {
		t.Error("store returned aliased profile")
	}
}

func TestMemoryStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.Upsert(ctx, &Profile{CustomerID: "c1", PrepaidCount: 1})
	_ = store.Upsert(ctx, &Profile{CustomerID: "c1", PostpaidCount: 4})

	got, err := store.Lookup(ctx, "c1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.PrepaidCount != 0 || got.PostpaidCount != 4 {
		t.Errorf("upsert did not overwrite: %+v", got)
	}
}
