// Package collector gathers per-customer context from four independent
// sources before analysis: profile, transaction history, device info,
// and external signals.
//
// The four lookups fan out concurrently and join-wait. The join is
// all-or-nothing: a failure in any source fails the whole collection,
// so callers treat it as a single failure domain.
package collector

import (
	"context"
	"fmt"
	"sync"
)

// Profile is the customer's internal profile.
type Profile struct {
	CustomerID        string   `json:"customer_id"`
	AccountAgeDays    int      `json:"account_age_days"`
	AvgTransaction    float64  `json:"avg_transaction_amount"`
	FrequentLocations []string `json:"frequent_locations"`
	RiskScore         float64  `json:"risk_score"`
	AccountStatus     string   `json:"account_status"`
}

// HistoryEntry is one recent transaction.
type HistoryEntry struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Timestamp     string  `json:"timestamp"`
	Location      string  `json:"location"`
	Status        string  `json:"status"`
}

// DeviceInfo is the device fingerprint for the customer's sessions.
type DeviceInfo struct {
	DeviceID      string  `json:"device_id"`
	DeviceType    string  `json:"device_type"`
	OS            string  `json:"os"`
	IsKnownDevice bool    `json:"is_known_device"`
	RiskScore     float64 `json:"risk_score"`
}

// ExternalSignals aggregates third-party lookups.
type ExternalSignals struct {
	CreditScore      int     `json:"credit_score"`
	IdentityVerified bool    `json:"identity_verified"`
	WatchlistMatch   bool    `json:"watchlist_match"`
	GeolocationRisk  float64 `json:"geolocation_risk"`
}

// Bundle is the joined result of all four lookups.
type Bundle struct {
	Profile  *Profile         `json:"customer_profile"`
	History  []HistoryEntry   `json:"transaction_history"`
	Device   *DeviceInfo      `json:"device_info"`
	External *ExternalSignals `json:"external_data"`
}

// Provider supplies the four source lookups. Implementations must be
// safe for concurrent calls.
type Provider interface {
	Profile(ctx context.Context, customerID string) (*Profile, error)
	History(ctx context.Context, customerID string) ([]HistoryEntry, error)
	Device(ctx context.Context, customerID string) (*DeviceInfo, error)
	External(ctx context.Context, customerID string) (*ExternalSignals, error)
}

// Collector fans the four lookups out concurrently.
type Collector struct {
	provider Provider
}

// New creates a collector over a provider.
func New(provider Provider) *Collector {
	return &Collector{provider: provider}
}

// Collect runs all four lookups concurrently and joins. The first
// error observed fails the whole bundle.
func (c *Collector) Collect(ctx context.Context, customerID string) (*Bundle, error) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		bundle Bundle
		first  error
	)

	fail := func(err error) {
		mu.Lock()
		if first == nil {
			first = err
		}
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		p, err := c.provider.Profile(ctx, customerID)
		if err != nil {
			fail(fmt.Errorf("profile lookup: %w", err))
			return
		}
		bundle.Profile = p
	}()
	go func() {
		defer wg.Done()
		h, err := c.provider.History(ctx, customerID)
		if err != nil {
			fail(fmt.Errorf("history lookup: %w", err))
			return
		}
		bundle.History = h
	}()
	go func() {
		defer wg.Done()
		d, err := c.provider.Device(ctx, customerID)
		if err != nil {
			fail(fmt.Errorf("device lookup: %w", err))
			return
		}
		bundle.Device = d
	}()
	go func() {
		defer wg.Done()
		e, err := c.provider.External(ctx, customerID)
		if err != nil {
			fail(fmt.Errorf("external lookup: %w", err))
			return
		}
		bundle.External = e
	}()

	wg.Wait()
	if first != nil {
		return nil, fmt.Errorf("data collection failed: %w", first)
	}
	return &bundle, nil
}
