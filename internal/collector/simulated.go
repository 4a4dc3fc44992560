package collector

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// SimulatedProvider stands in for the real profile/history/device/
// external services in development. Values are drawn from a seedable
// source so tests stay deterministic.
type SimulatedProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedProvider creates a simulated provider with the given seed.
func NewSimulatedProvider(seed int64) *SimulatedProvider {
	return &SimulatedProvider{rng: rand.New(rand.NewSource(seed))}
}

var (
	simLocations   = []string{"Madrid", "Barcelona", "Lima", "Bogota", "Unknown"}
	simDeviceTypes = []string{"mobile", "desktop", "tablet"}
	simOSes        = []string{"iOS", "Android", "Windows", "macOS"}
)

func (p *SimulatedProvider) Profile(ctx context.Context, customerID string) (*Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &Profile{
		CustomerID:        customerID,
		AccountAgeDays:    1 + p.rng.Intn(1000),
		AvgTransaction:    50 + p.rng.Float64()*450,
		FrequentLocations: []string{simLocations[p.rng.Intn(len(simLocations))]},
		RiskScore:         p.rng.Float64(),
		AccountStatus:     "active",
	}, nil
}

func (p *SimulatedProvider) History(ctx context.Context, customerID string) ([]HistoryEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 5 + p.rng.Intn(15)
	entries := make([]HistoryEntry, n)
	for i := range entries {
		entries[i] = HistoryEntry{
			TransactionID: fmt.Sprintf("txn-%s-%d", customerID, i),
			Amount:        10 + p.rng.Float64()*990,
			Timestamp:     fmt.Sprintf("2024-01-%02dT%02d:00:00Z", 1+p.rng.Intn(28), p.rng.Intn(24)),
			Location:      simLocations[p.rng.Intn(len(simLocations))],
			Status:        "completed",
		}
	}
	return entries, nil
}

func (p *SimulatedProvider) Device(ctx context.Context, customerID string) (*DeviceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &DeviceInfo{
		DeviceID:      "dev-" + customerID,
		DeviceType:    simDeviceTypes[p.rng.Intn(len(simDeviceTypes))],
		OS:            simOSes[p.rng.Intn(len(simOSes))],
		IsKnownDevice: p.rng.Intn(2) == 0,
		RiskScore:     p.rng.Float64(),
	}, nil
}

func (p *SimulatedProvider) External(ctx context.Context, customerID string) (*ExternalSignals, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &ExternalSignals{
		CreditScore:      300 + p.rng.Intn(551),
		IdentityVerified: p.rng.Intn(2) == 0,
		WatchlistMatch:   p.rng.Intn(10) == 0,
		GeolocationRisk:  p.rng.Float64(),
	}, nil
}
