// Package ledger loads the historical chargeback ledger and exposes the
// aggregates the risk agents score against.
//
// The source is a semi-structured delimited export: each line embeds the
// real fields inside a quoted compound column, so ingestion scans lines
// rather than parsing a strict table. Only records carrying reason code
// 83 (confirmed fraud) are retained.
package ledger

import (
	"fmt"
)

// ReasonConfirmedFraud is the chargeback reason code that marks a record
// as confirmed fraud. Everything else is discarded at ingestion.
const ReasonConfirmedFraud = 83

// FallbackMeanAmount is used when the ledger contains no fraud records.
const FallbackMeanAmount = 1000.0

// Record is a single confirmed-fraud ledger entry.
type Record struct {
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
	ReasonCode int     `json:"reasonCode"`
}

// Ledger is the immutable-after-load collection of confirmed-fraud
// records plus the derived aggregates the agents need. Built once at
// startup and shared read-only across requests.
type Ledger struct {
	records    []Record
	customers  map[string]struct{}
	meanAmount float64
}

// IngestError is a fatal ingestion failure: the source was unreachable
// or fully undecodable. The service must not come up without a ledger.
type IngestError struct {
	Stage string // "fetch" or "parse"
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ledger ingestion failed at %s: %v", e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// New builds a ledger directly from records, indexing the customer set
// and computing the mean fraud amount. Ingestion uses it after parsing;
// tests use it for synthetic ledgers.
func New(records []Record) *Ledger {
	l := &Ledger{
		records:    records,
		customers:  make(map[string]struct{}, len(records)),
		meanAmount: FallbackMeanAmount,
	}

	var sum float64
	for _, r := range records {
		l.customers[r.CustomerID] = struct{}{}
		sum += r.Amount
	}
	if len(records) > 0 {
		l.meanAmount = sum / float64(len(records))
	}
	return l
}

// Size returns the number of retained fraud records.
func (l *Ledger) Size() int { return len(l.records) }

// BlacklistSize returns the number of distinct customers with at least
// one confirmed-fraud record.
func (l *Ledger) BlacklistSize() int { return len(l.customers) }

// MeanAmount returns the average fraud amount, or FallbackMeanAmount
// when the ledger is empty.
func (l *Ledger) MeanAmount() float64 { return l.meanAmount }

// Contains reports whether a customer has any confirmed-fraud record.
func (l *Ledger) Contains(customerID string) bool {
	_, ok := l.customers[customerID]
	return ok
}

// Records returns a copy of the retained records.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}
