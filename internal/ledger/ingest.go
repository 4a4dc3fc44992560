package ledger

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// sentinelToken is the cheap pre-filter for fraud lines. The reason code
// lives in the unquoted tail of each line, delimiter-wrapped; any line
// without it cannot produce a retained record.
const sentinelToken = ";83;"

// fieldDelimiter separates the logical columns packed inside the quoted
// compound field.
const fieldDelimiter = ";"

// Parse extracts confirmed-fraud records from raw ledger bytes.
//
// The export is inconsistent enough that a strict CSV parse fails (one
// quoted cell carries several logical columns), so each line runs
// through a small scanning pipeline instead:
//
//	header-skip → sentinel-match → quoted-segment-extract → field-split → numeric-coerce
//
// A line failing any stage before numeric-coerce is skipped silently.
// A bad amount is coerced to 0.0 and the record kept: blacklist
// membership is driven by the record's presence, not its amount. Only a
// fully empty source is an error.
func Parse(raw []byte, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, &IngestError{Stage: "parse", Err: errEmptySource}
	}

	lines := strings.Split(text, "\n")

	var records []Record
	skipped := 0
	for i, line := range lines {
		if i == 0 {
			continue // header
		}

		if !strings.Contains(line, sentinelToken) {
			continue
		}

		segment, ok := quotedSegment(line)
		if !ok {
			skipped++
			continue
		}

		parts := strings.Split(segment, fieldDelimiter)
		if len(parts) < 3 {
			skipped++
			continue
		}

		customerID := strings.TrimSpace(parts[0])
		if customerID == "" {
			skipped++
			continue
		}

		amount, err := parseAmount(parts[1])
		if err != nil {
			logger.Warn("invalid ledger amount, coercing to zero",
				"customer_id", customerID,
				"amount_text", parts[1],
			)
			amount = 0.0
		}

		records = append(records, Record{
			CustomerID: customerID,
			Amount:     amount,
			ReasonCode: ReasonConfirmedFraud,
		})
	}

	logger.Info("ledger parsed",
		"lines", len(lines)-1,
		"fraud_records", len(records),
		"skipped_malformed", skipped,
	)

	return New(records), nil
}

// Load fetches ledger bytes from src and parses them. Both fetch and
// parse failures surface as *IngestError.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*Ledger, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, &IngestError{Stage: "fetch", Err: err}
	}
	return Parse(raw, logger)
}

// quotedSegment returns the content of the first double-quoted span in
// line, or false if the line has no complete quoted segment.
func quotedSegment(line string) (string, bool) {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return "", false
	}
	rest := line[start+1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// parseAmount parses a decimal amount after stripping thousands
// separators. Negative amounts pass through: the source data contains
// them, and scoring accepts them as policy.
func parseAmount(text string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	return strconv.ParseFloat(cleaned, 64)
}
