// Package numbering issues human-readable document numbers backed by
// per-branch, per-year sequence rows.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// prefixes maps document types to their number prefix.
var prefixes = map[string]string{
	"SERVICE_TICKET": "SRV",
}

// Sequencer allocates the next number for a document type. Concurrent intakes
// race on the same row; the upsert keeps the counter strictly increasing, and
// callers tolerate the rare duplicate with their own retry.
type Sequencer struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewSequencer builds Sequencer.
func NewSequencer(pool *pgxpool.Pool) *Sequencer {
	return &Sequencer{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Generate returns the next formatted number, e.g. SRV-3-2026-00042.
func (s *Sequencer) Generate(ctx context.Context, companyID int64, docType string, branchID int64) (string, error) {
	prefix, ok := prefixes[docType]
	if !ok {
		return "", fmt.Errorf("unknown document type %q", docType)
	}
	year := s.now().Year()

	var value int64
	err := s.pool.QueryRow(ctx, `INSERT INTO document_sequences (company_id, doc_type, branch_id, year, last_value)
VALUES ($1, $2, $3, $4, 1)
ON CONFLICT (company_id, doc_type, branch_id, year)
DO UPDATE SET last_value = document_sequences.last_value + 1
RETURNING last_value`, companyID, docType, branchID, year).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("allocate %s sequence: %w", docType, err)
	}
	return Format(prefix, branchID, year, value), nil
}

// Format renders one document number.
func Format(prefix string, branchID int64, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%d-%05d", prefix, branchID, year, value)
}
