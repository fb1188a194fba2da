package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Points awarded per lifecycle event.
var pointsByEvent = map[string]int{
	"completed": 10,
	"delivered": 5,
}

// PgPoints credits technician points. The unique (ticket_id, event) index
// makes redelivered tasks a no-op.
type PgPoints struct {
	db *pgxpool.Pool
}

// NewPgPoints builds PgPoints.
func NewPgPoints(db *pgxpool.Pool) *PgPoints {
	return &PgPoints{db: db}
}

// Award records the points row for the event.
func (p *PgPoints) Award(ctx context.Context, ticketID, technicianID int64, event string) error {
	points, ok := pointsByEvent[event]
	if !ok {
		return fmt.Errorf("unknown points event %q", event)
	}
	_, err := p.db.Exec(ctx, `INSERT INTO technician_points (ticket_id, technician_id, event, points, awarded_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (ticket_id, event) DO NOTHING`, ticketID, technicianID, event, points)
	return err
}

// warrantyDays is the coverage window opened at delivery.
const warrantyDays = 90

// PgWarranty creates the warranty record for a delivered ticket.
type PgWarranty struct {
	db *pgxpool.Pool
}

// NewPgWarranty builds PgWarranty.
func NewPgWarranty(db *pgxpool.Pool) *PgWarranty {
	return &PgWarranty{db: db}
}

// Record inserts the warranty row keyed by ticket. Tickets without a delivery
// timestamp are skipped; the task was enqueued by the DELIVERED transition so
// this only happens when the ticket was deleted meanwhile.
func (w *PgWarranty) Record(ctx context.Context, ticketID, actorID int64) error {
	_, err := w.db.Exec(ctx, `INSERT INTO warranty_records (ticket_id, company_id, device_id, issued_at, expires_at, created_by)
SELECT t.id, t.company_id, t.device_id, t.delivered_at, t.delivered_at + make_interval(days => $2), $3
FROM tickets t
WHERE t.id = $1 AND t.delivered_at IS NOT NULL
ON CONFLICT (ticket_id) DO NOTHING`, ticketID, warrantyDays, actorID)
	return err
}

// LogNotifier writes assignment notifications to the log. Push delivery plugs
// in behind the same interface.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier builds LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyAssigned logs the assignment.
func (n *LogNotifier) NotifyAssigned(_ context.Context, ticketID, technicianID int64) error {
	n.logger.Info("ticket assigned",
		slog.Int64("ticket_id", ticketID),
		slog.Int64("technician_id", technicianID))
	return nil
}

// DiskImageCleaner removes ticket images stored under a base directory.
type DiskImageCleaner struct {
	baseDir string
}

// NewDiskImageCleaner builds DiskImageCleaner.
func NewDiskImageCleaner(baseDir string) *DiskImageCleaner {
	return &DiskImageCleaner{baseDir: baseDir}
}

// Remove deletes each key under the base directory. Keys escaping the base
// directory are rejected; already-deleted files are ignored.
func (c *DiskImageCleaner) Remove(_ context.Context, keys []string) error {
	var failed []string
	for _, key := range keys {
		path := filepath.Join(c.baseDir, filepath.Clean("/"+key))
		if !strings.HasPrefix(path, filepath.Clean(c.baseDir)+string(os.PathSeparator)) {
			failed = append(failed, key)
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			failed = append(failed, key)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("remove images: %s", strings.Join(failed, ", "))
	}
	return nil
}
