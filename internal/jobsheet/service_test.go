package jobsheet

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memRepo struct {
	sheets map[int64][]byte
	data   map[int64]SheetData
	loads  int
}

func (m *memRepo) SheetExists(_ context.Context, id int64) (bool, error) {
	_, ok := m.sheets[id]
	return ok, nil
}

func (m *memRepo) SaveSheet(_ context.Context, id int64, pdf []byte) error {
	if _, ok := m.sheets[id]; !ok {
		m.sheets[id] = pdf
	}
	return nil
}

func (m *memRepo) GetSheet(_ context.Context, id int64) ([]byte, error) {
	return m.sheets[id], nil
}

func (m *memRepo) LoadSheetData(_ context.Context, id int64) (SheetData, error) {
	m.loads++
	return m.data[id], nil
}

type stubRenderer struct {
	renders int
}

func (r *stubRenderer) RenderHTML(_ context.Context, html string) ([]byte, error) {
	r.renders++
	return []byte("%PDF " + html[:20]), nil
}

func sampleData() SheetData {
	return SheetData{
		TicketNumber:  "SRV-1-2026-00007",
		CreatedAt:     time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		BranchName:    "Downtown",
		CustomerName:  "Priya Shah",
		CustomerPhone: "555-0101",
		DeviceLabel:   "Acme Phone X",
		SerialNumber:  "SN-1234",
		Problem:       "Screen cracked",
		Faults:        []string{"Display", "Touch"},
		Parts:         []SheetPart{{Name: "Display assembly", Quantity: 1, UnitPrice: "80.00", Total: "80.00"}},
		EstimatedCost: "150.00",
		Advance:       "50.00",
	}
}

func TestRenderSheetHTML(t *testing.T) {
	html, err := RenderSheetHTML(sampleData())
	require.NoError(t, err)
	require.Contains(t, html, "SRV-1-2026-00007")
	require.Contains(t, html, "Priya Shah")
	require.Contains(t, html, "Display, Touch")
	require.Contains(t, html, "Display assembly")
	require.Contains(t, html, "150.00")
}

func TestGenerateIsIdempotent(t *testing.T) {
	repo := &memRepo{sheets: map[int64][]byte{}, data: map[int64]SheetData{7: sampleData()}}
	renderer := &stubRenderer{}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, renderer)

	require.NoError(t, svc.Generate(context.Background(), 7))
	require.NoError(t, svc.Generate(context.Background(), 7))

	require.Equal(t, 1, renderer.renders)
	require.Equal(t, 1, repo.loads)

	pdf, err := svc.Fetch(context.Background(), 7)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
}
