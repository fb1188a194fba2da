package jobsheet

import (
	"context"
	"fmt"
	"log/slog"
)

// Renderer converts HTML to PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Service generates and serves job sheets.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	renderer Renderer
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo Repository, renderer Renderer) *Service {
	return &Service{logger: logger, repo: repo, renderer: renderer}
}

// Generate renders and stores the job sheet for a ticket. A second call for
// the same ticket returns without rendering.
func (s *Service) Generate(ctx context.Context, ticketID int64) error {
	exists, err := s.repo.SheetExists(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("check job sheet: %w", err)
	}
	if exists {
		return nil
	}

	data, err := s.repo.LoadSheetData(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("load job sheet data: %w", err)
	}
	html, err := RenderSheetHTML(data)
	if err != nil {
		return fmt.Errorf("render job sheet html: %w", err)
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return fmt.Errorf("convert job sheet: %w", err)
	}
	if err := s.repo.SaveSheet(ctx, ticketID, pdf); err != nil {
		return fmt.Errorf("store job sheet: %w", err)
	}
	s.logger.Info("job sheet generated", slog.Int64("ticket_id", ticketID), slog.Int("bytes", len(pdf)))
	return nil
}

// Fetch returns the stored PDF for a ticket.
func (s *Service) Fetch(ctx context.Context, ticketID int64) ([]byte, error) {
	return s.repo.GetSheet(ctx, ticketID)
}
