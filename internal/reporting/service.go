package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListSales returns the rows matching the filter.
func (s *Service) ListSales(ctx context.Context, f Filter) ([]SaleRow, error) {
	return s.repo.ListSales(ctx, f)
}

// RevenueTotal sums the totals of the matching sales. Voided sales are always
// excluded from revenue regardless of the filter passed in.
func (s *Service) RevenueTotal(ctx context.Context, f Filter) (decimal.Decimal, error) {
	f.ExcludeState = "voided"
	rows, err := s.repo.ListSales(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Total)
	}
	return total, nil
}

// WriteCSV streams the matching sale rows as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, f Filter) error {
	rows, err := s.repo.ListSales(ctx, f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sale_id", "customer", "date", "total", "state"}); err != nil {
		return fmt.Errorf("reporting: write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.ID,
			row.CustomerName,
			row.Date.UTC().Format(time.RFC3339),
			row.Total.StringFixed(2),
			row.State,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("reporting: write csv row %s: %w", row.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Receipt returns the projection the receipt generator renders.
func (s *Service) Receipt(ctx context.Context, saleID string) (*Receipt, error) {
	return s.repo.Receipt(ctx, saleID)
}
