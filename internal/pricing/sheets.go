package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// RangeReader читает диапазон ячеек листа как текст.
type RangeReader interface {
	ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
}

type SheetsConfig struct {
	SpreadsheetID   string
	FixedWorksheet  string
	SharedWorksheet string
	DailyWorksheet  string
}

// SheetsSource reads the three pricing worksheets from Google Sheets.
type SheetsSource struct {
	reader RangeReader
	cfg    SheetsConfig
	now    func() time.Time
}

// NewSheetsSource создает источник поверх произвольного RangeReader.
func NewSheetsSource(reader RangeReader, cfg SheetsConfig) *SheetsSource {
	return &SheetsSource{reader: reader, cfg: cfg, now: time.Now}
}

// Fetch читает листы и собирает снимок. Битые строки пропускаются с предупреждением в лог.
func (s *SheetsSource) Fetch(ctx context.Context) (Snapshot, error) {
	fixedRows, err := s.reader.ReadRange(ctx, s.cfg.SpreadsheetID, worksheetRange(s.cfg.FixedWorksheet))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, s.cfg.FixedWorksheet, err)
	}

	entries, skipped := ParseRows(fixedRows, CategoryOther)
	logSkipped(s.cfg.FixedWorksheet, skipped)

	var shared []CostItem
	if s.cfg.SharedWorksheet != "" {
		rows, err := s.reader.ReadRange(ctx, s.cfg.SpreadsheetID, worksheetRange(s.cfg.SharedWorksheet))
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, s.cfg.SharedWorksheet, err)
		}
		shared, skipped = ParseCostRows(rows, "EUR")
		logSkipped(s.cfg.SharedWorksheet, skipped)
	}

	var daily []CostItem
	if s.cfg.DailyWorksheet != "" {
		rows, err := s.reader.ReadRange(ctx, s.cfg.SpreadsheetID, worksheetRange(s.cfg.DailyWorksheet))
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, s.cfg.DailyWorksheet, err)
		}
		daily, skipped = ParseCostRows(rows, "TWD")
		logSkipped(s.cfg.DailyWorksheet, skipped)
	}

	return NewSnapshot("sheets", s.now(), entries, shared, daily), nil
}

func worksheetRange(name string) string {
	return fmt.Sprintf("'%s'!A:C", name)
}

func logSkipped(worksheet string, skipped int) {
	if skipped == 0 {
		return
	}
	slog.Warn("price rows skipped", slog.String("worksheet", worksheet), slog.Int("skipped", skipped))
}

// GoogleSheetsReader implements RangeReader on top of the Sheets v4 API.
type GoogleSheetsReader struct {
	service *sheets.Service
}

// NewGoogleSheetsReader создает клиент Sheets по файлу сервисного аккаунта или API-ключу.
func NewGoogleSheetsReader(ctx context.Context, credentialsFile, apiKey string) (*GoogleSheetsReader, error) {
	opts := make([]option.ClientOption, 0, 1)
	switch {
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &GoogleSheetsReader{service: service}, nil
}

// ReadRange возвращает значения диапазона, приводя каждую ячейку к строке.
func (r *GoogleSheetsReader) ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	response, err := r.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(response.Values))
	for _, values := range response.Values {
		row := make([]string, len(values))
		for i, value := range values {
			if value == nil {
				continue
			}
			row[i] = fmt.Sprint(value)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
