// Package google mirrors the booking ledger into a Google Sheets
// spreadsheet so non-technical staff can watch bookings without touching
// the data files.
package google

import (
	"context"
	"fmt"
	"os"
	"sort"

	"playslot/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const sheetName = "Bookings"

// SheetsService pushes ledger snapshots to a spreadsheet.
type SheetsService struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *zerolog.Logger
}

// NewSheetsService authenticates with a service-account credentials file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string, logger *zerolog.Logger) (*SheetsService, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsService{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// Sync replaces the sheet contents with the full ledger snapshot. The
// ledger stays the source of truth; the spreadsheet is a read-only view,
// so a full rewrite on every commit is simpler than diffing rows.
func (s *SheetsService) Sync(ctx context.Context, data store.Data) error {
	values := [][]interface{}{headerRow()}
	values = append(values, dataRows(data)...)

	clearRange := fmt.Sprintf("%s!A:D", sheetName)
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	vr := &sheets.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, fmt.Sprintf("%s!A1", sheetName), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update sheet: %w", err)
	}
	s.logger.Debug().Int("rows", len(values)-1).Msg("sheets mirror synced")
	return nil
}

func headerRow() []interface{} {
	return []interface{}{"User", "Date", "Game", "Slot"}
}

// dataRows flattens the nested ledger into sorted spreadsheet rows.
func dataRows(data store.Data) [][]interface{} {
	var rows [][]interface{}
	for _, user := range sortedKeys(data) {
		byDate := data[user]
		for _, date := range sortedKeys(byDate) {
			byGame := byDate[date]
			for _, game := range sortedKeys(byGame) {
				for _, slot := range byGame[game] {
					rows = append(rows, []interface{}{user, date, game, slot})
				}
			}
		}
	}
	return rows
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
