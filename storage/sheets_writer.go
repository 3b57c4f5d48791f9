package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"glassdoor-scraper/utils"
)

// MinSpreadsheetIDLength is the shortest id accepted as a real spreadsheet id.
const MinSpreadsheetIDLength = 20

var requiredCredentialFields = []string{"type", "project_id", "private_key_id", "private_key", "client_email"}

// SheetsWriter writes batches to a Google Sheets spreadsheet, one worksheet
// per job.
type SheetsWriter struct {
	svc    *sheets.Service
	logger *utils.Logger
	now    func() time.Time
}

// NewSheetsWriter creates a writer. Pass option.WithCredentialsJSON for a
// service account; tests pass an endpoint and no authentication.
func NewSheetsWriter(ctx context.Context, logger *utils.Logger, opts ...option.ClientOption) (*SheetsWriter, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &SheetsWriter{svc: svc, logger: logger, now: time.Now}, nil
}

// Validate confirms the spreadsheet exists and is readable.
func (w *SheetsWriter) Validate(ctx context.Context, spreadsheetID string) error {
	if len(spreadsheetID) < MinSpreadsheetIDLength {
		return fmt.Errorf("sheets: invalid spreadsheet id %q", spreadsheetID)
	}
	ss, err := w.svc.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId,properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: cannot access spreadsheet: %w", err)
	}
	if ss.Properties != nil {
		w.logger.Info("[sheets] Access confirmed for spreadsheet %q", ss.Properties.Title)
	}
	return nil
}

// Write replaces the contents of the batch's worksheet, creating it when
// missing, and formats the header row.
func (w *SheetsWriter) Write(ctx context.Context, batch Batch) (Result, error) {
	if batch.SpreadsheetID == "" {
		return Result{}, errors.New("sheets: no spreadsheet id")
	}
	name := batch.Worksheet
	if name == "" {
		name = WorksheetName(batch.Keywords, w.now())
	}
	id := batch.SpreadsheetID

	sheetID, err := w.ensureWorksheet(ctx, id, name, len(batch.Rows)+10)
	if err != nil {
		return Result{}, err
	}

	values := make([][]interface{}, 0, len(batch.Rows)+1)
	values = append(values, toCells(Header()))
	for _, r := range batch.Rows {
		values = append(values, toCells(Row(r)))
	}

	_, err = w.svc.Spreadsheets.Values.Update(id, quoteRange(name)+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return Result{}, fmt.Errorf("sheets: write values: %w", err)
	}

	if err := w.formatHeader(ctx, id, sheetID); err != nil {
		w.logger.Warn("[sheets] Header formatting failed: %v", err)
	}

	w.logger.Info("[sheets] Saved %d rows to worksheet %q", len(batch.Rows), name)
	return Result{
		Location:  fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", id, sheetID),
		Worksheet: name,
		Rows:      len(batch.Rows),
	}, nil
}

func (w *SheetsWriter) ensureWorksheet(ctx context.Context, id, name string, rows int) (int64, error) {
	ss, err := w.svc.Spreadsheets.Get(id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: open spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			_, err := w.svc.Spreadsheets.Values.Clear(id, quoteRange(name), &sheets.ClearValuesRequest{}).Context(ctx).Do()
			if err != nil {
				return 0, fmt.Errorf("sheets: clear worksheet: %w", err)
			}
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := w.svc.Spreadsheets.BatchUpdate(id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: name,
					GridProperties: &sheets.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(len(columns)),
					},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: add worksheet: %w", err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, errors.New("sheets: add worksheet: empty reply")
	}
	w.logger.Info("[sheets] Created worksheet %q", name)
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (w *SheetsWriter) formatHeader(ctx context.Context, id string, sheetID int64) error {
	_, err := w.svc.Spreadsheets.BatchUpdate(id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:         sheetID,
						StartRowIndex:   0,
						EndRowIndex:     1,
						ForceSendFields: []string{"SheetId", "StartRowIndex"},
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							BackgroundColor: &sheets.Color{Red: 0.2, Green: 0.6, Blue: 0.9},
							TextFormat: &sheets.TextFormat{
								Bold:            true,
								ForegroundColor: &sheets.Color{Red: 1, Green: 1, Blue: 1},
							},
						},
					},
					Fields: "userEnteredFormat(backgroundColor,textFormat)",
				},
			},
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:         sheetID,
						GridProperties:  &sheets.GridProperties{FrozenRowCount: 1},
						ForceSendFields: []string{"SheetId"},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		},
	}).Context(ctx).Do()
	return err
}

// LoadSheetsCredentials returns service-account JSON from the raw
// environment value, falling back to a credentials file.
func LoadSheetsCredentials(raw, file string) ([]byte, error) {
	if strings.TrimSpace(raw) != "" {
		creds, err := SanitizeCredentials(raw)
		if err == nil {
			return creds, nil
		}
		if file == "" {
			return nil, err
		}
	}
	if file == "" {
		return nil, errors.New("sheets: no credentials configured")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("sheets: read credentials file: %w", err)
	}
	return SanitizeCredentials(string(b))
}

// SanitizeCredentials repairs common mangling of service-account JSON pasted
// into environment variables (outer quotes, escaped quotes, stray prefix or
// suffix, trailing commas) and checks the required fields are present.
func SanitizeCredentials(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	for len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, `\"`, `"`)

	if !strings.HasPrefix(s, "{") {
		if i := strings.Index(s, "{"); i > 0 {
			s = s[i:]
		} else if strings.HasPrefix(s, `"type":`) {
			s = "{" + s
		}
	}
	if !strings.HasSuffix(s, "}") {
		if i := strings.LastIndex(s, "}"); i > 0 {
			s = s[:i+1]
		}
	}
	s = strings.ReplaceAll(s, ",}", "}")
	s = strings.ReplaceAll(s, ", }", "}")

	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, fmt.Errorf("sheets: parse credentials: %w", err)
	}
	for _, f := range requiredCredentialFields {
		if _, ok := fields[f]; !ok {
			return nil, fmt.Errorf("sheets: credentials missing %q", f)
		}
	}
	return []byte(s), nil
}

// SheetURL is the browser link for a spreadsheet.
func SheetURL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

func quoteRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
