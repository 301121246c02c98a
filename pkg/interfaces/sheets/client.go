package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Row is one spreadsheet row. Bold applies to every cell.
type Row struct {
	Cells []string
	Bold  bool
}

// Client appends rows to, and reads columns from, a single spreadsheet.
type Client struct {
	service       *gsheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
	logger        *logrus.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewClient creates a Sheets client. Credentials come from the config unless
// opts supply their own; with neither, application default credentials apply.
func NewClient(ctx context.Context, config *SheetsConfig, opts ...option.ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var clientOpts []option.ClientOption
	switch {
	case config.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	case config.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(config.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: config.SpreadsheetID,
		limiter:       rate.NewLimiter(rate.Every(config.RateWindow/time.Duration(config.RateLimit)), config.RateLimit),
		logger:        config.Logger,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// SheetID resolves a sheet title to its numeric id. Results are cached.
func (c *Client) SheetID(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[title]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	spreadsheet, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil {
			continue
		}
		c.sheetIDs[sheet.Properties.Title] = sheet.Properties.SheetId
	}

	id, ok = c.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", title)
	}
	return id, nil
}

// AppendRows appends rows after the last non-empty row of sheetTitle in one
// batch update. Cells wrap their text.
func (c *Client) AppendRows(ctx context.Context, sheetTitle string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	sheetID, err := c.SheetID(ctx, sheetTitle)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	request := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AppendCells: &gsheets.AppendCellsRequest{
				SheetId: sheetID,
				Fields:  "userEnteredValue,userEnteredFormat",
				Rows:    rowData(rows),
				// The first sheet has id 0, which omitempty would drop.
				ForceSendFields: []string{"SheetId"},
			},
		}},
	}

	_, err = c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, request).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append %d rows: %w", len(rows), err)
	}

	c.logger.WithFields(logrus.Fields{
		"sheet": sheetTitle,
		"rows":  len(rows),
	}).Debug("Appended rows to sheet")

	return nil
}

// LoadColumn reads every non-empty value of one column, e.g. "A".
func (c *Client) LoadColumn(ctx context.Context, sheetTitle, column string, skipHeader bool) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	readRange := fmt.Sprintf("%s!%s:%s", sheetTitle, column, column)
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", readRange, err)
	}

	var values []string
	for i, row := range resp.Values {
		if i == 0 && skipHeader {
			continue
		}
		if len(row) == 0 {
			continue
		}
		value := strings.TrimSpace(fmt.Sprint(row[0]))
		if value != "" {
			values = append(values, value)
		}
	}
	return values, nil
}

func rowData(rows []Row) []*gsheets.RowData {
	data := make([]*gsheets.RowData, 0, len(rows))
	for _, row := range rows {
		cells := make([]*gsheets.CellData, 0, len(row.Cells))
		for _, text := range row.Cells {
			value := text
			cells = append(cells, &gsheets.CellData{
				UserEnteredValue: &gsheets.ExtendedValue{StringValue: &value},
				UserEnteredFormat: &gsheets.CellFormat{
					WrapStrategy: "WRAP",
					TextFormat:   &gsheets.TextFormat{Bold: row.Bold},
				},
			})
		}
		data = append(data, &gsheets.RowData{Values: cells})
	}
	return data
}
