// Package google mirrors transactions into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"budgettracker/internal/core"
	ports "budgettracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const lastColumn = "F"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger
}

var _ ports.TransactionMirror = (*Client)(nil)

// New creates a client authenticated with a service account key.
func New(ctx context.Context, spreadsheetID, sheetName string, credentialsJSON []byte) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}
	return NewWithOptions(ctx, spreadsheetID, sheetName,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a client with explicit API client options.
func NewWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, logger: slog.Default()}, nil
}

// SetLogger replaces the logger used for mirroring events.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}
	if row := rowOf(ids, t.ID); row > 0 {
		c.logger.DebugContext(ctx, "Transaction already mirrored", "id", t.ID, "row", row)
		return c.rowRange(row), nil
	}

	nextRow := len(ids) + 1
	if len(ids) == 0 {
		if err := c.update(ctx, 1, ports.Header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		nextRow = 2
	}

	if err := c.update(ctx, nextRow, ports.Row(t)); err != nil {
		return "", err
	}
	return c.rowRange(nextRow), nil
}

func (c *Client) ClearTransaction(ctx context.Context, id string) (bool, error) {
	if c.svc == nil {
		return false, errors.New("sheets service not initialized")
	}
	ids, err := c.readIDs(ctx)
	if err != nil {
		return false, err
	}
	row := rowOf(ids, id)
	if row <= 1 {
		return false, nil
	}

	rng := c.rowRange(row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("clear %s: %w", rng, err)
	}
	return true, nil
}

func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			out[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return out, nil
}

func (c *Client) update(ctx context.Context, row int, cells []string) error {
	rng := c.rowRange(row)
	values := make([]any, len(cells))
	for i, v := range cells {
		values[i] = v
	}
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
}

// rowOf returns the 1-based row holding id, or 0.
func rowOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i + 1
		}
	}
	return 0
}
