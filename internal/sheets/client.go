package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// Client implements Spreadsheet on top of the Google Sheets v4 API.
type Client struct {
	service       *sheets.Service
	logger        *slog.Logger
	spreadsheetID string
}

// NewClient authenticates against Google and returns a client bound to the configured spreadsheet.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewClientFromService(service, config.SpreadsheetID, logger), nil
}

// NewClientFromService wraps an already configured Sheets service.
func NewClientFromService(service *sheets.Service, spreadsheetID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger.With("component", "sheets", "spreadsheet_id", spreadsheetID),
	}
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.UsesOAuth() {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	} else {
		jsonKey, err := config.ServiceAccountJSON()
		if err != nil {
			return nil, err
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// Worksheets implements Spreadsheet.
func (c *Client) Worksheets(ctx context.Context) ([]Worksheet, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to access spreadsheet %s: %w", c.spreadsheetID, err)
	}

	worksheets := make([]Worksheet, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil {
			continue
		}
		ws := Worksheet{
			Title:   sheet.Properties.Title,
			SheetID: sheet.Properties.SheetId,
			Index:   sheet.Properties.Index,
		}
		if grid := sheet.Properties.GridProperties; grid != nil {
			ws.RowCount = grid.RowCount
			ws.ColumnCount = grid.ColumnCount
		}
		worksheets = append(worksheets, ws)
	}

	c.logger.Debug("listed worksheets", "count", len(worksheets))
	return worksheets, nil
}

// AppendRows implements Spreadsheet.
func (c *Client) AppendRows(ctx context.Context, ws Worksheet, count int64) error {
	if count <= 0 {
		return nil
	}

	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AppendDimension: &sheets.AppendDimensionRequest{
					SheetId:   ws.SheetID,
					Dimension: "ROWS",
					Length:    count,
				},
			},
		},
	}

	_, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, request).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append %d rows to %s: %w", count, ws.Title, err)
	}

	c.logger.Debug("appended rows", "worksheet", ws.Title, "rows", count)
	return nil
}

// Clear implements Spreadsheet.
func (c *Client) Clear(ctx context.Context, rng CellRange) error {
	_, err := c.service.Spreadsheets.Values.Clear(c.spreadsheetID, rng.A1(), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", rng.A1(), err)
	}
	return nil
}

// Update implements Spreadsheet.
func (c *Client) Update(ctx context.Context, rng CellRange, values [][]any) error {
	valueRange := &sheets.ValueRange{
		Range:  rng.A1(),
		Values: values,
	}

	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, rng.A1(), valueRange).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", rng.A1(), err)
	}

	c.logger.Debug("wrote range", "range", rng.A1(), "rows", len(values))
	return nil
}

// BatchUpdate implements Spreadsheet.
func (c *Client) BatchUpdate(ctx context.Context, data []ValueRange) error {
	request := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             make([]*sheets.ValueRange, 0, len(data)),
	}
	for _, d := range data {
		request.Data = append(request.Data, &sheets.ValueRange{
			Range:  d.Range.A1(),
			Values: d.Values,
		})
	}

	_, err := c.service.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, request).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to batch update %d ranges: %w", len(data), err)
	}
	return nil
}

// Ensure Client implements the Spreadsheet interface.
var _ Spreadsheet = (*Client)(nil)
