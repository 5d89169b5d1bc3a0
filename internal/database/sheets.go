package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/HammerMeetNail/conversando/internal/config"
)

// ErrPermissionDenied is returned when the service account cannot read the
// spreadsheet.
var ErrPermissionDenied = errors.New("spreadsheet permission denied")

// SheetsDB reads value ranges from a single spreadsheet.
type SheetsDB struct {
	Service       *sheets.Service
	SpreadsheetID string
}

var (
	newSheetsService = sheets.NewService
	getValues        = func(ctx context.Context, svc *sheets.Service, spreadsheetID, readRange string) (*sheets.ValueRange, error) {
		return svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	}
	getSpreadsheet = func(ctx context.Context, svc *sheets.Service, spreadsheetID string) error {
		_, err := svc.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
		return err
	}
)

func NewSheetsDB(ctx context.Context, cfg config.SheetsConfig) (*SheetsDB, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	jwtConfig := &jwt.Config{
		Email:        cfg.ClientEmail,
		PrivateKey:   []byte(cfg.PrivateKey),
		PrivateKeyID: cfg.PrivateKeyID,
		Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
		TokenURL:     cfg.TokenURL,
	}

	svc, err := newSheetsService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsDB{Service: svc, SpreadsheetID: cfg.SpreadsheetID}, nil
}

// ReadRange returns every row of readRange with cells rendered as strings.
// Rows keep the ragged shape the API returns; trailing empty cells are absent.
func (s *SheetsDB) ReadRange(ctx context.Context, readRange string) ([][]string, error) {
	vr, err := getValues(ctx, s.Service, s.SpreadsheetID, readRange)
	if err != nil {
		return nil, fmt.Errorf("reading range %q: %w", readRange, classifySheetsError(err))
	}
	if vr == nil {
		return nil, nil
	}

	rows := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			if cell != nil {
				row[i] = fmt.Sprint(cell)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SheetsDB) Health(ctx context.Context) error {
	if err := getSpreadsheet(ctx, s.Service, s.SpreadsheetID); err != nil {
		return classifySheetsError(err)
	}
	return nil
}

func classifySheetsError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusUnauthorized) {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return err
}
