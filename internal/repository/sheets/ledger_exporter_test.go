package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/rental/internal/config"
	"github.com/mamadbah2/rental/internal/domain/models"
)

func TestExportRentRecords(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		got      sheetsapi.ValueRange
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	}))
	defer server.Close()

	exporter, err := NewLedgerExporterWithOptions(context.Background(),
		config.SheetsConfig{SpreadsheetID: "sheet-1", LedgerRange: "Rent!A:I"}, nil,
		option.WithEndpoint(server.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	err = exporter.ExportRentRecords(context.Background(), []models.RentRecord{
		{PropertyID: "p1", UnitID: "u1", UnitNumber: "101", TenantID: "t1", Period: "2024-03", BaseRent: 12000, Status: models.RentPending, DueDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{PropertyID: "p1", UnitID: "u2", UnitNumber: "102", TenantID: "t2", Period: "2024-03", BaseRent: 9000, Status: models.RentPending, DueDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-1/values/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	require.Len(t, got.Values, 2)
	assert.Equal(t, "2024-03", got.Values[0][0])
	assert.Equal(t, "2024-03-10", got.Values[1][8])
}

func TestExportNothing(t *testing.T) {
	exporter := &LedgerExporter{}
	assert.NoError(t, exporter.ExportRentRecords(context.Background(), nil))
}

func TestNewLedgerExporterRequiresSheet(t *testing.T) {
	_, err := NewLedgerExporterWithOptions(context.Background(), config.SheetsConfig{}, nil, option.WithoutAuthentication())
	assert.Error(t, err)
}
