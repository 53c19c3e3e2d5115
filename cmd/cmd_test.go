package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notion2mf/internal/auth"
	"notion2mf/internal/invoice"
	"notion2mf/internal/ledger"
	"notion2mf/internal/moneyforward"
	"notion2mf/internal/notion"
	"notion2mf/internal/output"
	"notion2mf/internal/sheets"
	"notion2mf/pkg/models"
)

func TestExportFormat(t *testing.T) {
	tests := []struct {
		format  string
		path    string
		want    string
		wantErr bool
	}{
		{path: "out.json", want: "json"},
		{path: "out.XLSX", want: "xlsx"},
		{path: "out", want: "json"},
		{format: "xlsx", path: "out.json", want: "xlsx"},
		{format: "JSON", path: "out.xlsx", want: "json"},
		{format: "csv", path: "out.csv", wantErr: true},
	}

	for _, tt := range tests {
		got, err := exportFormat(tt.format, tt.path)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.format, tt.path)
	}
}

func TestHandleExportError(t *testing.T) {
	log := zerolog.Nop()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "Unauthorized",
			err:  fmt.Errorf("FetchProjects: %w", &notion.APIError{StatusCode: http.StatusUnauthorized}),
			want: "NOTION_API_KEY",
		},
		{
			name: "DatabaseNotFound",
			err:  &notion.APIError{StatusCode: http.StatusNotFound, Code: "object_not_found"},
			want: "NOTION_DATABASE_ID",
		},
		{
			name: "InvalidProject",
			err:  &invoice.ValidationError{Subject: "Draft", Violations: []string{"amount is not set"}},
			want: "--skip-errors",
		},
		{
			name: "MissingGoogleCredentials",
			err:  fmt.Errorf("NewSheetsService: %w", sheets.ErrNoCredentials),
			want: "GOOGLE_APPLICATION_CREDENTIALS",
		},
		{
			name: "Canceled",
			err:  context.Canceled,
			want: "キャンセル",
		},
		{
			name: "Other",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, handleExportError(tt.err, log), tt.want)
		})
	}
}

func TestHandleSubmitError(t *testing.T) {
	log := zerolog.Nop()

	err := handleSubmitError(&moneyforward.APIError{StatusCode: http.StatusUnauthorized}, log)
	assert.ErrorContains(t, err, "notion2mf auth")

	err = handleSubmitError(fmt.Errorf("CreateInvoice: %w", moneyforward.ErrUnsupportedTaxRate), log)
	assert.ErrorContains(t, err, "INVOICE_TAX_RATE")

	cause := &moneyforward.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "partner not found"}
	err = handleSubmitError(cause, log)
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "partner not found")
}

func TestHandleAuthError(t *testing.T) {
	log := zerolog.Nop()

	assert.ErrorContains(t, handleAuthError(auth.ErrAuthTimeout, auth.DefaultTimeout, log), "5m0s")
	assert.ErrorContains(t, handleAuthError(auth.ErrStateMismatch, auth.DefaultTimeout, log), "state")
	assert.EqualError(t, handleAuthError(errors.New("exchange failed"), auth.DefaultTimeout, log), "認証エラー: exchange failed")
}

func TestHandleMappingError(t *testing.T) {
	err := handleMappingError(&invoice.ValidationError{
		Subject:    "Draft",
		Violations: []string{"amount is not set", "end date is not set"},
	}, zerolog.Nop())
	assert.EqualError(t, err, "案件「Draft」は請求書に変換できません: amount is not set; end date is not set")
}

func TestProjectLabel(t *testing.T) {
	amount := decimal.NewFromInt(120000)
	p := &models.TrainingProject{Title: "Leadership", Amount: &amount, CustomerName: "Acme"}
	assert.Equal(t, "3. Leadership - 120,000円 (Acme)", projectLabel(2, p))

	p.CustomerName = ""
	assert.Equal(t, "1. Leadership - 120,000円", projectLabel(0, p))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "notion2mf version "+version)
}

func TestCommandsRequireConfig(t *testing.T) {
	_, err := newNotionClient(zerolog.Nop())
	assert.ErrorIs(t, err, errNotConfigured)

	_, err = newAuthenticator(zerolog.Nop())
	assert.ErrorIs(t, err, errNotConfigured)
}

type fakeRecorder struct {
	runID     string
	billingID string
	err       error
}

func (f *fakeRecorder) Record(_ context.Context, runID string, _ *models.Invoice, billingID string) (*ledger.Submission, error) {
	f.runID, f.billingID = runID, billingID
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.Submission{RunID: runID, BillingID: billingID}, nil
}

func TestRecordSubmission(t *testing.T) {
	var buf bytes.Buffer
	saved := console
	console = output.NewConsole(&buf)
	t.Cleanup(func() { console = saved })

	runID := uuid.New().String()
	inv := &models.Invoice{ProjectName: "Kickoff", SourceID: "p1"}

	rec := &fakeRecorder{}
	recordSubmission(context.Background(), rec, runID, inv, "mf-1")
	assert.Equal(t, runID, rec.runID)
	assert.Equal(t, "mf-1", rec.billingID)
	assert.Empty(t, buf.String())

	rec = &fakeRecorder{err: errors.New("db error")}
	recordSubmission(context.Background(), rec, runID, inv, "mf-1")
	assert.Contains(t, buf.String(), "台帳への記録に失敗しました: db error")
}
