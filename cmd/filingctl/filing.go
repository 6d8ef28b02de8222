package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"filing-service/internal/models"
	"filing-service/internal/services"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the totals an export would contain",
	Example: `  filingctl preview --owner 6f1c... --type vat-return --period month --year 2024 --value 3
  filingctl preview --owner 6f1c... --type control-statement --period quarter --year 2024 --value 1`,
	RunE: runPreview,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filing XML document to disk",
	Example: `  filingctl export --owner 6f1c... --type vat-return --period month --year 2024 --value 3 --out ./filings`,
	RunE:    runExport,
}

func init() {
	for _, cmd := range []*cobra.Command{previewCmd, exportCmd} {
		cmd.Flags().String("owner", "", "Owner (user) ID")
		cmd.Flags().String("type", "vat-return", "Report type (vat-return, control-statement)")
		cmd.Flags().String("period", "month", "Period type (month, quarter)")
		cmd.Flags().Int("year", 0, "Filing year")
		cmd.Flags().Int("value", 0, "Month 1-12 or quarter 1-4")
		_ = cmd.MarkFlagRequired("owner")
		_ = cmd.MarkFlagRequired("year")
		_ = cmd.MarkFlagRequired("value")
		rootCmd.AddCommand(cmd)
	}
	exportCmd.Flags().String("out", ".", "Output directory")
}

// previewOutput adds the invoices a filing leaves out to the service preview
type previewOutput struct {
	*models.FilingPreview
	ExcludedInvoices map[models.InvoiceStatus]int64 `json:"excludedInvoices"`
}

func runPreview(cmd *cobra.Command, args []string) error {
	ownerID, req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	env, err := newEnvironment()
	if err != nil {
		return err
	}

	preview, err := env.service.Preview(cmd.Context(), ownerID, req)
	if err != nil {
		return err
	}

	period, err := services.ResolvePeriod(req)
	if err != nil {
		return err
	}
	counts, err := env.invoices.CountByStatus(cmd.Context(), ownerID, period.Start, period.EndExclusive)
	if err != nil {
		return err
	}
	excluded := map[models.InvoiceStatus]int64{}
	for status, n := range counts {
		if !isFileable(status) {
			excluded[status] = n
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(previewOutput{FilingPreview: preview, ExcludedInvoices: excluded})
}

func runExport(cmd *cobra.Command, args []string) error {
	ownerID, req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")

	env, err := newEnvironment()
	if err != nil {
		return err
	}

	export, err := env.service.Export(cmd.Context(), ownerID, req)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outDir, export.FileName)
	if err := os.WriteFile(path, []byte(export.Document), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (fingerprint %s)\n", path, export.DatasetFingerprint)
	return nil
}

func requestFromFlags(cmd *cobra.Command) (uuid.UUID, models.FilingRequest, error) {
	owner, _ := cmd.Flags().GetString("owner")
	reportType, _ := cmd.Flags().GetString("type")
	periodType, _ := cmd.Flags().GetString("period")
	year, _ := cmd.Flags().GetInt("year")
	value, _ := cmd.Flags().GetInt("value")

	ownerID, err := uuid.Parse(owner)
	if err != nil {
		return uuid.Nil, models.FilingRequest{}, fmt.Errorf("invalid --owner: %w", err)
	}
	rt, ok := models.ParseReportType(reportType)
	if !ok {
		return uuid.Nil, models.FilingRequest{}, fmt.Errorf("unknown report type %q", reportType)
	}
	pt, ok := models.ParsePeriodType(periodType)
	if !ok {
		return uuid.Nil, models.FilingRequest{}, fmt.Errorf("unknown period type %q", periodType)
	}

	return ownerID, models.FilingRequest{ReportType: rt, PeriodType: pt, Year: year, Value: value}, nil
}

func isFileable(status models.InvoiceStatus) bool {
	for _, s := range models.FileableStatuses {
		if s == status {
			return true
		}
	}
	return false
}
