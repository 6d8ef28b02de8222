package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"filing-service/internal/codebook"
	"filing-service/internal/config"
	"filing-service/internal/filing"
	"filing-service/internal/repository"
	"filing-service/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "filingctl",
	Short: "Preview and export VAT filings from the command line",
	Long: `filingctl builds the same VAT return (DPHDP3) and control statement
(DPHKH1) documents as the filing service, reading the service database
configured through the usual environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// environment is the wiring shared by the filing commands
type environment struct {
	cfg      *config.Config
	logger   *logrus.Logger
	invoices *repository.InvoiceRepository
	service  *services.ReportService
}

func newEnvironment() (*environment, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	location, _ := cfg.Location()
	rounding, _ := cfg.Rounding()

	logger := cfg.NewLogger()
	logger.SetOutput(os.Stderr)

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, err
	}

	builder := filing.NewBuilder(filing.Config{
		SoftwareName:    cfg.SoftwareName,
		SoftwareVersion: cfg.SoftwareVersion,
		Location:        location,
		Rounding:        rounding,
	})
	offices := codebook.NewProvider(codebook.NewSource(cfg.CodebookPath), logger)
	invoices := repository.NewInvoiceRepository(db)

	return &environment{
		cfg:      cfg,
		logger:   logger,
		invoices: invoices,
		service: services.NewReportService(
			repository.NewTaxpayerRepository(db, nil),
			invoices,
			offices,
			builder,
			rounding,
			logger,
		),
	}, nil
}
