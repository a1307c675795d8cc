package main

import (
	"fmt"
	"os"

	"site_stores_backend/internal/config"
	"site_stores_backend/internal/models"
	"site_stores_backend/internal/reports"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/internal/services"
	"site_stores_backend/pkg/utils"

	"github.com/spf13/cobra"
)

type exportFlags struct {
	out       string
	siteID    int64
	startDate string
	endDate   string
}

func (f exportFlags) site() *int64 {
	if f.siteID <= 0 {
		return nil
	}
	id := f.siteID
	return &id
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a report to an .xlsx file",
	}
	cmd.AddCommand(newExportStockCmd(), newExportTransactionsCmd())
	return cmd
}

func newExportStockCmd() *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Export the stock summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(_ *config.Config, store repositories.Store) error {
				rows, err := services.NewReportService(store).GetStockSummary(cmd.Context(), flags.site())
				if err != nil {
					return err
				}
				if err := writeFile(flags.out, func(f *os.File) error { return reports.WriteStockSummary(f, rows) }); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(rows), flags.out)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&flags.out, "out", "o", "stock_summary.xlsx", "Output file")
	cmd.Flags().Int64Var(&flags.siteID, "site", 0, "Limit to one site id")
	return cmd
}

func newExportTransactionsCmd() *cobra.Command {
	var flags exportFlags
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Export the transaction ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := utils.OptionalDate(flags.startDate, false)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := utils.OptionalDate(flags.endDate, true)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			filters := models.TransactionFilters{SiteID: flags.site(), Start: start, End: end}

			return withStore(cmd.Context(), func(_ *config.Config, store repositories.Store) error {
				rows, err := services.NewReportService(store).GetTransactionHistory(cmd.Context(), filters)
				if err != nil {
					return err
				}
				if err := writeFile(flags.out, func(f *os.File) error { return reports.WriteTransactionHistory(f, rows) }); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(rows), flags.out)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&flags.out, "out", "o", "transactions.xlsx", "Output file")
	cmd.Flags().Int64Var(&flags.siteID, "site", 0, "Limit to one site id")
	cmd.Flags().StringVar(&flags.startDate, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.endDate, "to", "", "Last day, YYYY-MM-DD (inclusive)")
	return cmd
}

func writeFile(path string, render func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
