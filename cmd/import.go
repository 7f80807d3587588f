package main

import (
	"encoding/csv"
	"io"
	"os"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urbanika/leadsync/internal/lead"
)

var (
	importCSVPath     string
	importConcurrency int
	importDryRun      bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import leads from a CSV file",
	Long: `Reads a CSV with header
  first_name,last_name,email,phone,message,inquiry_type
and submits each row through the full lead pipeline. Rows failing validation
are skipped and reported; CRM failures do not stop the remaining rows.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		forms, err := parseLeadCSV(importCSVPath)
		if err != nil {
			return eris.Wrap(err, "import: parse csv")
		}
		zap.L().Info("parsed csv", zap.Int("leads", len(forms)), zap.String("csv", importCSVPath))

		if importDryRun {
			return nil
		}

		env, err := initLead(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var submitted, invalid, failed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(importConcurrency)
		for i, form := range forms {
			g.Go(func() error {
				req, v := env.Mapper.MapGeneralContact(form)
				if !v.Valid {
					invalid.Add(1)
					zap.L().Warn("skipping invalid row",
						zap.Int("row", i+2), // header is row 1
						zap.Strings("errors", v.Errors),
					)
					return nil
				}
				req.Source = "Importación CSV"

				if _, err := env.Orchestrator.Submit(gctx, req); err != nil {
					failed.Add(1)
					zap.L().Error("row submission failed",
						zap.Int("row", i+2),
						zap.String("email", req.Email),
						zap.Error(err),
					)
					return nil
				}
				submitted.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int64("submitted", submitted.Load()),
			zap.Int64("invalid", invalid.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

// parseLeadCSV reads the lead CSV into general-contact forms, matching
// columns by header name so column order does not matter.
func parseLeadCSV(path string) ([]lead.GeneralContactForm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var forms []lead.GeneralContactForm
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read record")
		}
		forms = append(forms, lead.GeneralContactForm{
			FirstName:   field(record, "first_name"),
			LastName:    field(record, "last_name"),
			Email:       field(record, "email"),
			Phone:       field(record, "phone"),
			Message:     field(record, "message"),
			InquiryType: field(record, "inquiry_type"),
		})
	}
	return forms, nil
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 4, "concurrent submissions")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse CSV only, no submissions")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
