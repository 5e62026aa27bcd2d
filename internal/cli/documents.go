package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/criteria-extractor/internal/export"
	"github.com/joseph-ayodele/criteria-extractor/internal/pipeline"
	"github.com/joseph-ayodele/criteria-extractor/internal/textextract"
	"github.com/joseph-ayodele/criteria-extractor/internal/xls"
)

func newExtractXLSCommand(a *app) *cobra.Command {
	var (
		sel      xls.Selection
		codes    []string
		outPath  string
		xlsxPath string
	)
	cmd := &cobra.Command{
		Use:   "extract-xls <workbook>",
		Short: "Parse coded criteria from one column of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			req := xls.Request{Name: filepath.Base(args[0]), Data: data, Selection: sel}
			if cmd.Flags().Changed("codes") {
				req.Codes = codes
			}
			res, err := xls.NewService(nil, a.logger).Extract(cmd.Context(), req)
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				b, err := export.NewService(a.logger).RecordsXLSX(res.Records)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, b, 0o644); err != nil {
					return err
				}
			}
			return a.writeJSON(outPath, res.Envelope())
		},
	}
	f := cmd.Flags()
	f.StringVar(&sel.Sheet, "sheet", "", "sheet name")
	f.IntVar(&sel.SheetIndex, "sheet-index", 0, "1-based sheet index, wins over --sheet when above 1")
	f.StringVar(&sel.Column, "column", "A", "column letter")
	f.IntVar(&sel.RowStart, "row-start", 0, "first row, 1-based (0 = first)")
	f.IntVar(&sel.RowEnd, "row-end", 0, "last row, inclusive (0 = last)")
	f.StringSliceVar(&codes, "codes", nil, "keep only these codes")
	f.StringVarP(&outPath, "out", "o", "", "write the JSON here instead of stdout")
	f.StringVar(&xlsxPath, "xlsx", "", "also write the table as XLSX")
	return cmd
}

func newInferCommand(a *app) *cobra.Command {
	var outPath, xlsxPath string
	cmd := &cobra.Command{
		Use:   "infer <document>",
		Short: "Ask the model for the criteria in a PDF, DOCX or XLSX document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.openAI()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			svc := pipeline.NewInferService(textextract.NewExtractor(a.logger), client, a.logger)
			res := svc.Run(cmd.Context(), filepath.Base(args[0]), data)
			a.printWarnings(res.Warnings)

			if xlsxPath != "" {
				b, err := export.NewService(a.logger).CriteriaXLSX(res.Criteria)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, b, 0o644); err != nil {
					return err
				}
			}
			return a.writeJSON(outPath, res.Criteria)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the JSON here instead of stdout")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the table as XLSX")
	return cmd
}

func newMatchCommand(a *app) *cobra.Command {
	var criteriaPath, outPath, xlsxPath string
	cmd := &cobra.Command{
		Use:   "match <document>",
		Short: "Answer a criteria list from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.openAI()
			if err != nil {
				return err
			}
			criteria, err := os.ReadFile(criteriaPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			svc := pipeline.NewMatchService(textextract.NewExtractor(a.logger), client, a.logger)
			res := svc.Run(cmd.Context(), criteria, filepath.Base(args[0]), data)
			a.printWarnings(res.Warnings)

			if xlsxPath != "" {
				b, err := export.NewService(a.logger).MatchesXLSX(res.Matches)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, b, 0o644); err != nil {
					return err
				}
			}
			return a.writeJSON(outPath, res.Matches)
		},
	}
	cmd.Flags().StringVarP(&criteriaPath, "criteria", "c", "", "criteria JSON file (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the JSON here instead of stdout")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the table as XLSX")
	_ = cmd.MarkFlagRequired("criteria")
	return cmd
}

// writeJSON writes v indented to path, or to the command output when path is empty.
func (a *app) writeJSON(path string, v any) error {
	var w io.Writer = a.out
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	_, _ = fmt.Fprintf(a.errOut, "warnings:\n  - %s\n", strings.Join(warnings, "\n  - "))
}
