package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/giygas/diagnostic-api/diagnostic"
	"github.com/giygas/diagnostic-api/interfaces"
	"github.com/giygas/diagnostic-api/knowledgebase"
	"github.com/giygas/diagnostic-api/validation"
	"github.com/spf13/cobra"
)

const defaultKnowledgeBasePath = "files/knowledge-base.json"

var errKnowledgeBaseInvalid = errors.New("knowledge base has blocking issues")

func diagnoseCmd() *cobra.Command {
	var (
		kbPath  string
		asJSON  bool
		maxRows int
	)
	cmd := &cobra.Command{
		Use:   "diagnose SYMPTOM_ID...",
		Short: "Score symptom ids against a knowledge base file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := knowledgebase.LoadFile(kbPath)
			if err != nil {
				return err
			}

			ids, err := validation.NewDataValidator().ValidateSymptomIDs(splitIDs(args))
			if err != nil {
				return err
			}

			opts := diagnostic.DefaultOptions()
			opts.CacheSize = 0
			if maxRows > 0 {
				opts.MaxResults = maxRows
			}
			report, err := diagnostic.Diagnose(kb, ids, nil, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printReport(out, report)
		},
	}
	cmd.Flags().StringVar(&kbPath, "kb", defaultKnowledgeBasePath, "Knowledge base file (JSON or YAML)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	cmd.Flags().IntVar(&maxRows, "max", 0, "Override the maximum number of results")
	return cmd
}

// splitIDs accepts both "a b" and "a,b".
func splitIDs(args []string) []string {
	var ids []string
	for _, arg := range args {
		ids = append(ids, strings.Split(arg, ",")...)
	}
	return ids
}

func printReport(out io.Writer, report *diagnostic.Report) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATHOLOGY\tNAME\tCONFIDENCE\tURGENCY\tTYPE")
	for _, r := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\t%s\n", r.PathologyID, r.PathologyName, r.Confidence, r.Urgency, r.AnalysisType)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, p := range report.Patterns.Patterns {
		fmt.Fprintf(out, "pattern: %s (%s)\n", p.Name, strings.Join(p.Symptoms, ", "))
	}
	return nil
}

func kbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Knowledge base maintenance",
	}
	cmd.AddCommand(kbValidateCmd())
	return cmd
}

func kbValidateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check a knowledge base file for structural and referential problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultKnowledgeBasePath
			if len(args) == 1 {
				path = args[0]
			}

			kb, err := knowledgebase.LoadFile(path)
			if err != nil {
				return err
			}

			validator := validation.NewDataValidator()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d symptoms, %d pathologies, %d product kits\n",
				path, len(kb.Symptoms), len(kb.Pathologies), len(kb.ProductKits))

			invalid := 0
			for i := range kb.Pathologies {
				if err := validator.ValidatePathology(&kb.Pathologies[i]); err != nil {
					invalid++
					fmt.Fprintf(out, "invalid pathology %s: %v\n", kb.Pathologies[i].ID, err)
				}
			}

			report := validator.ReportDataQuality(kb)
			printQualityReport(out, report)

			blocking := invalid > 0 || len(report.DuplicateSymptomIDs) > 0 || len(report.DuplicatePathologyIDs) > 0
			if strict {
				blocking = blocking || len(report.UnknownSymptomReferences) > 0 || len(report.DanglingProductKits) > 0
			}
			if blocking {
				return errKnowledgeBaseInvalid
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat dangling references as errors")
	return cmd
}

func printQualityReport(out io.Writer, report *interfaces.DataQualityReport) {
	lists := []struct {
		label string
		items []string
	}{
		{"duplicate symptom ids", report.DuplicateSymptomIDs},
		{"duplicate pathology ids", report.DuplicatePathologyIDs},
		{"pathologies without symptoms", report.PathologiesWithoutSymptoms},
		{"unknown symptom references", report.UnknownSymptomReferences},
		{"dangling product kits", report.DanglingProductKits},
	}
	for _, l := range lists {
		if len(l.items) > 0 {
			fmt.Fprintf(out, "%s: %s\n", l.label, strings.Join(l.items, ", "))
		}
	}
	if report.UnreferencedSymptoms > 0 {
		fmt.Fprintf(out, "unreferenced symptoms: %d\n", report.UnreferencedSymptoms)
	}
	if report.SymptomsWithoutCategory > 0 {
		fmt.Fprintf(out, "symptoms without category: %d\n", report.SymptomsWithoutCategory)
	}
}
