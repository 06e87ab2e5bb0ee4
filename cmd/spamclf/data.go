package main

import (
	"github.com/spf13/cobra"

	"spam-classifier/internal/dataset"
	"spam-classifier/internal/pipeline"
)

func newPreprocessCommand(a *app) *cobra.Command {
	var in, out string
	var dedupe bool

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Clean the raw corpus and write text,label_num",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				in = a.cfg.Data.RawPath
			}
			if out == "" {
				out = a.cfg.Data.CleanPath
			}
			_, err := pipeline.Preprocess(in, out, dedupe, a.logger)
			return err
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "raw CSV (default data.raw_path)")
	cmd.Flags().StringVar(&out, "out", "", "cleaned CSV (default data.clean_path)")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "drop rows whose cleaned text repeats")
	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print row count, missing texts and label distribution of a CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				in = a.cfg.Data.CleanPath
			}
			records, err := dataset.LoadCSV(in)
			if err != nil {
				return err
			}
			return dataset.Summarize(records).Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "CSV to summarise (default data.clean_path)")
	return cmd
}

func newBalanceCommand(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Oversample the corpus with SMOTE and write reconstructed texts for inspection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				in = a.cfg.Data.CleanPath
			}
			if out == "" {
				out = a.cfg.Data.BalancedPath
			}
			_, err := pipeline.BalanceDataset(in, out, a.cfg.Training.Balance, a.logger)
			return err
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "cleaned CSV (default data.clean_path)")
	cmd.Flags().StringVar(&out, "out", "", "balanced CSV (default data.balanced_path)")
	return cmd
}
