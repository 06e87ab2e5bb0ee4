package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spam-classifier/internal/model"
	"spam-classifier/internal/pipeline"
)

func newTrainCommand(a *app) *cobra.Command {
	var data, artifacts string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Split, vectorize, balance and train both models, then save the artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" {
				data = a.cfg.Data.CleanPath
			}
			if artifacts == "" {
				artifacts = a.cfg.Artifacts.Dir
			}
			result, err := pipeline.Train(cmd.Context(), data, artifacts, a.cfg.Training, a.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Artifacts %s saved to %s\n", result.Manifest.Version, artifacts)
			for _, kind := range model.Kinds {
				fmt.Fprintf(out, "%s held-out accuracy: %.4f\n", kind, result.HeldOut[kind].Accuracy)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "training CSV (default data.clean_path)")
	cmd.Flags().StringVar(&artifacts, "artifacts", "", "artifact directory (default artifacts.dir)")
	return cmd
}

func newEvaluateCommand(a *app) *cobra.Command {
	var data, artifacts, reports string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the saved models on the recorded held-out partition and write reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" {
				data = a.cfg.Data.CleanPath
			}
			if artifacts == "" {
				artifacts = a.cfg.Artifacts.Dir
			}
			if reports == "" {
				reports = a.cfg.Reports.Dir
			}
			results, err := pipeline.Evaluate(data, artifacts, reports, a.logger)
			if err != nil {
				return err
			}
			for _, kind := range model.Kinds {
				report := results[kind]
				if err := report.WriteText(cmd.OutOrStdout()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "dataset CSV used for training (default data.clean_path)")
	cmd.Flags().StringVar(&artifacts, "artifacts", "", "artifact directory (default artifacts.dir)")
	cmd.Flags().StringVar(&reports, "reports", "", "report directory (default reports.dir)")
	return cmd
}
