package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"spam-classifier/internal/artifact"
	"spam-classifier/internal/inference"
	"spam-classifier/internal/model"
)

var sampleEmails = []string{
	"Win a free iPhone! Click here to claim your prize now!",
	"Hey John, just checking if you're available for the meeting tomorrow.",
	"Congratulations! You have been selected for a $1000 Walmart gift card.",
	"Let's catch up this weekend for coffee!",
	"URGENT: Your bank account has been compromised! Click the link to secure it.",
}

func newSampleCommand(a *app) *cobra.Command {
	var artifacts string

	cmd := &cobra.Command{
		Use:   "sample [email...]",
		Short: "Print predictions of both saved models for a few emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			if artifacts == "" {
				artifacts = a.cfg.Artifacts.Dir
			}
			emails := args
			if len(emails) == 0 {
				emails = sampleEmails
			}

			bundle, _, err := artifact.Load(artifacts, model.Kinds...)
			if err != nil {
				return err
			}
			predictors := make([]*inference.Predictor, 0, len(model.Kinds))
			for _, kind := range model.Kinds {
				p, err := inference.New(bundle.Vectorizer, bundle.Models[kind])
				if err != nil {
					return err
				}
				predictors = append(predictors, p)
			}

			out := cmd.OutOrStdout()
			for _, email := range emails {
				fmt.Fprintf(out, "Email: %s\n", email)
				for _, p := range predictors {
					pred := p.Predict(email)
					fmt.Fprintf(out, "  %-4s %-4s (spam probability %.2f)\n", p.Kind(), pred.Label, pred.Probability)
				}
				fmt.Fprintln(out, strings.Repeat("-", 50))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&artifacts, "artifacts", "", "artifact directory (default artifacts.dir)")
	return cmd
}
