package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"spam-classifier/internal/apiclient"
)

func newAskCommand(a *app) *cobra.Command {
	var baseURL string
	var save bool

	cmd := &cobra.Command{
		Use:   "ask <text>",
		Short: "Classify text with a running service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = a.cfg.Client.BaseURL
			}
			client := apiclient.NewClient(baseURL, a.cfg.Client.Timeout)
			text := strings.Join(args, " ")

			resp, err := client.Predict(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Prediction)

			if save {
				msg, err := client.SavePrompt(cmd.Context(), text, resp.Prediction)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "service base URL (default client.base_url)")
	cmd.Flags().BoolVar(&save, "save", false, "store the text with its predicted class as a prompt")
	return cmd
}
