package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/steamlink/deeplink"
)

type classifyLine struct {
	URL string `json:"url"`
	deeplink.Classification
	Injectable bool `json:"injectable"`
}

func newClassifyCmd(a *app) *cobra.Command {
	var injectable bool
	cmd := &cobra.Command{
		Use:   "classify <url>...",
		Short: "Print the classification and deep link of each URL as JSON lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classify := deeplink.Classify
			if injectable {
				classify = deeplink.ClassifyInjectable
			}
			enc := json.NewEncoder(a.stdout)
			for _, raw := range args {
				c := classify(raw)
				if err := enc.Encode(classifyLine{URL: raw, Classification: c, Injectable: c.Injectable()}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&injectable, "injectable", false, "use the in-page rules: generic store and community pages are not applicable")
	return cmd
}
