package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/urbanika/leadsync/internal/lead"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Show the configured pipeline's stages and the resolved new-lead stage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		client, err := newCRMClient()
		if err != nil {
			return err
		}

		resolver := lead.NewStageResolver(client, cfg.CRM.LocationID, cfg.CRM.PipelineID, lead.NewStageCache(), retryConfig())

		stages, err := resolver.ListStages(ctx)
		if err != nil {
			return eris.Wrap(err, "list stages")
		}
		newLeadID, err := resolver.ResolveNewLeadStageID(ctx)
		if err != nil {
			return eris.Wrap(err, "resolve new-lead stage")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "POSITION\tID\tNAME\t")
		for _, s := range stages {
			marker := ""
			if s.ID == newLeadID {
				marker = "← new lead"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Position, s.ID, s.Name, marker)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}
