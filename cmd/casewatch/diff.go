package main

import (
	"time"

	"github.com/autom8ter/casewatch"
	"github.com/autom8ter/casewatch/jsondiff"
	"github.com/spf13/cobra"
)

func diffCmd() *cobra.Command {
	var (
		documentID string
		ops        bool
		patch      bool
	)
	cmd := &cobra.Command{
		Use:   "diff [before.json] [after.json]",
		Short: "print the change tree between two json snapshots (- is an absent snapshot)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			before, err := readValue(args[0])
			if err != nil {
				return err
			}
			after, err := readValue(args[1])
			if err != nil {
				return err
			}
			change := casewatch.NewClassifier(cfg.MaxDepth).BuildDocumentChange(documentID, "", time.Now(), before, after)
			if patch {
				return render(cmd, cmd.OutOrStdout(), jsondiff.FromChange(change))
			}
			if ops {
				return render(cmd, cmd.OutOrStdout(), change.Ops())
			}
			return render(cmd, cmd.OutOrStdout(), change)
		},
	}
	cmd.Flags().StringVar(&documentID, "id", "", "id of the document")
	cmd.Flags().BoolVar(&patch, "patch", false, "print the change as a json patch (rfc 6902)")
	cmd.Flags().BoolVar(&ops, "ops", false, "print the flat list of changed leaf paths instead of the tree")
	return cmd
}
