package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/autom8ter/casewatch/kv/badger"
)

func main() {
	root := &cobra.Command{
		Use:   "casewatch",
		Short: "casewatch turns case document writes into domain events",
	}
	root.PersistentFlags().StringP("config", "c", "", "path to a yaml/json config file (defaults are used when empty)")
	root.PersistentFlags().StringP("output", "o", "json", "output format (json or yaml)")
	root.PersistentFlags().StringP("template", "t", "", "go template (sprig functions available) used to render the output")
	root.AddCommand(diffCmd(), detectCmd(), replayCmd(), serveCmd())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
