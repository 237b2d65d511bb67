package main

import (
	"os"
	"os/signal"
	"syscall"

	transport "github.com/autom8ter/casewatch/transport/http"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the trigger endpoint & the event feed over http",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd)
			if err != nil {
				return err
			}
			if port == 0 {
				port = svc.Config().HTTP.Port
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return transport.New(svc).Serve(ctx, port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to serve on (overrides the config)")
	return cmd
}
