package main

import (
	"os"
	"time"

	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/firestore"
	"github.com/spf13/cobra"
)

func detectCmd() *cobra.Command {
	var (
		eventID    string
		documentID string
		dispatch   bool
	)
	cmd := &cobra.Command{
		Use:   "detect [payload.json]",
		Short: "detect the domain events of a document-written trigger payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cmd)
			if err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, errors.Validation, "failed to read %s", args[0])
			}
			event, err := firestore.ParseEvent(payload)
			if err != nil {
				return err
			}
			if documentID != "" {
				event.DocumentID = documentID
			}
			trigger := event.Trigger(eventID, time.Time{})
			if dispatch {
				events, err := svc.Handle(cmd.Context(), trigger)
				if err != nil {
					return err
				}
				return render(cmd, cmd.OutOrStdout(), envelopes(events))
			}
			change, events, err := svc.Detect(cmd.Context(), trigger)
			if err != nil {
				return err
			}
			return render(cmd, cmd.OutOrStdout(), map[string]any{
				"change": change,
				"events": envelopes(events),
			})
		},
	}
	cmd.Flags().StringVar(&eventID, "event-id", "", "id of the trigger event (generated when empty)")
	cmd.Flags().StringVar(&documentID, "id", "", "overrides the document id of the payload")
	cmd.Flags().BoolVar(&dispatch, "dispatch", false, "hand the detected events to the processors")
	return cmd
}
