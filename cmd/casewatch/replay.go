package main

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/autom8ter/casewatch"
	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/kv/registry"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [writes.ndjson]",
		Short: "replay document writes against the latest stored snapshots",
		Long: `replay reads one document write per line and runs every write through the service:

  {"id": "c1", "document": {...}}   replaces the document
  {"id": "c1", "merge": {...}}      merges the fields into the latest snapshot
  {"id": "c1", "document": null}    deletes the document`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := newService(cmd)
			if err != nil {
				return err
			}
			cfg := svc.Config()
			db, err := registry.Open(cfg.KV.Provider, cfg.KV.Params)
			if err != nil {
				return err
			}
			defer db.Close()
			store := casewatch.NewSnapshotStore(db)

			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, errors.Validation, "failed to open %s", args[0])
			}
			defer f.Close()
			scanner := bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			line := 0
			for scanner.Scan() {
				line++
				write := gjson.ParseBytes(scanner.Bytes())
				if !write.IsObject() {
					continue
				}
				documentID := write.Get("id").String()
				if documentID == "" {
					return errors.New(errors.Validation, "line %d: missing document id", line)
				}
				after, err := nextSnapshot(ctx, store, cfg.Collection, documentID, write)
				if err != nil {
					return errors.Wrap(err, 0, "line %d", line)
				}
				before, err := store.Swap(ctx, cfg.Collection, documentID, after)
				if err != nil {
					return err
				}
				events, err := svc.Handle(ctx, casewatch.DocumentTrigger(documentID, write.Get("eventId").String(), time.Now(), before, after))
				if err != nil {
					return errors.Wrap(err, 0, "line %d", line)
				}
				if len(events) == 0 {
					continue
				}
				if err := render(cmd, cmd.OutOrStdout(), envelopes(events)); err != nil {
					return err
				}
			}
			if err := scanner.Err(); err != nil {
				return errors.Wrap(err, errors.Validation, "failed to read %s", args[0])
			}
			if dump, _ := cmd.Flags().GetBool("dump"); dump {
				return dumpSnapshots(cmd, store, cfg.Collection)
			}
			return nil
		},
	}
	cmd.Flags().Bool("dump", false, "print the latest snapshot of every document once the writes are replayed")
	return cmd
}

func dumpSnapshots(cmd *cobra.Command, store *casewatch.SnapshotStore, collection string) error {
	snapshots := map[string]any{}
	if err := store.Range(cmd.Context(), collection, func(documentID string, doc *casewatch.Document) bool {
		snapshots[documentID] = doc.Value()
		return true
	}); err != nil {
		return err
	}
	return render(cmd, cmd.OutOrStdout(), snapshots)
}

// nextSnapshot returns the document a write leaves behind (nil when the write deletes it)
func nextSnapshot(ctx context.Context, store *casewatch.SnapshotStore, collection, documentID string, write gjson.Result) (*casewatch.Document, error) {
	if merge := write.Get("merge"); merge.IsObject() {
		with, err := casewatch.NewDocumentFromBytes([]byte(merge.Raw))
		if err != nil {
			return nil, err
		}
		latest, err := store.Get(ctx, collection, documentID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			latest = casewatch.NewDocument()
		}
		after := latest.Clone()
		if err := after.Merge(with); err != nil {
			return nil, err
		}
		return after, nil
	}
	if doc := write.Get("document"); doc.IsObject() {
		return casewatch.NewDocumentFromBytes([]byte(doc.Raw))
	}
	return nil, nil
}
