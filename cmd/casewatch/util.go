package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/autom8ter/casewatch"
	"github.com/autom8ter/casewatch/errors"
	"github.com/autom8ter/casewatch/util"
	"github.com/spf13/cobra"
)

func loadConfig(cmd *cobra.Command) (casewatch.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return casewatch.DefaultConfig(), nil
	}
	bits, err := os.ReadFile(path)
	if err != nil {
		return casewatch.Config{}, errors.Wrap(err, errors.Validation, "failed to read config %s", path)
	}
	return casewatch.LoadConfig(bits)
}

// newService builds a service whose processors log the work they're handed
func newService(cmd *cobra.Command) (*casewatch.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := casewatch.NewLogger(cfg.LogLevel, map[string]any{"collection": cfg.Collection})
	if err != nil {
		return nil, err
	}
	return casewatch.New(cfg,
		casewatch.WithLogger(logger),
		casewatch.WithInputSourceProcessor(casewatch.InputSourceProcessorFunc(func(ctx context.Context, caseID, inputID string) error {
			logger.Info(ctx, "input source ready for transcription", map[string]any{
				"case_id":  caseID,
				"input_id": inputID,
			})
			return nil
		})),
		casewatch.WithContentRequestProcessor(casewatch.ContentRequestProcessorFunc(func(ctx context.Context, request casewatch.ContentRequestRef) error {
			logger.Info(ctx, "content request ready for generation", map[string]any{
				"case_id":    request.CaseID,
				"content_id": request.ContentID,
				"request_id": request.RequestID,
			})
			return nil
		})),
	)
}

// readValue reads a json snapshot from the file. "-" is an absent snapshot.
func readValue(path string) (casewatch.Value, error) {
	if path == "-" {
		return casewatch.Absent(), nil
	}
	bits, err := os.ReadFile(path)
	if err != nil {
		return casewatch.Value{}, errors.Wrap(err, errors.Validation, "failed to read %s", path)
	}
	var val casewatch.Value
	if err := json.Unmarshal(bits, &val); err != nil {
		return casewatch.Value{}, errors.Wrap(err, errors.Validation, "failed to decode %s", path)
	}
	return val, nil
}

// render writes the value to w as json, yaml or through the template
func render(cmd *cobra.Command, w io.Writer, value any) error {
	output, _ := cmd.Flags().GetString("output")
	tmpl, _ := cmd.Flags().GetString("template")
	bits, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.Internal, "failed to encode output")
	}
	if tmpl != "" {
		t, err := template.New("output").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
		if err != nil {
			return errors.Wrap(err, errors.Validation, "invalid template")
		}
		var data any
		if err := json.Unmarshal(bits, &data); err != nil {
			return errors.Wrap(err, errors.Internal, "failed to encode output")
		}
		if err := t.Execute(w, data); err != nil {
			return errors.Wrap(err, errors.Validation, "failed to render template")
		}
		_, err = fmt.Fprintln(w)
		return err
	}
	switch output {
	case "yaml":
		yml, err := util.JSONToYAML(bits)
		if err != nil {
			return errors.Wrap(err, errors.Internal, "failed to encode output")
		}
		_, err = w.Write(yml)
		return err
	case "json", "":
		_, err = fmt.Fprintln(w, util.PrettyJSONString(value))
		return err
	default:
		return errors.New(errors.Validation, "unsupported output format: %s", output)
	}
}

func envelopes(events []casewatch.DomainEvent) []casewatch.EventEnvelope {
	result := make([]casewatch.EventEnvelope, 0, len(events))
	for _, e := range events {
		result = append(result, casewatch.Envelope(e))
	}
	return result
}
