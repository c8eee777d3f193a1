package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/wellness-admin-console/internal/service"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

func newResourcesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources the console manages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := out(cmd)
			fmt.Fprintf(w, "%-18s  %-22s  %-12s  %s\n", "NAME", "PATH", "TOGGLE", "ACTIONS")
			for _, d := range service.Resources() {
				fmt.Fprintf(w, "%-18s  %-22s  %-12s  %s\n", d.Name, d.BasePath, d.ToggleField, strings.Join(d.Actions, ","))
			}
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.resource(args[0])
			if err != nil {
				return err
			}
			result := b.Documents.GetByID(cmd.Context(), args[1])
			if !result.OK() {
				return failure(cmd, result.Err())
			}
			return printJSON(out(cmd), result.Raw())
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create <resource> --data <json|@file>",
		Short: "Create a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.resource(args[0])
			if err != nil {
				return err
			}
			payload, err := readObject(data)
			if err != nil {
				return err
			}
			result := b.Documents.Create(cmd.Context(), payload)
			if !result.OK() {
				return failure(cmd, result.Err())
			}
			return printJSON(out(cmd), result.Raw())
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Record payload as JSON, or @path to read it from a file")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "update <resource> <id> --data <json|@file>",
		Short: "Update a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.resource(args[0])
			if err != nil {
				return err
			}
			payload, err := readObject(data)
			if err != nil {
				return err
			}
			result := b.Documents.Update(cmd.Context(), args[1], payload)
			if !result.OK() {
				return failure(cmd, result.Err())
			}
			return printJSON(out(cmd), result.Raw())
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Fields to change as JSON, or @path to read them from a file")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.resource(args[0])
			if err != nil {
				return err
			}
			if result := b.Documents.Delete(cmd.Context(), args[1]); !result.OK() {
				return failure(cmd, result.Err())
			}
			fmt.Fprintf(out(cmd), "deleted %s %s\n", args[0], args[1])
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <resource> <id>",
		Short: "Restore a soft-deleted record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.resource(args[0])
			if err != nil {
				return err
			}
			if !b.Supports("restore") {
				return fmt.Errorf("%s cannot be restored", b.Name)
			}
			if result := b.Action(cmd.Context(), args[1], "restore", nil); !result.OK() {
				return failure(cmd, result.Err())
			}
			fmt.Fprintf(out(cmd), "restored %s %s\n", b.Name, args[1])
			return nil
		},
	}
}

func newToggleCmd(a *app) *cobra.Command {
	var current bool
	cmd := &cobra.Command{
		Use:   "toggle <resource> <id> --current=<bool>",
		Short: "Flip a record's toggle field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.resource(args[0])
			if err != nil {
				return err
			}
			toggle := b.Toggle()
			if toggle == nil {
				return fmt.Errorf("%s has no toggle", b.Name)
			}
			if result := toggle(cmd.Context(), args[1]); !result.OK() {
				return failure(cmd, result.Err())
			}
			fmt.Fprintf(out(cmd), "%s %s: %s=%t\n", b.Name, args[1], b.ToggleField, !current)
			return nil
		},
	}
	cmd.Flags().BoolVar(&current, "current", false, "Value of the toggle field before flipping")
	_ = cmd.MarkFlagRequired("current")
	return cmd
}

func newActionCmd(a *app) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "action <resource> <id> <action>",
		Short: "Run an entity action such as approve, reject, cancel or revoke",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.resource(args[0])
			if err != nil {
				return err
			}
			action := strings.ToLower(args[2])
			if !b.Supports(action) {
				return fmt.Errorf("%s does not support %s", b.Name, action)
			}
			var payload any
			if data != "" {
				raw, err := readRaw(data)
				if err != nil {
					return err
				}
				payload = raw
			}
			result := b.Action(cmd.Context(), args[1], action, payload)
			if !result.OK() {
				return failure(cmd, result.Err())
			}
			if len(result.Raw()) == 0 {
				fmt.Fprintf(out(cmd), "%s %s: %s ok\n", b.Name, args[1], action)
				return nil
			}
			return printJSON(out(cmd), result.Raw())
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Action payload as JSON, or @path to read it from a file")
	return cmd
}

func (a *app) resource(name string) (*service.Binding, error) {
	desc, ok := service.LookupResource(name)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (one of: %s)", name, strings.Join(service.ResourceNames(), ", "))
	}
	client, err := a.apiClient()
	if err != nil {
		return nil, err
	}
	return desc.Bind(client), nil
}

// failure prints field errors to stderr and returns err for cobra to report.
func failure(cmd *cobra.Command, err *appErrors.Error) error {
	for _, f := range err.Fields {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.Field, f.Message)
	}
	return err
}

func readRaw(data string) (json.RawMessage, error) {
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		raw = b
	}
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return raw, nil
}

func readObject(data string) (map[string]any, error) {
	raw, err := readRaw(data)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("payload must be a JSON object")
	}
	return obj, nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
