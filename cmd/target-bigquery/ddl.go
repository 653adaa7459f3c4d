package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bqtarget/internal/schema"
	"bqtarget/internal/singer"
	"bqtarget/internal/storage"
)

type ddlOptions struct {
	kind    string
	dataset string
	table   string
}

// newDDLCmd prints the CREATE TABLE a SQL backend would run for a stream.
// The input is either a JSON Schema document or a whole SCHEMA message.
func newDDLCmd() *cobra.Command {
	var opts ddlOptions
	cmd := &cobra.Command{
		Use:   "ddl <schema.json>",
		Short: "Print the CREATE TABLE statement a SQL backend would run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			stmt, err := renderDDL(opts, raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.kind, "kind", "postgres", "storage kind ("+strings.Join(storage.ListDDLKinds(), ", ")+")")
	f.StringVar(&opts.dataset, "dataset", "", "dataset (schema or database) name")
	f.StringVar(&opts.table, "table", "", "table name; defaults to the SCHEMA message's stream")
	return cmd
}

func renderDDL(opts ddlOptions, raw []byte) (string, error) {
	table := opts.table
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("decode schema: %w", err)
	}
	if head.Type == singer.TypeSchema {
		msg, err := singer.Parse(raw)
		if err != nil {
			return "", err
		}
		m := msg.(*singer.SchemaMessage)
		raw = m.Schema
		if table == "" {
			table = m.Stream
		}
	}
	if opts.dataset == "" || table == "" {
		return "", fmt.Errorf("--dataset and --table are required")
	}

	src, err := schema.Parse(raw)
	if err != nil {
		return "", err
	}
	fields, err := schema.Build(src)
	if err != nil {
		return "", err
	}
	return storage.CreateTableSQL(opts.kind, opts.dataset, table, fields)
}
