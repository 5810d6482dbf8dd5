package main

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", formatText, "Output format (text, json, yaml, toml)")
}

// printOutput writes v as JSON, YAML or TOML, or calls text for the human format
func printOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatTOML:
		return toml.NewEncoder(w).Encode(tomlDocument(v))
	case formatText, "":
		if text == nil {
			return printOutput(w, formatYAML, v, nil)
		}
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q (use text, json, yaml or toml)", format)
	}
}

// tomlDocument wraps lists and scalars in a table since a TOML document must
// be a table. A JSON null becomes an empty document.
func tomlDocument(v any) any {
	if v == nil {
		return map[string]any{}
	}
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Struct:
		return v
	case reflect.Slice, reflect.Array:
		return map[string]any{"items": v}
	default:
		return map[string]any{"value": v}
	}
}
