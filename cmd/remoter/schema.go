package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/remoter/configspec"
	"github.com/kbukum/remoter/remoter"
)

// NewSchemaCmd creates the `schema` command.
func NewSchemaCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the project file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree := configspec.NewTree()
			if _, err := tree.Register(remoter.Namespace, remoter.Spec()); err != nil {
				return err
			}
			tree.Seal()

			out, err := renderSchema(configspec.Document(tree, "remoter project"), format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json|yaml")
	return cmd
}

func renderSchema(schema any, format string) ([]byte, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	switch format {
	case "json":
		return append(data, '\n'), nil
	case "yaml":
		// Decoding through a node keeps the key order of the JSON document.
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("convert schema: %w", err)
		}
		blockStyle(&node)
		return yaml.Marshal(&node)
	default:
		return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
