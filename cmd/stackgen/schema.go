package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/pkg/manifest"
	"github.com/stackgen/stackgen/pkg/marketplace"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <manifest|index>",
	Short: "Print the JSON schema of a generated artifact type",
	Long: `Print the JSON schema reflected from the bundle manifest or the
marketplace index type, for editor tooling and external validators.

Examples:
  stackgen schema manifest
  stackgen schema index
`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"manifest", "index"},
	RunE: func(_ *cobra.Command, args []string) error {
		reflector := &jsonschema.Reflector{
			DoNotReference: true,
		}

		var target any
		switch args[0] {
		case "manifest":
			target = &manifest.BundleManifest{}
		case "index":
			target = &marketplace.CatalogIndex{}
		default:
			return errors.Errorf("unknown artifact type %q", args[0])
		}

		data, err := json.MarshalIndent(reflector.Reflect(target), "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to serialize schema")
		}

		fmt.Println(string(data))
		return nil
	},
}
