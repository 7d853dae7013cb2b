package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/pkg/manifest"
	"github.com/stackgen/stackgen/pkg/marketplace"
	"github.com/stackgen/stackgen/pkg/presenter"
	"github.com/stackgen/stackgen/pkg/schema"
)

var publishCmd = &cobra.Command{
	Use:   "publish <bundle-dir>...",
	Short: "Aggregate validated bundles into a marketplace index",
	Long: `Validate the given bundle directories and aggregate them into a
single marketplace index file. A bundle that fails schema validation
aborts publication: nothing enters the catalog unless it can be
installed.

Examples:
  stackgen publish dist/* --name my-marketplace --owner my-org
  stackgen publish dist/frontend-stack -o marketplace.json
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		owner, _ := cmd.Flags().GetString("owner")
		output, _ := cmd.Flags().GetString("output")

		bundles := make([]marketplace.ValidatedBundle, 0, len(args))
		for _, dir := range args {
			data, err := os.ReadFile(filepath.Join(dir, manifest.FileName))
			if err != nil {
				return errors.Wrapf(err, "failed to read manifest in %s", dir)
			}
			m, err := manifest.Parse(data)
			if err != nil {
				return errors.Wrapf(err, "invalid manifest in %s", dir)
			}

			report := schema.ValidateBundle(os.DirFS(dir))
			for _, finding := range report.Errors() {
				presenter.Error(errors.New(finding.Message), fmt.Sprintf("%s: %s", dir, finding.Path))
			}

			bundles = append(bundles, marketplace.ValidatedBundle{
				Manifest: *m,
				Source:   "./" + filepath.ToSlash(dir),
				Report:   report,
			})
		}

		// Group by the first keyword when present
		index, err := marketplace.Publish(name, owner, bundles, func(m manifest.BundleManifest) string {
			if len(m.Keywords) > 0 {
				return m.Keywords[0]
			}
			return ""
		})
		if err != nil {
			return err
		}

		data, err := marketplace.Marshal(index)
		if err != nil {
			return err
		}

		indexReport := schema.ValidateIndex(data)
		if !indexReport.Valid() {
			for _, finding := range indexReport.Errors() {
				presenter.Error(errors.New(finding.Message), finding.Path)
			}
			return errors.New("generated index failed schema validation")
		}

		if err := os.WriteFile(output, data, 0o644); err != nil {
			return errors.Wrap(err, "failed to write index")
		}

		presenter.Success(fmt.Sprintf("published %d bundle(s) to %s", len(index.Plugins), output))
		return nil
	},
}

func init() {
	publishCmd.Flags().String("name", "stackgen-marketplace", "Marketplace name")
	publishCmd.Flags().String("owner", "", "Marketplace owner")
	publishCmd.Flags().StringP("output", "o", marketplace.FileName, "Index output path")
}
