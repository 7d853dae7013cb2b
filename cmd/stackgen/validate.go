package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/pkg/presenter"
	"github.com/stackgen/stackgen/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <bundle-dir>...",
	Short: "Validate plugin bundles against the bundle schema",
	Long: `Validate one or more bundle directories: the manifest against the
bundle schema, and every declared entry point against the actual tree.
Errors block publication; warnings are reported but non-blocking.

The validator is independent of how a bundle was produced, so
hand-written bundles are validated the same way as compiled ones.

Examples:
  stackgen validate dist/frontend-stack
  stackgen validate dist/*
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		failed := 0
		for _, dir := range args {
			report := schema.ValidateBundle(os.DirFS(dir))

			for _, finding := range report.Findings() {
				if finding.Severity == schema.SeverityError {
					presenter.Error(errors.New(finding.Message), fmt.Sprintf("%s: %s", dir, finding.Path))
				} else {
					presenter.Warning(fmt.Sprintf("%s: %s", dir, finding))
				}
			}

			if report.Valid() {
				presenter.Success(fmt.Sprintf("%s is valid (%d warning(s))", dir, len(report.Warnings())))
			} else {
				failed++
			}
		}

		if failed > 0 {
			return errors.Errorf("%d bundle(s) failed validation", failed)
		}
		return nil
	},
}
