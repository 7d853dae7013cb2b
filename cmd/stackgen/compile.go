package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/pkg/bundle"
	"github.com/stackgen/stackgen/pkg/catalog"
	"github.com/stackgen/stackgen/pkg/compiler"
	"github.com/stackgen/stackgen/pkg/config"
	"github.com/stackgen/stackgen/pkg/fetch"
	"github.com/stackgen/stackgen/pkg/logger"
	"github.com/stackgen/stackgen/pkg/manifest"
	"github.com/stackgen/stackgen/pkg/presenter"
	"github.com/stackgen/stackgen/pkg/resolver"
	"github.com/stackgen/stackgen/pkg/schema"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a skill selection into a plugin bundle",
	Long: `Compile the configured skill selection and agent profiles into a
plugin bundle: agent documents, the skill subtree, the optional hooks
file, and the bundle manifest. The compiled tree is validated against
the bundle schema before the command reports success.

Examples:
  stackgen compile                          # Compile using stack.yaml
  stackgen compile --select scss,react      # Add skills to the selection
  stackgen compile --check                  # Diff against the existing bundle
  stackgen compile --watch                  # Recompile on source changes
  stackgen compile --source org/skills      # Fetch the catalog from GitHub
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		output, _ := cmd.Flags().GetString("output")
		selected, _ := cmd.Flags().GetStringSlice("select")
		check, _ := cmd.Flags().GetBool("check")
		force, _ := cmd.Flags().GetBool("force")
		watch, _ := cmd.Flags().GetBool("watch")
		source, _ := cmd.Flags().GetString("source")
		ref, _ := cmd.Flags().GetString("ref")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if source != "" {
			fetcher, err := fetch.NewFetcher()
			if err != nil {
				return err
			}
			resolved, err := fetcher.Fetch(cmd.Context(), source, ref)
			if err != nil {
				return errors.Wrapf(err, "failed to fetch source %s", source)
			}
			cfg.CatalogDir = resolved
			cfg.TemplateDir = filepath.Join(resolved, "templates")
		}

		if output == "" {
			output = filepath.Join("dist", cfg.Name)
		}

		run := func() error {
			return compileBundle(cmd.Context(), cfg, selected, output, check, force)
		}

		if err := run(); err != nil {
			return err
		}

		if watch {
			return watchAndRecompile(cmd.Context(), cfg, run)
		}

		return nil
	},
}

func init() {
	compileCmd.Flags().StringP("config", "c", config.FileName, "Bundle configuration file")
	compileCmd.Flags().StringP("output", "o", "", "Output directory (default dist/<bundle-name>)")
	compileCmd.Flags().StringSlice("select", nil, "Additional skills to select")
	compileCmd.Flags().Bool("check", false, "Compare the compiled bundle against the existing tree instead of writing")
	compileCmd.Flags().Bool("force", false, "Overwrite an existing bundle")
	compileCmd.Flags().Bool("watch", false, "Recompile when catalog or template sources change")
	compileCmd.Flags().String("source", "", "Remote catalog source (owner/repo) to fetch before compiling")
	compileCmd.Flags().String("ref", "", "Revision to pin the remote source to")
}

// compileBundle runs the full pipeline: catalog build, selection
// validation, compilation, manifest generation, persistence, and schema
// validation of the written tree.
func compileBundle(ctx context.Context, cfg *config.BundleConfig, extraSelection []string, output string, check, force bool) error {
	cat, err := catalog.LoadDir(cfg.CatalogDir)
	if err != nil {
		return errors.Wrap(err, "failed to build catalog")
	}

	templates, err := config.LoadTemplates(cfg.TemplateDir)
	if err != nil {
		return err
	}

	selection := resolver.NewSelection(append(append([]string{}, cfg.Selection...), extraSelection...)...)

	validated, violations := resolver.Validate(cat, selection)
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, resolver.Describe(violations))
		return errors.Errorf("selection is invalid: %d violation(s)", len(violations))
	}

	comp := compiler.New(cat, templates)
	docs, warnings, err := comp.CompileBundle(validated, cfg.AgentProfiles(), cfg.Hooks)
	if err != nil {
		return errors.Wrap(err, "compilation failed")
	}
	for _, warning := range warnings {
		presenter.Warning(warning.String())
	}

	m := manifest.Generate(docs, cfg.Metadata())

	writer := bundle.NewWriter(output, bundle.WithForce(force || check))
	if check {
		diff, err := writer.Check(docs, m)
		if err != nil {
			return err
		}
		if diff != "" {
			fmt.Fprintln(os.Stdout, diff)
			return errors.New("compiled output differs from the existing bundle")
		}
		presenter.Success("bundle is up to date")
		return nil
	}

	if err := writer.Write(docs, m); err != nil {
		return err
	}

	report := schema.ValidateBundle(os.DirFS(output))
	for _, finding := range report.Warnings() {
		presenter.Warning(finding.String())
	}
	if !report.Valid() {
		for _, finding := range report.Errors() {
			presenter.Error(errors.New(finding.Message), finding.Path)
		}
		return errors.Errorf("compiled bundle failed schema validation: %d error(s)", len(report.Errors()))
	}

	logger.G(ctx).WithField("output", output).Debug("bundle compiled")
	presenter.Success(fmt.Sprintf("compiled bundle %s@%s to %s (%d documents)", cfg.Name, cfg.Version, output, len(docs)))
	return nil
}

// watchTargets lists the directories the watch loop observes. fsnotify
// watches are non-recursive, so every skill subdirectory must be added
// individually; the catalog root covers catalog.yaml and the skills
// root covers newly created skill directories.
func watchTargets(cfg *config.BundleConfig) []string {
	skillsDir := filepath.Join(cfg.CatalogDir, "skills")
	dirs := []string{cfg.CatalogDir, skillsDir, cfg.TemplateDir}

	if entries, err := os.ReadDir(skillsDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(skillsDir, entry.Name()))
			}
		}
	}

	return dirs
}

// watchAndRecompile recompiles whenever the catalog or template sources
// change. Compile failures are reported and watched for the next change
// rather than aborting the watch loop.
func watchAndRecompile(ctx context.Context, cfg *config.BundleConfig, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	for _, dir := range watchTargets(cfg) {
		if err := watcher.Add(dir); err != nil {
			logger.G(ctx).WithError(err).WithField("dir", dir).Warn("failed to watch directory")
		}
	}

	presenter.Info("watching for changes (ctrl-c to stop)")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// A newly created skill directory needs its own watch
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("dir", event.Name).Warn("failed to watch new directory")
					}
				}
			}
			logger.G(ctx).WithField("file", event.Name).Debug("source changed, recompiling")
			if err := run(); err != nil {
				presenter.Error(err, "recompile failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("watch error")
		}
	}
}
