package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/pkg/catalog"
	"github.com/stackgen/stackgen/pkg/config"
	"github.com/stackgen/stackgen/pkg/presenter"
	"github.com/stackgen/stackgen/pkg/resolver"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Inspect the skill catalog",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog skills with their availability",
	Long: `List every skill in the catalog. With --select, availability is
computed against that selection: conflicting or exclusivity-blocked
skills show as disabled, recommendation hints as recommended.

Examples:
  stackgen skills list
  stackgen skills list --select react       # Availability given react
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		selected, _ := cmd.Flags().GetStringSlice("select")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		cat, err := catalog.LoadDir(cfg.CatalogDir)
		if err != nil {
			return err
		}

		selection := resolver.NewSelection(selected...)
		report := resolver.ComputeAvailability(cat, selection)

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCATEGORY\tSTATUS\tNOTE")
		fmt.Fprintln(tw, "----\t--------\t------\t----")

		for _, entry := range cat.Entries() {
			availability, _ := report.For(entry.ID)
			status := string(availability.Status)
			if selection.Contains(entry.ID) {
				status = "selected"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.ID, entry.Category, status, availability.Reason)
		}

		return tw.Flush()
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one skill's metadata and content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		cat, err := catalog.LoadDir(cfg.CatalogDir)
		if err != nil {
			return err
		}

		entry := cat.Entry(args[0])
		if entry == nil {
			return fmt.Errorf("skill %q not found", args[0])
		}

		presenter.Section(entry.ID)
		presenter.Info(fmt.Sprintf("Category:    %s", entry.Category))
		presenter.Info(fmt.Sprintf("Exclusive:   %t", entry.Exclusive))
		presenter.Info(fmt.Sprintf("Description: %s", entry.Description))
		if len(entry.Tags) > 0 {
			presenter.Info(fmt.Sprintf("Tags:        %v", entry.Tags))
		}
		for _, rule := range cat.RulesFor(entry.ID) {
			presenter.Info(fmt.Sprintf("Rule:        %s %v", rule.Kind(), rule.References()))
		}
		presenter.Separator()
		fmt.Println(entry.Content)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{skillsListCmd, skillsShowCmd} {
		cmd.Flags().StringP("config", "c", config.FileName, "Bundle configuration file")
	}
	skillsListCmd.Flags().StringSlice("select", nil, "Selection to compute availability against")

	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)
}
