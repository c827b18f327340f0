package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fedlink-ai/fedlink/cmd/fedlink/internal"
	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/org"
	"github.com/fedlink-ai/fedlink/internal/types"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Inspect the loaded organization hierarchy",
}

var orgTreeCmd = &cobra.Command{
	Use:   "tree [ID]",
	Short: "Print the organization hierarchy",
	Long: `Print the loaded organization hierarchy as an indented tree. With an
organization ID, print only that organization and its descendants.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: internal.CompleteOrgIDs,
	RunE:              runOrgTree,
}

var orgRootCmd = &cobra.Command{
	Use:   "root ABBREVIATION",
	Short: "Resolve an agency profile to its department root",
	Long: `Walk an agency profile's parent chain to its root and report the
department it rolls up to. An agency whose parent abbreviation matches
no loaded profile is its own root.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: internal.CompleteAgencyAbbrevs,
	RunE:              runOrgRoot,
}

func init() {
	orgCmd.AddCommand(orgTreeCmd)
	orgCmd.AddCommand(orgRootCmd)
}

func runOrgTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := database.NewOrgDAO(db).List(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return internal.NewCLIError(internal.ExitError, "no organizations loaded (run 'fedlink load orgs' first)")
	}

	orgs := make([]types.Organization, 0, len(rows))
	for _, row := range rows {
		orgs = append(orgs, *row)
	}
	tree := org.NewTree(orgs, org.WithTreeLogger(slog.Default()))

	start := []*types.Organization(nil)
	if len(args) == 1 {
		node, ok := tree.Get(args[0])
		if !ok {
			return internal.NewCLIError(internal.ExitError,
				fmt.Sprintf("no organization with ID %q", args[0]))
		}
		start = []*types.Organization{node}
	} else {
		start = tree.Roots()
	}

	if flags.GetOutputFormat() == FormatJSON {
		formatter := internal.NewFormatter(internal.FormatJSON, cmd.OutOrStdout())
		out := make([]*types.Organization, 0, len(rows))
		for _, node := range start {
			out = append(out, tree.Subtree(node.ID)...)
		}
		return formatter.PrintJSON(out)
	}

	for _, node := range start {
		printOrgBranch(cmd, tree, node, node.Depth)
	}
	return nil
}

// printOrgBranch prints one organization and recurses into its children.
// baseDepth anchors indentation so a subtree starts at column zero.
func printOrgBranch(cmd *cobra.Command, tree *org.Tree, node *types.Organization, baseDepth int) {
	indent := strings.Repeat("  ", node.Depth-baseDepth)

	label := node.Name
	if node.Abbreviation != "" {
		label += " (" + node.Abbreviation + ")"
	}
	suffix := ""
	if !node.Active {
		suffix = " [inactive]"
	}
	cmd.Printf("%s%s  %s [%s]%s\n", indent, node.ID, label, node.Level, suffix)

	for _, child := range tree.Children(node.ID) {
		printOrgBranch(cmd, tree, child, baseDepth)
	}
}

func runOrgRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	profiles, err := database.NewAgencyDAO(db).ListAll(ctx)
	if err != nil {
		return err
	}

	resolver := org.NewProfileResolver(profiles, org.WithResolverLogger(slog.Default()))
	profile, ok := resolver.Lookup(args[0])
	if !ok {
		return internal.NewCLIError(internal.ExitError,
			fmt.Sprintf("no agency profile with abbreviation %q", args[0]))
	}

	root := resolver.RootOf(profile)
	department := resolver.DepartmentOf(profile)

	if flags.GetOutputFormat() == FormatJSON {
		formatter := internal.NewFormatter(internal.FormatJSON, cmd.OutOrStdout())
		return formatter.PrintJSON(map[string]interface{}{
			"agency":     profile,
			"root":       root,
			"department": department,
		})
	}

	cmd.Printf("Agency:      %s\n", profileLabel(profile))
	cmd.Printf("Root:        %s\n", profileLabel(root))
	cmd.Printf("Department:  %s\n", department)
	return nil
}

func profileLabel(p *types.AgencyProfile) string {
	if p.Abbreviation != "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.Abbreviation)
	}
	return p.Name
}
