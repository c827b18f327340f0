package main

import (
	"github.com/spf13/cobra"

	initpkg "github.com/fedlink-ai/fedlink/internal/init"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize fedlink configuration and database",
	Long: `Initialize fedlink by creating:
- The home directory structure (feeds, logs, cache, backups)
- A default configuration file
- The SQLite database with its schema`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration and database")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	homeDir := resolveHomeDir(flags)

	cmd.Printf("Initializing fedlink in %s...\n", homeDir)

	initializer := initpkg.NewDefaultInitializer()
	result, err := initializer.Initialize(ctx, initpkg.InitOptions{
		HomeDir: homeDir,
		Force:   initForce,
	})
	if err != nil {
		cmd.PrintErrln("Initialization failed:", err)
		return err
	}

	displayInitResult(cmd, result)

	return nil
}

func displayInitResult(cmd *cobra.Command, result *initpkg.InitResult) {
	cmd.Println("\nfedlink initialized successfully!")
	cmd.Printf("  Home directory: %s\n", result.HomeDir)
	cmd.Printf("  Directories created: %d\n", len(result.DirsCreated))
	cmd.Printf("  Config created: %v\n", result.ConfigCreated)
	cmd.Printf("  Database created: %v\n", result.DatabaseCreated)
	cmd.Printf("  Schema version: %d\n", result.MigrationVersion)

	if len(result.Warnings) > 0 {
		cmd.Println("\nWarnings:")
		for _, w := range result.Warnings {
			cmd.Printf("  - %s\n", w)
		}
	}

	if len(result.Errors) > 0 {
		cmd.Println("\nErrors:")
		for _, e := range result.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}
}
