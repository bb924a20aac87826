// Package commands implements the postshare-admin subcommands.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"postshare/internal/config"
	"postshare/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "postshare-admin",
	Short: "Operator tooling for the postshare API",
	Long: `postshare-admin inspects and repairs a postshare deployment.

Commands read the same config.yml and environment variables as the server.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// loadConfig is swapped out by tests.
var loadConfig = config.LoadConfig

func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
