package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"postshare/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// requiredTables must exist for the API to serve.
var requiredTables = []string{"users", "posts"}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database schema operations",
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Introspect the Postgres schema and verify the API tables exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.DBDriver == "sqlite" {
			return fmt.Errorf("db check needs Postgres, DB_DRIVER is %q", cfg.DBDriver)
		}

		pool, err := pgxpool.New(cmd.Context(), database.PostgresDSN(cfg))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		tables, err := introspectTables(cmd.Context(), pool)
		if err != nil {
			return err
		}
		return reportTables(cmd.OutOrStdout(), tables)
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(cmd.Context(), db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
		return err
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		status, err := database.Status(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("migration status failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), status)
		}
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(w, "applied=%d pending=%d\n", len(status.Applied), len(status.Pending))
		for _, m := range status.Pending {
			_, _ = fmt.Fprintf(w, "pending: %s\n", m.String())
		}
		return nil
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback <version>",
	Short: "Revert one applied SQL migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		_, db, err := connect()
		if err != nil {
			return err
		}
		if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
		return err
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd, dbMigrateCmd, dbStatusCmd, dbRollbackCmd)
}

// tableInfo is one public table with its column and index counts.
type tableInfo struct {
	Name    string `json:"name"`
	Columns int    `json:"columns"`
	Indexes int    `json:"indexes"`
}

const introspectTablesSQL = `
SELECT t.table_name,
       (SELECT COUNT(*) FROM information_schema.columns c
         WHERE c.table_schema = t.table_schema AND c.table_name = t.table_name),
       (SELECT COUNT(*) FROM pg_indexes i
         WHERE i.schemaname = t.table_schema AND i.tablename = t.table_name)
FROM information_schema.tables t
WHERE t.table_schema = 'public' AND t.table_type = 'BASE TABLE'
ORDER BY t.table_name`

func introspectTables(ctx context.Context, pool *pgxpool.Pool) ([]tableInfo, error) {
	rows, err := pool.Query(ctx, introspectTablesSQL)
	if err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}
	defer rows.Close()

	var tables []tableInfo
	for rows.Next() {
		var t tableInfo
		if err := rows.Scan(&t.Name, &t.Columns, &t.Indexes); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// missingTables returns the required tables absent from tables.
func missingTables(tables []tableInfo) []string {
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t.Name] = true
	}
	var missing []string
	for _, name := range requiredTables {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func reportTables(out io.Writer, tables []tableInfo) error {
	missing := missingTables(tables)

	if jsonOutput {
		if err := printJSON(out, map[string]any{"tables": tables, "missing": missing}); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TABLE\tCOLUMNS\tINDEXES")
		for _, t := range tables {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", t.Name, t.Columns, t.Indexes)
		}
		_ = w.Flush()
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %v", missing)
	}
	return nil
}

