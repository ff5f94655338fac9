package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tordrt/schemasync"
	"github.com/tordrt/schemasync/internal/config"
	"github.com/tordrt/schemasync/internal/formatter"
	"github.com/tordrt/schemasync/internal/logging"
	"github.com/tordrt/schemasync/internal/schema"
)

var (
	configFile   string
	dbURL        string
	dialect      string
	sqliteDriver string
	schemaName   string
	tables       string
	excludes     string
	logLevel     string
	logFormat    string

	modelFile  string
	fromFile   string
	outputFile string
	outputDir  string
	format     string

	dryRun          bool
	continueOnError bool
	dropTables      bool
	withDatabase    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "schemasync",
	Short: "Read, compare and migrate database schemas across SQL dialects",
	Long: `SchemaSync reads schemas from PostgreSQL, MySQL, SQLite or SQL Server into a
vendor-neutral model, compares them with a desired model and renders or applies the
DDL that brings the database in line, for any of the built-in dialects.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the schema of a live database",
	RunE:  runRead,
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "List the changes turning the current schema into the model",
	RunE:  runDiff,
}

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Render the DDL turning the current schema into the model",
	Long: `Render the DDL turning the current schema into the model. The current schema is
read from --url, loaded from --from, or taken as empty, which renders CREATE statements.`,
	RunE: runSQL,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the model to a live database",
	RunE:  runMigrate,
}

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List the supported dialects",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range schemasync.Dialects() {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "YAML config file")
	pf.StringVar(&dbURL, "url", "", "Database URL (postgres://, mysql://, sqlite://, sqlserver://)")
	pf.StringVar(&dialect, "dialect", "", "Dialect to render for (default: derived from --url)")
	pf.StringVar(&sqliteDriver, "sqlite-driver", "", "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	pf.StringVarP(&schemaName, "schema", "s", "", "Database schema name")
	pf.StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	pf.StringVar(&excludes, "exclude", "", "Tables to leave out (comma-separated, optional)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json")

	readCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, markdown or yaml")
	readCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	readCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for one file per table")

	diffCmd.Flags().StringVarP(&modelFile, "model", "m", "", "Desired schema model file")
	diffCmd.Flags().StringVar(&fromFile, "from", "", "Current schema model file instead of --url")
	diffCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, markdown or yaml")

	sqlCmd.Flags().StringVarP(&modelFile, "model", "m", "", "Desired schema model file")
	sqlCmd.Flags().StringVar(&fromFile, "from", "", "Current schema model file instead of --url")
	sqlCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	sqlCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for numbered per-table files")
	sqlCmd.Flags().BoolVar(&dropTables, "drop", false, "Render the statements dropping every table of the model")
	sqlCmd.Flags().BoolVar(&withDatabase, "database", false, "Also create the model database (drop it with --drop)")

	migrateCmd.Flags().StringVarP(&modelFile, "model", "m", "", "Desired schema model file")
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the DDL without executing it")
	migrateCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Run the remaining statements after a failure")

	rootCmd.AddCommand(readCmd, diffCmd, sqlCmd, migrateCmd, dialectsCmd)
}

// setup loads the config, lets explicit flags override it and configures logging
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logFmt, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return err
	}
	logging.InitLogger(os.Stderr, level, logFmt)
	return nil
}

// applyFlags copies the flags set on the command line over the config values
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("url") {
		c.Database.URL = dbURL
	}
	if flags.Changed("dialect") {
		c.Database.Dialect = strings.ToLower(dialect)
	}
	if flags.Changed("sqlite-driver") {
		if sqliteDriver != "sqlite3" && sqliteDriver != "sqlite" {
			return fmt.Errorf("invalid --sqlite-driver: %s (must be 'sqlite3' or 'sqlite')", sqliteDriver)
		}
		c.Database.SQLiteDriver = sqliteDriver
	}
	if flags.Changed("schema") {
		c.Database.Schema = schemaName
	}
	if flags.Changed("tables") {
		c.Database.Tables = parseTableList(tables)
	}
	if flags.Changed("exclude") {
		c.Database.Exclude = parseTableList(excludes)
	}
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		c.Log.Format = logFormat
	}
	if flags.Changed("model") {
		c.Model = modelFile
	}
	if flags.Changed("continue-on-error") {
		c.Apply.ContinueOnError = continueOnError
	}
	return nil
}

// parseTableList splits a comma-separated table list
func parseTableList(s string) []string {
	if s == "" {
		return nil
	}
	list := strings.Split(s, ",")
	for i, t := range list {
		list[i] = strings.TrimSpace(t)
	}
	return list
}

func readOptions(c *config.Config) *schemasync.Options {
	return &schemasync.Options{
		Dialect:       c.Database.Dialect,
		SQLiteDriver:  c.Database.SQLiteDriver,
		Catalog:       c.Database.Catalog,
		SchemaName:    c.Database.Schema,
		TableTypes:    c.Database.TableTypes,
		Tables:        c.Database.Tables,
		ExcludeTables: c.Database.Exclude,
	}
}

// targetDialect returns the configured dialect or the one implied by the URL
func targetDialect(c *config.Config) (string, error) {
	if c.Database.Dialect != "" {
		return c.Database.Dialect, nil
	}
	if c.Database.URL == "" {
		return "", fmt.Errorf("--dialect or --url must be specified")
	}
	return schemasync.DialectForURL(c.Database.URL)
}

func loadModel(c *config.Config) (*schema.Database, error) {
	if c.Model == "" {
		return nil, fmt.Errorf("--model must be specified")
	}
	return schema.LoadFile(c.Model)
}

// loadCurrent returns the schema the changes start from: a model file, the live
// database or an empty schema
func loadCurrent(ctx context.Context, c *config.Config) (*schema.Database, error) {
	if fromFile != "" {
		return schema.LoadFile(fromFile)
	}
	if c.Database.URL != "" {
		return schemasync.ReadSchema(ctx, c.Database.URL, readOptions(c))
	}
	return &schema.Database{}, nil
}

// openOutput returns stdout or the named file
func openOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	if outputFile == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close output file", "file", outputFile, "error", err)
		}
	}, nil
}

func runRead(cmd *cobra.Command, args []string) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("--url must be specified")
	}
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	db, err := schemasync.ReadSchema(cmd.Context(), cfg.Database.URL, readOptions(cfg))
	if err != nil {
		return err
	}

	if outputDir != "" {
		if format != "text" && format != "markdown" {
			return fmt.Errorf("invalid format for --output-dir: %s (must be 'text' or 'markdown')", format)
		}
		if err := formatter.NewMultiFileFormatter(outputDir, format).Format(db); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	}

	w, done, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer done()

	f, err := formatter.New(format, w)
	if err != nil {
		return err
	}
	if err := f.Format(db); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	desired, err := loadModel(cfg)
	if err != nil {
		return err
	}
	name, err := targetDialect(cfg)
	if err != nil {
		return err
	}
	current, err := loadCurrent(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	changes, err := schemasync.Diff(current, desired, name)
	if err != nil {
		return err
	}
	f, err := formatter.New(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return f.FormatPlan(changes)
}

func runSQL(cmd *cobra.Command, args []string) error {
	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}
	desired, err := loadModel(cfg)
	if err != nil {
		return err
	}
	name, err := targetDialect(cfg)
	if err != nil {
		return err
	}

	script, err := renderScript(cmd.Context(), cfg, desired, name)
	if err != nil {
		return err
	}

	if outputDir != "" {
		names, err := formatter.NewSQLFileWriter(outputDir).Write(script)
		if err != nil {
			return err
		}
		logging.Info("wrote sql files", "dir", outputDir, "files", len(names))
		return nil
	}

	w, done, err := openOutput(cmd)
	if err != nil {
		return err
	}
	defer done()
	_, err = io.WriteString(w, script.String())
	return err
}

// renderScript renders the migration, or the drop script with --drop, wrapped in the
// database statement with --database
func renderScript(ctx context.Context, c *config.Config, desired *schema.Database, dialectName string) (*schemasync.Script, error) {
	opts := c.BuilderOptions()
	if dropTables {
		script, err := schemasync.GenerateDropSQL(desired, dialectName, opts)
		if err != nil || !withDatabase {
			return script, err
		}
		dropDB, err := schemasync.GenerateDatabaseSQL(desired.Name, dialectName, true, opts)
		if err != nil {
			return nil, err
		}
		script.Append(dropDB)
		return script, nil
	}

	current, err := loadCurrent(ctx, c)
	if err != nil {
		return nil, err
	}
	script, err := schemasync.GenerateSQL(current, desired, dialectName, opts)
	if err != nil || !withDatabase {
		return script, err
	}
	createDB, err := schemasync.GenerateDatabaseSQL(desired.Name, dialectName, false, opts)
	if err != nil {
		return nil, err
	}
	createDB.Append(script)
	return createDB, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("--url must be specified")
	}
	desired, err := loadModel(cfg)
	if err != nil {
		return err
	}

	res, err := schemasync.Migrate(cmd.Context(), cfg.Database.URL, desired, &schemasync.MigrateOptions{
		Options:         *readOptions(cfg),
		Build:           cfg.BuilderOptions(),
		ContinueOnError: cfg.Apply.ContinueOnError,
		DryRun:          dryRun,
	})
	if res != nil && dryRun {
		_, _ = io.WriteString(cmd.OutOrStdout(), res.Script.String())
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case dryRun:
	case res.Applied == nil:
		_, _ = fmt.Fprintln(out, "schema is up to date")
	default:
		_, _ = fmt.Fprintf(out, "applied %d statements for %d changes (batch %s)\n",
			res.Applied.Executed, len(res.Changes), res.Applied.BatchID)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
