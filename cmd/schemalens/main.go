// Command schemalens inspects a relational database, infers undeclared
// relationships between its tables, and renders the result as DBML for
// dbdiagram.io.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemalens/schemalens/internal/analyzer"
	"github.com/schemalens/schemalens/internal/artifact"
	minioartifact "github.com/schemalens/schemalens/internal/artifact/minio"
	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/database"
	"github.com/schemalens/schemalens/internal/database/mysql"
	"github.com/schemalens/schemalens/internal/database/postgres"
	"github.com/schemalens/schemalens/internal/database/sqlite"
	"github.com/schemalens/schemalens/internal/embed"
	"github.com/schemalens/schemalens/internal/logger"
	"github.com/schemalens/schemalens/internal/schema"
	"github.com/schemalens/schemalens/internal/verify"
)

var (
	configPath string
	dbURL      string
	mysqlURL   string
	sqlitePath string
	schemaName string
	outputDir  string
	project    string
	noLLM      bool
	llmModel   string
	llmHost    string
	maxChecks  int
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "schemalens",
	Short: "Infer and diagram database relationships",
	Long: `SchemaLens inspects a PostgreSQL, MySQL, or SQLite database, proposes
undeclared foreign-key relationships from naming patterns, semantic
similarity, and type compatibility, optionally verifies the top candidates
with a local LLM, and renders the schema as DBML for dbdiagram.io.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	rootCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	rootCmd.Flags().StringVarP(&schemaName, "schema", "s", "public", "Schema namespace (PostgreSQL only)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Directory for generated artifacts")
	rootCmd.Flags().StringVar(&project, "project", "", "Project name in the DBML header")
	rootCmd.Flags().BoolVar(&noLLM, "no-llm", false, "Skip LLM verification, use rule-based checks only")
	rootCmd.Flags().StringVar(&llmModel, "llm-model", "", "Ollama model for verification")
	rootCmd.Flags().StringVar(&llmHost, "llm-host", "", "Ollama server URL")
	rootCmd.Flags().IntVar(&maxChecks, "max-verifications", 0, "Maximum candidates sent to the oracle")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("no database configured: pass --db-url, --mysql-url, or --sqlite, or set database.dsn in the config file")
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	ctx := context.Background()

	db, intro, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	a := analyzer.New(cfg, intro, db, embedder(cfg, log), oracle(cfg, log), stores(ctx, cfg, log), log)

	result, err := a.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Analyzed %d tables, %d columns\n", result.Tables, result.Columns)
	fmt.Printf("Candidates: %d, verified: %d, valid relationships: %d (plus %d declared)\n",
		result.Candidates, result.Verified,
		result.ValidRelationships-result.DeclaredForeignKeys, result.DeclaredForeignKeys)
	fmt.Printf("Artifacts written under %s/%s/\n", cfg.Output.Dir, result.RunID)
	fmt.Println("Paste schema.dbml into https://dbdiagram.io/d to visualise the diagram.")
	return nil
}

// applyFlags layers command-line flags over the loaded config. Flags only
// override what the user actually set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	dbCount := 0
	if dbURL != "" {
		dbCount++
	}
	if mysqlURL != "" {
		dbCount++
	}
	if sqlitePath != "" {
		dbCount++
	}
	if dbCount > 1 {
		return fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case dbURL != "":
		cfg.Database.Driver = driverFromURL(dbURL)
		cfg.Database.DSN = dbURL
	case mysqlURL != "":
		cfg.Database.Driver = "mysql"
		cfg.Database.DSN = mysqlURL
	case sqlitePath != "":
		cfg.Database.Driver = "sqlite"
		cfg.Database.DSN = sqlitePath
	}

	if cmd.Flags().Changed("schema") {
		cfg.Database.Schema = schemaName
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if project != "" {
		cfg.Output.ProjectName = project
	}
	if noLLM {
		cfg.Verify.Enabled = false
	}
	if llmModel != "" {
		cfg.Verify.Model = llmModel
		cfg.Verify.Enabled = !noLLM
	}
	if llmHost != "" {
		cfg.Verify.Host = llmHost
	}
	if maxChecks > 0 {
		cfg.Verify.MaxChecks = maxChecks
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return nil
}

// driverFromURL picks the engine from the connection string scheme.
func driverFromURL(url string) string {
	switch {
	case strings.HasPrefix(url, "mysql://"):
		return "mysql"
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite"
	default:
		return "postgres"
	}
}

// connect opens the configured database and pairs it with the matching
// introspector.
func connect(ctx context.Context, cfg *config.Config) (database.DB, schema.Introspector, error) {
	dbCfg := database.DefaultConfig(database.Driver(cfg.Database.Driver), cfg.Database.DSN)
	if cfg.Database.MaxConns > 0 {
		dbCfg.MaxConns = int32(cfg.Database.MaxConns)
	}
	if cfg.Database.MinConns > 0 {
		dbCfg.MinConns = int32(cfg.Database.MinConns)
	}
	if cfg.Database.ConnectTimeout.Std() > 0 {
		dbCfg.ConnectTimeout = cfg.Database.ConnectTimeout.Std()
	}
	if cfg.Database.QueryTimeout.Std() > 0 {
		dbCfg.QueryTimeout = cfg.Database.QueryTimeout.Std()
	}

	switch dbCfg.Driver {
	case database.DriverPostgres:
		db, err := postgres.New(ctx, dbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return db, schema.NewPgIntrospector(db, cfg.Database.Schema), nil
	case database.DriverMySQL:
		db, err := mysql.New(ctx, dbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mysql: %w", err)
		}
		return db, schema.NewMySQLIntrospector(db), nil
	case database.DriverSQLite:
		db, err := sqlite.New(ctx, dbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite database: %w", err)
		}
		return db, schema.NewSQLiteIntrospector(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// embedder picks the embedding provider for the semantic matcher.
func embedder(cfg *config.Config, log *logger.Logger) embed.Provider {
	if cfg.Embedding.Provider == "ollama" {
		return embed.NewOllama(cfg.Embedding.Host, cfg.Embedding.Model, cfg.Embedding.Timeout.Std())
	}
	if cfg.Embedding.Provider != "hashing" && cfg.Embedding.Provider != "" {
		log.Warnf("unknown embedding provider %q, using hashing", cfg.Embedding.Provider)
	}
	return embed.NewHashing(cfg.Embedding.Dimensions)
}

// oracle selects the verification oracle once for the whole run. An
// unreachable LLM at startup means the rule-based oracle for every
// candidate, not a per-call retry.
func oracle(cfg *config.Config, log *logger.Logger) verify.Oracle {
	if !cfg.Verify.Enabled {
		return verify.NewRules()
	}

	o, err := verify.NewOllama(cfg.Verify.Host, cfg.Verify.Model, cfg.Verify.Timeout.Std())
	if err != nil {
		log.With().Err(err).Logger().Warn("LLM oracle unavailable, falling back to rule-based verification")
		return verify.NewRules()
	}
	log.With().Str("model", cfg.Verify.Model).Logger().Info("LLM oracle connected")
	return o
}

// stores builds the artifact sinks: always the local output directory,
// optionally object storage.
func stores(ctx context.Context, cfg *config.Config, log *logger.Logger) []artifact.Store {
	out := []artifact.Store{artifact.NewDir(cfg.Output.Dir)}

	if cfg.Storage.Enabled {
		store, err := minioartifact.New(ctx, &artifact.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
		})
		if err != nil {
			log.With().Err(err).Logger().Warn("object storage unavailable, writing local artifacts only")
		} else {
			out = append(out, store)
		}
	}
	return out
}
