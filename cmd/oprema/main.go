package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/config"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/logging"
	"github.com/erazemk/oprema/internal/store"
	"github.com/erazemk/oprema/internal/users"
)

var rootCmd = &cobra.Command{
	Use:           "oprema",
	Short:         "IT equipment and cable inventory server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var flags struct {
	config string
	db     string
	addr   string
	log    string
	owner  string
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "YAML config file (default: environment only)")
	pf.StringVarP(&flags.db, "db", "d", "", "SQLite database path (overrides OPREMA_DB)")
	pf.StringVarP(&flags.log, "log", "l", "", "log file path (overrides OPREMA_LOG_FILE)")
	pf.StringVarP(&flags.owner, "owner", "u", "", "owner username on first run (overrides OPREMA_OWNER)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, err
	}
	if flags.db != "" {
		cfg.DBPath = flags.db
	}
	if flags.addr != "" {
		cfg.Addr = flags.addr
	}
	if flags.log != "" {
		cfg.LogFile = flags.log
	}
	if flags.owner != "" {
		cfg.Owner = flags.owner
	}
	return cfg, nil
}

// app is what every command needs: configuration, a logger and a migrated
// database.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sql.DB
	close  func()
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		closeLog()
		return nil, err
	}

	if err := db.Migrate(ctx, database, logger, store.CableReconcileHook(logger)); err != nil {
		database.Close()
		closeLog()
		return nil, err
	}
	logger.Info("database ready", zap.String("path", cfg.DBPath))

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     database,
		close: func() {
			database.Close()
			closeLog()
		},
	}, nil
}

// ensureOwner creates the owner account with a random password when the
// database has no users, and prints the credentials once.
func (a *app) ensureOwner(ctx context.Context) error {
	password, err := generatePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	created, err := users.NewService(a.db, a.logger).EnsureOwner(ctx, a.cfg.Owner, password)
	if err != nil {
		return fmt.Errorf("creating owner account: %w", err)
	}
	if created {
		printOwnerCredentials(a.cfg.DBPath, a.cfg.Owner, password)
	}
	return nil
}

// printOwnerCredentials prints the first-run account to stdout.
func printOwnerCredentials(dbPath, username, password string) {
	fmt.Printf("Database initialized: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Owner account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The owner can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
