package main

import (
	"fmt"
	"os"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "inventoryctl",
	Short: "Operator tasks for the inventory ledger",
	Long: `inventoryctl runs maintenance tasks against the configured database:
loading demo data, resetting a password and checking the admin account.
It reads the same DB_* and LOG_* environment as the API server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(seedCmd, resetPasswordCmd, checkAdminCmd)
}

// openStore connects and migrates using the database section of the environment.
func openStore() (*gorm.DB, *zap.Logger, error) {
	dbCfg, logCfg, err := config.LoadDatabase()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(dbCfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}
	return db, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
