package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/config"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/container"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/repository"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/report"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/pkg/utils"
)

// Loads resident profiles from a roster workbook into the database.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	input := flag.String("in", "", "Roster workbook (.xlsx)")
	dryRun := flag.Bool("dry-run", false, "Parse the roster without writing")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if *input == "" {
		fmt.Fprintf(os.Stderr, "Usage: import-residents --in roster.xlsx [--dry-run]\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewCLILogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	f, err := os.Open(*input)
	if err != nil {
		logger.Fatal("Failed to open roster", zap.Error(err))
	}
	profiles, rowErrs, err := report.ReadRoster(f)
	f.Close()
	if err != nil {
		logger.Fatal("Failed to read roster", zap.Error(err))
	}

	for _, re := range rowErrs {
		fmt.Printf("❌ %v\n", re)
	}
	fmt.Printf("Parsed %d residents, %d rows skipped\n", len(profiles), len(rowErrs))
	if *dryRun {
		return
	}

	ctx := context.Background()
	bundle, err := container.ProvideDatabase(ctx, &cfg.ToContainerConfig().Database, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer bundle.Conn.Close()

	repo := repository.NewResidentRepository(bundle.TransactionMgr, logger)
	err = bundle.TransactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		for _, p := range profiles {
			if err := repo.Upsert(ctx, p); err != nil {
				return fmt.Errorf("resident %s: %w", p.UserID, err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Fatal("Import failed, no residents written", zap.Error(err))
	}

	fmt.Printf("✓ Imported %d residents\n", len(profiles))
}
