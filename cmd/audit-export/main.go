package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/config"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/container"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/repository"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/report"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/pkg/utils"
)

// Exports the audit trail to an Excel workbook for warden review.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	output := flag.String("out", "", "Output file (default audit-YYYYMMDD.xlsx)")
	actor := flag.String("actor", "", "Only entries for this requester")
	since := flag.Duration("since", 7*24*time.Hour, "How far back to export")
	limit := flag.Int("limit", 0, "Maximum number of entries, 0 for all")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

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

	ctx := context.Background()
	bundle, err := container.ProvideDatabase(ctx, &cfg.ToContainerConfig().Database, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer bundle.Conn.Close()

	entries, err := repository.NewAuditRepository(bundle.TransactionMgr, logger).List(ctx, port.AuditFilter{
		ActorID: *actor,
		Since:   time.Now().Add(-*since),
		Limit:   *limit,
	})
	if err != nil {
		logger.Fatal("Failed to list audit entries", zap.Error(err))
	}

	path := *output
	if path == "" {
		path = fmt.Sprintf("audit-%s.xlsx", time.Now().Format("20060102"))
	}
	f, err := os.Create(path)
	if err != nil {
		logger.Fatal("Failed to create output file", zap.Error(err))
	}

	if err := report.NewAuditWorkbook(logger).Write(f, entries); err != nil {
		f.Close()
		logger.Fatal("Failed to write workbook", zap.Error(err))
	}
	if err := f.Close(); err != nil {
		logger.Fatal("Failed to close output file", zap.Error(err))
	}

	fmt.Printf("✓ Exported %d audit entries to %s\n", len(entries), path)
}
