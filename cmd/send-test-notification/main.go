package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/config"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/container"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/pkg/utils"
)

// Isolated check that staff chat notifications reach their channel without
// running the triage pipeline.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	role := flag.String("role", string(entity.StaffWarden), "Staff role to notify (warden, security, maintenance, admin)")
	title := flag.String("title", "Test notification", "Card title")
	text := flag.String("text", "Delivery check from send-test-notification", "Card body; use | to separate lines")
	timeout := flag.Duration("timeout", 15*time.Second, "Send timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	fmt.Println("=== Staff Chat Notification Test ===")

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

	staffRole := entity.StaffRole(*role)
	if !staffRole.Valid() {
		fmt.Fprintf(os.Stderr, "ERROR: unknown role %q\n", *role)
		os.Exit(1)
	}

	if cfg.Lark.Enabled() {
		fmt.Printf("Lark app: %s, chats configured: %d\n", maskID(cfg.Lark.AppID), len(cfg.Lark.Chats))
	} else {
		fmt.Println("Lark not configured, only the log channel will be used")
	}

	senders := container.ProvideSenders(&cfg.ToContainerConfig().Lark, logger)
	msg := port.ChatMessage{
		Title: *title,
		Lines: strings.Split(*text, "|"),
		Role:  staffRole,
	}

	failed := 0
	for _, sender := range senders {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		err := sender.Send(ctx, msg)
		cancel()
		if err != nil {
			fmt.Printf("❌ %s: %v\n", sender.Name(), err)
			failed++
			continue
		}
		fmt.Printf("✓ %s: sent to %s\n", sender.Name(), staffRole)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func maskID(id string) string {
	if len(id) <= 8 {
		return "****"
	}
	return id[:4] + "..." + id[len(id)-4:]
}
