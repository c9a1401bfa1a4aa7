package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/freightdesk-api/internal/migrations"
	"github.com/noah-isme/freightdesk-api/pkg/config"
	"github.com/noah-isme/freightdesk-api/pkg/database"
	"github.com/noah-isme/freightdesk-api/pkg/logger"
)

func main() {
	only := flag.String("only", "", "comma separated migration name prefixes to run")
	list := flag.Bool("list", false, "print the embedded migrations and exit")
	seedAdmin := flag.Bool("admin", true, "create the bootstrap administrator when ADMIN_EMAIL is set")
	flag.Parse()

	if *list {
		scripts, err := migrations.Scripts()
		if err != nil {
			log.Fatalf("read migrations: %v", err)
		}
		for _, s := range scripts {
			fmt.Println(s.Name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	runner, err := migrations.NewRunner(db, logr)
	if err != nil {
		logr.Fatal("init migrations", zap.Error(err))
	}

	ctx := context.Background()
	var prefixes []string
	for _, p := range strings.Split(*only, ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	if err := runner.Run(ctx, prefixes...); err != nil {
		logr.Fatal("migration failed", zap.Error(err))
	}

	if *seedAdmin && cfg.Bootstrap.AdminEmail != "" {
		created, err := runner.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName)
		if err != nil {
			logr.Fatal("bootstrap admin", zap.Error(err))
		}
		logr.Info("bootstrap admin checked", zap.Bool("created", created))
	}
	logr.Info("migrations complete", zap.String("driver", db.DriverName()))
}
