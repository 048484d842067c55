package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/comp-decision-engine/internal/adapters/advisor/anthropic"
	"github.com/ogurasousui/comp-decision-engine/internal/adapters/http/handler"
	"github.com/ogurasousui/comp-decision-engine/internal/adapters/repository/postgres"
	"github.com/ogurasousui/comp-decision-engine/internal/core/action"
	"github.com/ogurasousui/comp-decision-engine/internal/core/compensation"
	"github.com/ogurasousui/comp-decision-engine/internal/core/employee"
	"github.com/ogurasousui/comp-decision-engine/internal/platform/config"
	"github.com/ogurasousui/comp-decision-engine/internal/platform/currency"
	pg "github.com/ogurasousui/comp-decision-engine/internal/platform/db/postgres"
	"github.com/ogurasousui/comp-decision-engine/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	actionRepo := postgres.NewActionRepository(dbPool)

	scorer := compensation.NewScorer(compensation.NewBandTable(bandOverrides(cfg.Compensation)))

	var advisor compensation.Advisor
	if cfg.Advisor.Enabled() {
		advisor = anthropic.NewClient(anthropic.Config{
			APIKey:  cfg.Advisor.APIKey,
			Model:   cfg.Advisor.Model,
			BaseURL: cfg.Advisor.BaseURL,
			Timeout: cfg.Advisor.Timeout,
		})
		log.Printf("advisor path enabled (model=%s)", cfg.Advisor.Model)
	} else {
		log.Printf("advisor path disabled, heuristic only")
	}

	employeeSvc := employee.NewService(employeeRepo, nil, txManager)
	compensationSvc := compensation.NewService(employeeRepo, scorer, advisor, nil, txManager, nil)
	actionSvc := action.NewService(employeeRepo, actionRepo, nil, txManager)

	formatter, err := currency.NewFormatter(cfg.Currency.Locale)
	if err != nil {
		log.Fatalf("failed to initialize currency formatter: %v", err)
	}

	router := handler.NewRouter(employeeSvc, compensationSvc, actionSvc, formatter)
	httpServer := server.New(cfg.Server.ListenAddr, router)

	log.Printf("HTTP server listening on %s", cfg.Server.ListenAddr)

	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}

func bandOverrides(cfg config.CompensationConfig) map[string]employee.MarketRange {
	if len(cfg.Bands) == 0 {
		return nil
	}
	overrides := make(map[string]employee.MarketRange, len(cfg.Bands))
	for role, band := range cfg.Bands {
		overrides[role] = employee.MarketRange{Min: band.Min, Mid: band.Mid, Max: band.Max}
	}
	return overrides
}
