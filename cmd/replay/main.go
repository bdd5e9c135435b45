// Command replay feeds a JSONL event dump through the mapping engine without
// starting the API server. Because every handler is idempotent, replaying a
// dump over an already populated store repairs gaps without double-counting.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/ingest"
	"github.com/learnledger/indexer/internal/mapping"
	"github.com/learnledger/indexer/internal/repository"
	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/config"
	"github.com/learnledger/indexer/pkg/database"
	"github.com/learnledger/indexer/pkg/logger"
)

func main() {
	file := flag.String("file", "", "path to the JSONL event dump")
	flag.Parse()

	if *file == "" {
		log.Fatal("usage: replay -file <dump.jsonl>")
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

	var backend store.Backend
	if cfg.Ingest.StoreDriver == config.StoreMemory {
		backend = store.NewMemory()
	} else {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to open database", "error", err)
		}
		backend = repository.NewPostgres(db)
	}
	defer backend.Close() //nolint:errcheck

	var reader chain.Reader = chain.StaticReader{}
	if cfg.Chain.RPCURL != "" {
		reader = chain.NewRPCReader(cfg.Chain.RPCURL, cfg.Chain.Timeout,
			cfg.Chain.CatalogAddr, cfg.Chain.CertificateAddr, logr.Named("chain"))
	}

	metrics := service.NewMetricsService()
	strictEnums := cfg.Env != config.EnvProduction
	engine := mapping.NewEngine(reader, cfg.Fees, strictEnums, logr.Named("mapping"), metrics)

	src, err := ingest.NewFileSource(*file)
	if err != nil {
		logr.Sugar().Fatalw("failed to open dump", "file", *file, "error", err)
	}
	defer src.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := ingest.NewRunner(backend, engine, src, logr.Named("replay"))
	if err := runner.Run(ctx); err != nil {
		logr.Sugar().Fatalw("replay failed", "error", err)
	}
	logr.Sugar().Infow("replay finished", "file", *file, "processed", runner.Processed())
}
