package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carbonledger/internal/calculator"
	"carbonledger/internal/certificate"
	"carbonledger/internal/config"
	"carbonledger/internal/db"
	"carbonledger/internal/handlers"
	"carbonledger/internal/services"
	"carbonledger/internal/store"
	"carbonledger/internal/websocket"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	wallets := store.NewWalletStore(database)
	credits := store.NewCreditStore(database)
	issuances := store.NewIssuanceStore(database)
	transactions := store.NewTransactionStore(database)
	retirements := store.NewRetirementStore(database)
	applications := store.NewApplicationStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	renderer := certificate.NewRenderer(cfg.PlatformName)
	coinCalc := calculator.New(calculator.DefaultSequestrationRate)

	purchaseSvc := services.NewPurchaseService(txRunner, wallets, credits, transactions, audit, hub, cfg.WalletSeedCoins)
	retirementSvc := services.NewRetirementService(txRunner, wallets, retirements, transactions, audit, hub, renderer, cfg.CertificatePrefix, cfg.WalletSeedCoins)
	mintingSvc := services.NewMintingService(txRunner, issuances, credits, applications, transactions, audit, coinCalc)
	marketplaceSvc := services.NewMarketplaceService(txRunner, credits, audit)

	handler := handlers.New(cfg, credits, issuances, transactions, purchaseSvc, retirementSvc, mintingSvc, marketplaceSvc, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("carbon ledger API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
