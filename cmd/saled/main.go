package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Alium-Finance/alium-collectible/config"
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/exchange"
	"github.com/Alium-Finance/alium-collectible/native/sale"
	"github.com/Alium-Finance/alium-collectible/native/token"
	"github.com/Alium-Finance/alium-collectible/native/vesting"
	"github.com/Alium-Finance/alium-collectible/observability/logging"
	"github.com/Alium-Finance/alium-collectible/rpc"
	"github.com/Alium-Finance/alium-collectible/storage/salestore"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "saled.toml", "path to daemon configuration")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("ALM_ENV"))
	logger := logging.Setup("saled", env)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data dir", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	store, err := salestore.Open(filepath.Join(cfg.DataDir, "sale.db"))
	if err != nil {
		logger.Error("open sale store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	owner := config.MustAddress(cfg.Owner)
	founder := config.MustAddress(cfg.Founder)
	publicSelf := requireAddress(logger, "PublicSale.Address", cfg.PublicSale.Address)
	strategicSelf := requireAddress(logger, "StrategicSale.Address", cfg.StrategicSale.Address)
	exchangerSelf := requireAddress(logger, "Exchanger.Address", cfg.Exchanger.Address)

	// The bbolt buckets carry engine state; the snapshots carry the registry,
	// bank and freezer the engines collaborate with. Restoring both keeps
	// supply counters, item ids and balances aligned across restarts.
	var registry *catalog.Registry
	var catalogSnap catalog.RegistrySnapshot
	restored, err := store.LoadSnapshot(salestore.SnapshotCatalog, &catalogSnap)
	if err != nil {
		logger.Error("load catalog snapshot", "error", err)
		os.Exit(1)
	}
	if restored {
		registry = catalog.RestoreRegistry(catalogSnap)
		logger.Info("catalog restored", "types", len(catalogSnap.Types), "items", len(catalogSnap.Items))
	} else {
		registry = catalog.NewRegistry(owner)
		for _, seed := range cfg.CatalogTypes {
			id, err := registry.CreateType(owner, seed.NominalPrice, seed.Supply, seed.Info)
			if err != nil {
				logger.Error("seed catalog type", "error", err)
				os.Exit(1)
			}
			logger.Info("catalog type seeded", "typeId", uint64(id), "supply", seed.Supply)
		}
	}
	for _, minter := range []types.Address{publicSelf, strategicSelf} {
		if err := registry.AddMinter(owner, minter); err != nil {
			logger.Error("register minter", "minter", minter.Hex(), "error", err)
			os.Exit(1)
		}
	}

	bank := token.NewBank()
	var bankSnap token.BankSnapshot
	restored, err = store.LoadSnapshot(salestore.SnapshotBank, &bankSnap)
	if err != nil {
		logger.Error("load bank snapshot", "error", err)
		os.Exit(1)
	}
	if restored {
		bank, err = token.RestoreBank(bankSnap)
		if err != nil {
			logger.Error("restore bank snapshot", "error", err)
			os.Exit(1)
		}
		logger.Info("bank restored", "assets", len(bankSnap.Assets))
	}
	for _, coin := range cfg.Stablecoins {
		asset := config.MustAddress(coin.Address)
		if _, ok := bank.Ledger(asset); ok {
			continue
		}
		decimals := coin.Decimals
		if decimals == 0 {
			decimals = token.DefaultDecimals
		}
		bank.Register(asset, token.NewLedger(coin.Name, coin.Symbol, decimals))
	}

	freezer := vesting.NewFreezer()
	var freezerSnap vesting.FreezerSnapshot
	restored, err = store.LoadSnapshot(salestore.SnapshotFreezer, &freezerSnap)
	if err != nil {
		logger.Error("load freezer snapshot", "error", err)
		os.Exit(1)
	}
	if restored {
		freezer = vesting.RestoreFreezer(freezerSnap)
	}

	publicTypes := make([]sale.TypeSeed, len(cfg.PublicSale.Types))
	for i, seed := range cfg.PublicSale.Types {
		publicTypes[i] = sale.TypeSeed{ID: catalog.TypeID(seed.TypeID), BuyLimit: seed.BuyLimit}
	}
	public, err := sale.NewPublicEngine(sale.PublicConfig{
		Owner:       owner,
		Founder:     founder,
		Self:        publicSelf,
		Collectible: registry,
		Stables:     bank,
		State:       store.WithScope("public"),
		Types:       publicTypes,
		Stablecoins: parseAddresses(cfg.PublicSale.Stablecoins),
	})
	if err != nil {
		logger.Error("init public sale engine", "error", err)
		os.Exit(1)
	}
	var memberSnap []types.Address
	restored, err = store.LoadSnapshot(salestore.SnapshotMembers, &memberSnap)
	if err != nil {
		logger.Error("load member snapshot", "error", err)
		os.Exit(1)
	}
	if restored && len(memberSnap) > 0 {
		if err := public.AddMembers(owner, memberSnap...); err != nil {
			logger.Error("restore public sale members", "error", err)
			os.Exit(1)
		}
	}

	strategic, err := sale.NewStrategicEngine(sale.StrategicConfig{
		Owner:       owner,
		Founder:     founder,
		Self:        strategicSelf,
		Collectible: registry,
		Stables:     bank,
		State:       store.WithScope("strategic"),
		Types:       typeIDs(cfg.StrategicSale.Types),
		Stablecoins: parseAddresses(cfg.StrategicSale.Stablecoins),
		WhiteList:   parseAddresses(cfg.StrategicSale.WhiteList),
	})
	if err != nil {
		logger.Error("init strategic sale engine", "error", err)
		os.Exit(1)
	}

	exchanger, err := exchange.NewEngine(exchange.Config{
		Owner:        owner,
		Self:         exchangerSelf,
		Collectible:  registry,
		Achievements: registry,
		Freezer:      freezer,
		State:        store,
		Types:        typeIDs(cfg.Exchanger.Types),
	})
	if err != nil {
		logger.Error("init exchanger engine", "error", err)
		os.Exit(1)
	}

	checkpoint := func() error {
		if err := store.SaveSnapshot(salestore.SnapshotCatalog, registry.Snapshot()); err != nil {
			return err
		}
		if err := store.SaveSnapshot(salestore.SnapshotBank, bank.Snapshot()); err != nil {
			return err
		}
		if err := store.SaveSnapshot(salestore.SnapshotFreezer, freezer.Snapshot()); err != nil {
			return err
		}
		return store.SaveSnapshot(salestore.SnapshotMembers, public.Members())
	}
	if err := checkpoint(); err != nil {
		logger.Error("write boot snapshot", "error", err)
		os.Exit(1)
	}

	server := rpc.NewServer(rpc.Config{
		Logger: logger,
		RateLimit: rpc.RateLimit{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Burst:             cfg.RateLimitBurst,
		},
		Public:     public,
		Strategic:  strategic,
		Exchanger:  exchanger,
		Registry:   registry,
		Bank:       bank,
		Checkpoint: checkpoint,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", server.MetricsHandler())
	mux.Handle("/", server.Handler())

	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "address", cfg.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func requireAddress(logger *slog.Logger, field, value string) types.Address {
	if value == "" {
		logger.Error("missing required address", "field", field)
		os.Exit(1)
	}
	addr, err := types.ParseAddress(value)
	if err != nil {
		logger.Error("malformed address", "field", field, "error", err)
		os.Exit(1)
	}
	return addr
}

func parseAddresses(values []string) []types.Address {
	out := make([]types.Address, len(values))
	for i, value := range values {
		out[i] = config.MustAddress(value)
	}
	return out
}

func typeIDs(values []uint64) []catalog.TypeID {
	out := make([]catalog.TypeID, len(values))
	for i, value := range values {
		out[i] = catalog.TypeID(value)
	}
	return out
}
