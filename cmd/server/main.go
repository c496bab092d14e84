package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"shopcraft.gg/internal/items"
	"shopcraft.gg/internal/market"
	"shopcraft.gg/internal/persistence/balancedb"
	persistlog "shopcraft.gg/internal/persistence/log"
	"shopcraft.gg/internal/persistence/shopfile"
	"shopcraft.gg/internal/transport/ws"
)

func main() {
	var (
		addr      = flag.String("addr", ":8080", "http listen address")
		worldID   = flag.String("world", "world_1", "world id")
		configDir = flag.String("configs", "./configs", "config directory")
		dataDir   = flag.String("data", "./data", "runtime data directory")
		opTokens  = flag.String("op_tokens", "", "comma-separated auth tokens granting admin capability")
		opActors  = flag.String("op_actors", "", "comma-separated actor ids granting admin capability")
		cooldown  = flag.Duration("cooldown", 250*time.Millisecond, "per actor+listing transaction cooldown")
		reconcile = flag.Duration("reconcile", 30*time.Second, "balance re-broadcast interval (0 disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	defs, err := items.Load(*configDir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("definitions not found in %s; using defaults", *configDir)
			defs = items.Defaults()
		} else {
			logger.Fatalf("load definitions: %v", err)
		}
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	store, err := shopfile.Open(worldDir, logger)
	if err != nil {
		logger.Fatalf("open shop store: %v", err)
	}

	bdb, err := balancedb.Open(filepath.Join(worldDir, "balances.db"))
	if err != nil {
		logger.Fatalf("open balance db: %v", err)
	}
	defer bdb.Close()

	m := market.New(market.Config{
		WorldID:        *worldID,
		CooldownWindow: *cooldown,
		ReconcileEvery: *reconcile,
		OpTokens:       splitList(*opTokens),
		OpActors:       splitList(*opActors),
	}, defs, store, logger)

	balances, err := bdb.LoadAll(context.Background())
	if err != nil {
		logger.Fatalf("load balances: %v", err)
	}
	m.SeedBalances(balances)
	m.SetLedgerSink(bdb.Sink())

	opsLog := persistlog.NewOpsLogger(worldDir)
	defer opsLog.Close()
	m.SetOpsLogger(opsLog)

	// Overflow purchases land here; a game host would spawn the stack next
	// to the buyer instead.
	m.SetDropFunc(func(actorID string, st items.Stack) {
		logger.Printf("world drop: actor=%s %dx %s", actorID, st.Count, st.Type)
	})

	seed, err := shopfile.LoadSeed(filepath.Join(*configDir, "bootstrap.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load bootstrap catalog: %v", err)
		}
		seed = shopfile.DefaultSeed()
	}
	m.Bootstrap(seed)

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := m.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("market stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(m, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world=%s listening on %s", *worldID, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
