package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hdp-go/hdp/internal/kvtrie/service"
)

// main wires the KV-Trie Engine's HTTP surface (internal/kvtrie/service)
// into a standalone server, grounded on geth-17-indexer's flag+log.Fatalf
// idiom. Each labeled trie persists its own store under <dir>/<label>.db.
func main() {
	addr := flag.String("addr", ":8551", "listen address")
	dir := flag.String("dir", "./trie-data", "directory each labeled trie persists its store under")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("state-server: prepare data dir %s: %v", *dir, err)
	}

	svc := service.New(*dir)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      svc.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("state-server: shutdown: %v", err)
		}
	}()

	log.Printf("state-server: listening on %s, persisting under %s", *addr, *dir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("state-server: %v", err)
	}
}
