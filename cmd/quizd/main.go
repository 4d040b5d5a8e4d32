package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/content"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/exam"
	"github.com/mind-engage/mindengage-quiz/internal/practice"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
	"github.com/mind-engage/mindengage-quiz/internal/transfer"
	"github.com/mind-engage/mindengage-quiz/internal/wrongbook"
)

func main() {
	cfg := config.Load()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Services ---
	ledger := wrongbook.New(dbh)
	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	cs := content.NewService(dbh)
	exams := exam.NewService(dbh, ledger, events)

	h := api.NewRouter(api.Deps{
		Config:      cfg,
		DB:          dbh,
		Auth:        auth.NewAuthService(cfg.AuthHMACSecret, cfg.AuthTokenTTL),
		Credentials: auth.NewSQLCredentials(dbh),
		Content:     cs,
		Exams:       exams,
		Practice:    practice.NewService(dbh, ledger),
		Wrongbook:   ledger,
		Transfer:    transfer.NewService(dbh, cs),
		Blobs:       bs,
		Events:      events,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OverdueSweepInterval > 0 {
		go sweepOverdue(runCtx, exams, cfg.OverdueSweepInterval)
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s (mode=%s, db=%s, site=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.SiteID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// sweepOverdue refreshes the overdue-exam gauge until ctx is done.
func sweepOverdue(ctx context.Context, exams *exam.Service, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := exams.SweepOverdue(ctx)
			if err != nil {
				log.Printf("overdue sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("overdue sweep: %d exams past their window", n)
			}
		}
	}
}
