package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/slidecast/internal/config"
	logpkg "github.com/local/slidecast/internal/logger"
	"github.com/local/slidecast/internal/metrics"
	"github.com/local/slidecast/internal/pipeline"
	"github.com/local/slidecast/internal/queue"
	"github.com/local/slidecast/internal/server"
	"github.com/local/slidecast/internal/statuscheck"
	"github.com/local/slidecast/internal/storage"
	"github.com/local/slidecast/internal/store"
	"github.com/local/slidecast/internal/worker"
)

func main() {
	_ = godotenv.Load()

	var (
		input  = flag.String("input", "", "source document (pdf or office format)")
		slides = flag.Int("slides", 0, "slide budget (0 uses SLIDE_COUNT)")
		outDir = flag.String("out", "out", "output directory for one-shot mode")
		serve  = flag.Bool("serve", false, "run the HTTP server and queue workers")
	)
	flag.Parse()

	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	if *serve {
		runServer(cfg)
		return
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: slidecast -input document.pdf [-slides N] [-out dir], or slidecast -serve")
		os.Exit(2)
	}
	runOnce(cfg, *input, *slides, *outDir)
}

// runOnce renders a single document and prints a short report.
func runOnce(cfg cfgpkg.Config, input string, slides int, outDir string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := pipeline.New(cfg).Run(ctx, pipeline.Request{
		Input:      input,
		SlideCount: slides,
		OutDir:     outDir,
	})
	if err != nil {
		log.Error().Err(err).Msg("render failed")
		fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("produced %d of %d slides\n", res.Produced, res.Requested)
	if res.BudgetShortfall {
		fmt.Println("warning: slide budget unreachable, emitted best effort")
	}
	fmt.Printf("deck:   %s\n", res.DeckPath)
	fmt.Printf("script: %s\n", res.ScriptPath)
	if res.VideoPath != "" {
		fmt.Printf("video:  %s (%s)\n", res.VideoPath, res.Runtime.Round(time.Second))
	}
}

// runServer wires the queue, status store, workers and HTTP front end.
func runServer(cfg cfgpkg.Config) {
	rq, err := queue.New(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rq.Close()

	rs, err := store.New(cfg.Queue.RedisURL, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init redis status store")
	}
	defer rs.Close()

	var s3store *storage.S3Store
	var uploader worker.Uploader
	if cfg.Storage.Upload || cfg.Storage.Bucket != "" {
		s3store, err = storage.New(context.Background(), cfg.Storage.Bucket, cfg.Storage.Prefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init s3 storage")
		}
		if cfg.Storage.Upload {
			uploader = s3store
		}
	}

	checker := statuscheck.New(statuscheck.Options{
		Redis:     rq,
		S3:        pingerOrNil(s3store),
		TTSBinary: cfg.TTS.Binary,
		FFmpeg:    cfg.Video.FFmpegBinary,
		Soffice:   cfg.Converter.Binary,
	})

	mux := http.NewServeMux()
	srv := server.New(server.Dependencies{
		Queue:         rq,
		Status:        rs,
		Checker:       checker,
		DataDir:       cfg.Server.DataDir,
		DefaultSlides: cfg.Pipeline.SlideCount,
	})
	srv.RegisterRoutes(mux)

	wk := worker.New(cfg, rq, rs, uploader)
	wk.Start()

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	_ = wk.Stop(ctx)
	fmt.Println("shutdown complete")
}

// pingerOrNil avoids a typed-nil interface when s3 is unconfigured.
func pingerOrNil(s *storage.S3Store) statuscheck.Pinger {
	if s == nil {
		return nil
	}
	return s
}
