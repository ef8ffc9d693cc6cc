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

	"github.com/joho/godotenv"
	"github.com/zhouzirui/persona-probe/backend/internal/config"
	"github.com/zhouzirui/persona-probe/backend/internal/handler"
	"github.com/zhouzirui/persona-probe/backend/internal/model/persona"
	"github.com/zhouzirui/persona-probe/backend/internal/observability"
	"github.com/zhouzirui/persona-probe/backend/internal/service/ai"
	"github.com/zhouzirui/persona-probe/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	catalog := persona.DefaultCatalog()
	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	broadcaster := chat.NewBroadcaster()

	// 未配置模型时会话仍可创建，发送消息会以生成失败返回
	var generator chat.Generator
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - 请检查模型相关环境变量")
		} else {
			generator = aiService
			log.Printf("AI service initialized successfully (provider=%s)", aiService.Provider())
		}
	} else {
		log.Println("模型凭证未配置，跳过 AI 功能初始化")
	}

	registry := chat.NewRegistry(catalog.Personas, generator,
		chat.WithMetrics(metrics),
		chat.WithEvents(broadcaster),
		chat.WithIDLength(cfg.Session.IDLength),
	)

	router := handler.NewRouter(catalog, registry, broadcaster, metrics)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Persona probe backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
