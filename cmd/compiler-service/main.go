package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"javox/internal/compiler/cache"
	"javox/internal/compiler/controller"
	"javox/internal/compiler/pipeline"
	"javox/internal/compiler/stage"
	"javox/internal/compiler/workspace"
	"javox/pkg/utils/logger"
)

const defaultConfigPath = "configs/compiler_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	artifactCache, closeCache, err := buildCache(ctx, appCfg.Cache)
	if err != nil {
		logger.Error(ctx, "init artifact cache failed", zap.Error(err))
		return
	}
	defer closeCache()

	compiler, err := stage.NewCompiler(stage.CompilerConfig{
		JavacPath:      appCfg.Sandbox.JavacPath,
		ExtraFlags:     appCfg.Sandbox.ExtraCompileFlags,
		Timeout:        appCfg.Sandbox.CompileTimeout.Duration(),
		MaxOutputBytes: appCfg.Sandbox.MaxOutputBytes,
	})
	if err != nil {
		logger.Error(ctx, "init compile stage failed", zap.Error(err))
		return
	}

	executor, err := stage.NewExecutor(stage.ExecutorConfig{
		JavaPath:       appCfg.Sandbox.JavaPath,
		HeapMB:         appCfg.Sandbox.HeapMB,
		StackKB:        appCfg.Sandbox.StackKB,
		MetaspaceMB:    appCfg.Sandbox.MetaspaceMB,
		ExtraFlags:     appCfg.Sandbox.ExtraRuntimeFlags,
		Timeout:        appCfg.Sandbox.ExecuteTimeout.Duration(),
		MaxOutputBytes: appCfg.Sandbox.MaxOutputBytes,
		SampleInterval: appCfg.Sandbox.MemSampleInterval.Duration(),
	})
	if err != nil {
		logger.Error(ctx, "init execute stage failed", zap.Error(err))
		return
	}

	pipe, err := pipeline.New(pipeline.Config{
		Compiler:    compiler,
		Executor:    executor,
		Workspaces:  workspace.NewManager(appCfg.Sandbox.WorkRoot),
		Cache:       artifactCache,
		Concurrency: appCfg.Worker.PoolSize,
	})
	if err != nil {
		logger.Error(ctx, "init pipeline failed", zap.Error(err))
		return
	}

	ctrl := controller.NewCompilerController(pipe)
	router := controller.NewRouter(controller.RouterConfig{Mode: appCfg.Server.Mode}, ctrl)

	srv := &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  appCfg.Server.ReadTimeout.Duration(),
		WriteTimeout: appCfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  appCfg.Server.IdleTimeout.Duration(),
	}

	go func() {
		logger.Info(ctx, "compiler service listening", zap.String("addr", appCfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "graceful shutdown failed", zap.Error(err))
	}
}

// buildCache selects the Redis tier when configured, the in-process
// LRU otherwise.
func buildCache(ctx context.Context, cfg CacheConfig) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.MaxEntries, cfg.MaxBytes, cfg.TTL.Duration()), func() {}, nil
	}
	redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.TTL.Duration())
	if err != nil {
		return nil, nil, err
	}
	if err := redisCache.Ping(ctx); err != nil {
		_ = redisCache.Close()
		return nil, nil, err
	}
	return redisCache, func() { _ = redisCache.Close() }, nil
}
