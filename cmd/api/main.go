package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"shorty.local/gee"
	"shorty.local/gee/middleware"
	"shorty.local/internal/app/links"
	linkcache "shorty.local/internal/app/links/cache"
	"shorty.local/internal/app/links/events"
	"shorty.local/internal/app/links/httpapi"
	"shorty.local/internal/platform/auth"
	platformcache "shorty.local/internal/platform/cache"
	"shorty.local/internal/platform/config"
	"shorty.local/internal/platform/httpmiddleware"
	"shorty.local/internal/platform/httpserver"
	"shorty.local/internal/platform/metrics"
	"shorty.local/internal/platform/trace"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})).With("service", cfg.ServiceName))

	// 存储
	dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := openStorage(dbCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	defer store.close()
	slog.Info("storage ready", "driver", cfg.DBDriver)

	metrics.Init()

	if cfg.TracingEnabled {
		shutdown, err := trace.InitTrace(cfg.OtlpGrpcEndpoint, cfg.OtlpServiceName, version)
		if err != nil {
			slog.Error("trace init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					slog.Error("trace shutdown failed", "err", err)
				}
			}()
		}
	} else {
		slog.Warn("tracing disabled by config", "TRACING_ENABLED", false)
	}

	opts := []links.Option{}

	// 布隆过滤器：预期 100 万短码，1% 误判率
	bloomFilter := linkcache.NewBloomFilter(1_000_000, 0.01)
	warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if n, err := bloomFilter.Warm(warmCtx, store.links.Codes); err != nil {
		slog.Warn("bloom warmup failed", "err", err)
	} else {
		slog.Info("bloom warmed", "codes", n)
	}
	cancel()
	opts = append(opts, links.WithCodeFilter(bloomFilter))

	// 负缓存
	if cfg.CacheEnabled {
		localCache, err := linkcache.NewLocalCache(100_000, 100_000)
		if err != nil {
			log.Fatal(err)
		}
		redisClient, err := platformcache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, miss cache runs on local layer only", "err", err)
		} else {
			defer redisClient.Close()
		}
		missCache := linkcache.NewMissCache(redisClient, localCache)
		defer missCache.Close()
		opts = append(opts, links.WithMissCache(missCache))
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 事件（Kafka 或进程内 channel + 日志）
	var publisher events.Publisher
	var drained chan struct{}
	if cfg.KafkaEnabled {
		slog.Info("publishing link events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		ch := events.NewChannelPublisher(10_000)
		drained = make(chan struct{})
		go func() {
			defer close(drained)
			// 不跟随 stopCtx：由 Close 结束，缓冲里剩下的事件先写完
			events.NewLogSink(ch).Run(context.Background())
		}()
		publisher = ch
	}
	defer func() {
		publisher.Close()
		if drained != nil {
			<-drained
		}
	}()
	opts = append(opts, links.WithPublisher(publisher))

	svc := links.NewService(store.links, links.NewGenerator(cfg.CodeGenerator, cfg.CodeLength), opts...)

	ts, err := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}

	// 对外业务
	r := gee.New()
	r.Use(gee.Recovery(), middleware.ReqID(), middleware.AccessLog(), httpmiddleware.Metrics(), httpmiddleware.TraceName())
	httpapi.RegisterRoutes(r, svc, store.users, ts)
	r.GET("/healthz", func(ctx *gee.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	publicHandler := http.Handler(r)
	if cfg.TracingEnabled {
		publicHandler = otelhttp.NewHandler(r, "http")
	}
	publicSrv := httpserver.New(cfg, publicHandler)

	// 仅本机/内网
	adminSrv := httpserver.NewAdmin(cfg, adminMux(cfg, store))

	errch := make(chan error, 2)
	go func() {
		errch <- httpserver.Run(stopCtx, publicSrv, cfg.ShutdownTimeout)
	}()
	go func() {
		errch <- httpserver.Run(stopCtx, adminSrv, cfg.ShutdownTimeout)
	}()
	slog.Info("listening", "addr", cfg.Addr, "admin_addr", cfg.AdminAddr)

	if err := <-errch; err != nil {
		stop()
		select {
		case <-errch:
		case <-time.After(cfg.ShutdownTimeout + time.Second):
		}
		slog.Error("server exited", "err", err)
		return
	}
	stop()
	<-errch
	slog.Info("shutdown complete")
}

func adminMux(cfg config.Config, store *storage) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := store.links.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("db not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service_name": cfg.ServiceName,
			"version":      version,
			"commit":       commit,
			"build_time":   buildTime,
			"go_version":   runtime.Version(),
		})
	})

	if cfg.PprofEnabled {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
