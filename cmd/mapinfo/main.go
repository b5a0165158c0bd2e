package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/teemap/internal/api"
	"github.com/annel0/teemap/internal/cache"
	"github.com/annel0/teemap/internal/config"
	"github.com/annel0/teemap/internal/eventbus"
	"github.com/annel0/teemap/internal/logging"
	"github.com/annel0/teemap/internal/observability"
	"github.com/annel0/teemap/internal/storage"
	"github.com/annel0/teemap/internal/teemap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "YAML config path (defaults to $TEEMAP_CONFIG)")
		asJSON     = flag.Bool("json", false, "Print summaries as JSON")
		list       = flag.Bool("list", false, "List stored summaries instead of loading maps")
		save       = flag.Bool("save", false, "Store summaries of loaded maps")
		hold       = flag.Bool("hold", false, "Keep serving /metrics after loading until interrupted")
		serve      = flag.Bool("serve", false, "Run the REST API for uploading maps and browsing summaries")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger("mapinfo"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	level := logging.ParseLevel(cfg.Logging.Level)
	logging.SetDefaultLevel(level)
	logging.GetLoggerManager().SetLevel(level)
	defer logging.GetLoggerManager().CloseAll()

	var store storage.SummaryRepo
	if cfg.Storage.Configured() && (*save || *list || *serve) {
		store, err = openStore(cfg.Storage)
		if err != nil {
			logging.Error("❌ Ошибка открытия хранилища: %v", err)
			return 1
		}
		defer store.Close()
	} else if *save || *list {
		logging.Error("❌ Хранилище не настроено (storage.path или TEEMAP_STORAGE_PATH)")
		return 1
	}

	if *list {
		summaries, err := store.List()
		if err != nil {
			logging.Error("❌ Ошибка чтения хранилища: %v", err)
			return 1
		}
		for _, s := range summaries {
			printSummary(s, *asJSON)
		}
		return 0
	}

	opts := teemap.Options{StrictQuadCount: cfg.Loader.StrictQuadCount}
	if size := cfg.Loader.GetBlockCacheBytes(); size > 0 {
		bc, err := cache.NewBlockCache(size)
		if err != nil {
			logging.Error("❌ Ошибка создания кеша: %v", err)
			return 1
		}
		defer bc.Close()
		opts.BlockCache = bc
	}

	reg := prometheus.NewRegistry()
	bus, err := newEventBus(cfg.Events)
	if err != nil {
		logging.Error("❌ Ошибка подключения шины событий: %v", err)
		return 1
	}
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(context.Background(), bus); err != nil {
		logging.Warn("⚠️ LoggingListener: %v", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start()
	defer exporter.Stop()

	if *serve {
		opts.Metrics = teemap.NewMetrics(reg)
		return serveAPI(cfg, opts, reg, store, bus)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: mapinfo [flags] map.map...")
		flag.PrintDefaults()
		return 2
	}

	metricsAddr := cfg.Metrics.GetMetricsAddr()
	if metricsAddr != "" {
		opts.Metrics = teemap.NewMetrics(reg)
		go func() {
			logging.Info("📈 Prometheus /metrics доступен по адресу %s", metricsAddr)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
			}
		}()
	}

	failed := 0
	for _, path := range flag.Args() {
		m, err := teemap.LoadFile(path, opts)
		if err != nil {
			logging.Error("❌ %v", err)
			publish(bus, func() (*eventbus.Envelope, error) {
				return eventbus.NewMapRejected("mapinfo", eventbus.MapRejected{Origin: path, Error: err.Error()})
			})
			failed++
			continue
		}
		s := m.Summary()
		publish(bus, func() (*eventbus.Envelope, error) {
			return eventbus.NewMapLoaded("mapinfo", s)
		})
		printSummary(s, *asJSON)
		if *save {
			if err := store.Save(s); err != nil {
				logging.Error("❌ Ошибка сохранения сводки %s: %v", path, err)
				failed++
			}
		}
	}

	if *hold && metricsAddr != "" {
		waitForSignal()
	}

	if failed > 0 {
		return 1
	}
	return 0
}

// serveAPI запускает REST API и блокируется до сигнала завершения.
func serveAPI(cfg *config.Config, opts teemap.Options, reg *prometheus.Registry, store storage.SummaryRepo, bus eventbus.EventBus) int {
	if cfg.Tracing.Enabled {
		shutdown, err := observability.InitTelemetry(context.Background(), "teemap", cfg.Tracing.GetEndpoint())
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("OpenTelemetry shutdown: %v", err)
				}
			}()
		}
	}

	srvCfg := api.Config{
		Addr:           cfg.API.GetAddr(),
		Loader:         opts,
		Registry:       reg,
		Events:         bus,
		MaxUploadBytes: cfg.API.GetMaxUploadBytes(),
	}
	if store != nil {
		srvCfg.Store = store
	} else {
		logging.Warn("⚠️ Хранилище не настроено, сводки не сохраняются")
	}
	server := api.NewRestServer(srvCfg)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
		return 1
	}
	logging.Info("👋 Сервер успешно остановлен")
	return 0
}

func openStore(cfg config.StorageConfig) (storage.SummaryRepo, error) {
	return storage.Open(storage.Options{
		Backend:   cfg.GetBackend(),
		Path:      cfg.GetPath(),
		MariaDSN:  cfg.GetMariaDSN(),
		Mongo:     storage.MongoConfig{URI: cfg.GetMongoURI(), Database: cfg.MongoDB},
		RedisAddr: cfg.GetRedisAddr(),
		RedisTTL:  cfg.GetRedisTTL(),
	})
}

// newEventBus подключается к JetStream, если задан адрес NATS, иначе создаёт in-memory шину.
func newEventBus(cfg config.EventsConfig) (eventbus.EventBus, error) {
	url := cfg.GetNatsURL()
	if url == "" {
		return eventbus.NewMemoryBus(64), nil
	}
	bus, err := eventbus.NewJetStreamBus(url, cfg.Stream, cfg.GetRetention())
	if err != nil {
		return nil, err
	}
	logging.Info("📨 JetStream подключён: %s", url)
	return bus, nil
}

func publish(bus eventbus.EventBus, build func() (*eventbus.Envelope, error)) {
	ev, err := build()
	if err == nil {
		err = bus.Publish(context.Background(), ev)
	}
	if err != nil {
		logging.Warn("⚠️ Ошибка публикации события: %v", err)
	}
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
}

func printSummary(s teemap.Summary, asJSON bool) {
	if asJSON {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			logging.Error("ошибка сериализации: %v", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("map %016x (load %s)\n", s.Checksum, s.LoadID)
	if s.Author != "" {
		fmt.Printf("  author:   %s\n", s.Author)
	}
	if s.MapVersion != "" {
		fmt.Printf("  version:  %s\n", s.MapVersion)
	}
	if s.Credits != "" {
		fmt.Printf("  credits:  %s\n", s.Credits)
	}
	if s.License != "" {
		fmt.Printf("  license:  %s\n", s.License)
	}
	fmt.Printf("  size:     %dx%d\n", s.Width, s.Height)
	fmt.Printf("  groups:   %d, layers: %d, envelopes: %d (%d points)\n", s.Groups, s.Layers, s.Envelopes, s.Envpoints)
	fmt.Printf("  tele: %v, speedup: %v, settings: %d\n", s.HasTele, s.HasSpeedup, len(s.Settings))
	for _, img := range s.Images {
		kind := "embedded"
		if img.External {
			kind = "external"
		}
		fmt.Printf("  image:    %s %s (%s)\n", img.Name, img.Resolution, kind)
	}
}
