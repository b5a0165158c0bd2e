package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/teemap/internal/datafile"
	"github.com/annel0/teemap/internal/eventbus"
	"github.com/annel0/teemap/internal/logging"
	"github.com/annel0/teemap/internal/mapitem"
	"github.com/annel0/teemap/internal/middleware"
	"github.com/annel0/teemap/internal/observability"
	"github.com/annel0/teemap/internal/storage"
	"github.com/annel0/teemap/internal/teemap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultMaxUploadBytes ограничивает размер загружаемого файла карты.
const DefaultMaxUploadBytes = 32 << 20

// SummaryStore - хранилище сводок карт.
type SummaryStore interface {
	Save(s teemap.Summary) error
	Load(checksum uint64) (*teemap.Summary, error)
	List() ([]teemap.Summary, error)
}

// RestServer представляет REST API для загрузки карт и просмотра сводок.
type RestServer struct {
	router  *gin.Engine
	httpSrv *http.Server
	store   SummaryStore
	loader  teemap.Options
	metrics *ServerMetrics
	events  eventbus.EventBus
	maxBody int64
	log     *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr string // адрес для запуска сервера
	// Store может быть nil: тогда карты только декодируются.
	Store  SummaryStore
	Loader teemap.Options
	// Events получает MapLoaded/MapRejected; nil отключает публикацию.
	Events eventbus.EventBus
	// Registry получает HTTP-метрики и отдаётся по /metrics.
	Registry       *prometheus.Registry
	MaxUploadBytes int64
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("teemap_api"))

	log := logging.GetComponentLogger("api")
	router.Use(middleware.NewRequestLogger(log).Handler())

	promMw := middleware.NewPrometheusMiddleware("teemap_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	server := &RestServer{
		router:  router,
		store:   config.Store,
		loader:  config.Loader,
		metrics: NewServerMetrics(config.Loader.BlockCache),
		events:  config.Events,
		maxBody: config.MaxUploadBytes,
		log:     log,
	}
	server.httpSrv = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/server", rs.handleServerInfo)

		maps := api.Group("/maps")
		maps.GET("", rs.handleListMaps)
		maps.POST("", rs.handleUploadMap)
		maps.GET("/:checksum", rs.handleGetMap)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler сервера (для тестов и встраивания).
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

// DecodeErrorResponse описывает отклонённую карту. Kind и ID заполняются,
// когда ошибка относится к конкретному элементу.
type DecodeErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	ID      *int   `json:"id,omitempty"`
}

func failDecode(c *gin.Context, err error) {
	resp := DecodeErrorResponse{Message: "Карта отклонена", Error: err.Error()}
	var de *mapitem.DecodeError
	if errors.As(err, &de) {
		resp.Kind = de.Kind.String()
		id := de.ID
		resp.ID = &id
	}
	c.JSON(uploadStatus(err), resp)
}

// handleUploadMap декодирует карту из тела запроса и сохраняет её сводку.
func (rs *RestServer) handleUploadMap(c *gin.Context) {
	ctx, span := observability.Tracer().Start(c.Request.Context(), "teemap.load")
	defer span.End()

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, rs.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "Файл карты слишком большой")
			return
		}
		fail(c, http.StatusBadRequest, "Не удалось прочитать тело запроса")
		return
	}
	span.SetAttributes(attribute.Int("teemap.bytes", len(data)))

	m, err := teemap.LoadBytes(data, rs.loader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		rs.log.Warn("upload of %d bytes rejected: %v", len(data), err)
		rs.publish(ctx, func() (*eventbus.Envelope, error) {
			return eventbus.NewMapRejected("api", eventbus.MapRejected{Origin: "upload", Bytes: len(data), Error: err.Error()})
		})
		failDecode(c, err)
		return
	}
	summary := m.Summary()
	span.SetAttributes(
		attribute.String("teemap.load_id", m.LoadID),
		attribute.Int("teemap.groups", summary.Groups),
		attribute.Int("teemap.layers", summary.Layers),
	)

	if rs.store != nil {
		if err := rs.saveSummary(ctx, summary); err != nil {
			rs.log.Error("❌ Ошибка сохранения сводки %016x: %v", summary.Checksum, err)
			fail(c, http.StatusInternalServerError, "Ошибка сохранения сводки")
			return
		}
	}

	rs.publish(ctx, func() (*eventbus.Envelope, error) {
		return eventbus.NewMapLoaded("api", summary)
	})

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Карта загружена",
		Data:    summary,
	})
}

func (rs *RestServer) saveSummary(ctx context.Context, s teemap.Summary) error {
	_, span := observability.Tracer().Start(ctx, "teemap.store")
	defer span.End()
	if err := rs.store.Save(s); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return err
	}
	return nil
}

// publish отправляет событие, если шина настроена. Ошибки только логируются.
func (rs *RestServer) publish(ctx context.Context, build func() (*eventbus.Envelope, error)) {
	if rs.events == nil {
		return
	}
	ev, err := build()
	if err == nil {
		err = rs.events.Publish(ctx, ev)
	}
	if err != nil {
		rs.log.Warn("event publish failed: %v", err)
	}
}

// uploadStatus выбирает код ответа: повреждённый контейнер - 400,
// ошибка декодирования элементов - 422.
func uploadStatus(err error) int {
	switch {
	case errors.Is(err, datafile.ErrBadHeader),
		errors.Is(err, datafile.ErrTruncated),
		errors.Is(err, datafile.ErrUnsupportedVersion):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// handleListMaps возвращает все сохранённые сводки.
func (rs *RestServer) handleListMaps(c *gin.Context) {
	if rs.store == nil {
		fail(c, http.StatusServiceUnavailable, "Хранилище не настроено")
		return
	}
	summaries, err := rs.store.List()
	if err != nil {
		rs.log.Error("❌ Ошибка чтения хранилища: %v", err)
		fail(c, http.StatusInternalServerError, "Ошибка чтения хранилища")
		return
	}
	if summaries == nil {
		summaries = []teemap.Summary{}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список карт",
		Data: map[string]interface{}{
			"maps":  summaries,
			"total": len(summaries),
		},
	})
}

// handleGetMap возвращает сводку по контрольной сумме (hex).
func (rs *RestServer) handleGetMap(c *gin.Context) {
	if rs.store == nil {
		fail(c, http.StatusServiceUnavailable, "Хранилище не настроено")
		return
	}
	param := c.Param("checksum")
	if len(param) != 16 {
		fail(c, http.StatusBadRequest, "Неверная контрольная сумма")
		return
	}
	checksum, err := strconv.ParseUint(param, 16, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Неверная контрольная сумма")
		return
	}

	summary, err := rs.store.Load(checksum)
	if errors.Is(err, storage.ErrSummaryNotFound) {
		fail(c, http.StatusNotFound, "Карта не найдена")
		return
	}
	if err != nil {
		rs.log.Error("❌ Ошибка чтения сводки %016x: %v", checksum, err)
		fail(c, http.StatusInternalServerError, "Ошибка чтения хранилища")
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сводка карты",
		Data:    summary,
	})
}

// handleServerInfo возвращает состояние процесса и кеша блоков.
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	data := map[string]interface{}{
		"uptime": rs.metrics.GetUptime(),
		"memory": rs.metrics.GetDetailedMemoryStats(),
	}
	if cpu, err := rs.metrics.GetCPUUsage(); err == nil {
		data["cpu_percent"] = cpu
	}
	if cacheMetrics, ok := rs.metrics.BlockCacheMetrics(); ok {
		data["block_cache"] = cacheMetrics
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    data,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до остановки.
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API: http://localhost%s", rs.httpSrv.Addr)
	if err := rs.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает сервер, дожидаясь завершения активных запросов.
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpSrv.Shutdown(ctx)
}
