package teemap

import (
	"errors"
	"fmt"
	"time"

	"github.com/annel0/teemap/internal/cache"
	"github.com/annel0/teemap/internal/datafile"
	"github.com/annel0/teemap/internal/logging"
	"github.com/annel0/teemap/internal/mapitem"
	"github.com/google/uuid"
)

// MapVersion - единственная поддерживаемая версия элемента версии карты.
const MapVersion = 1

var (
	ErrUnsupportedMapVersion = errors.New("unsupported map version")
	ErrQuadCountMismatch     = errors.New("quad count mismatch")
)

// Source - контейнер с таблицей элементов и пулом сжатых блоков.
type Source interface {
	mapitem.BlockSource
	// Items возвращает элементы типа kind в порядке файла.
	Items(kind mapitem.Kind) []mapitem.Item
}

// Options настраивает проход загрузки.
type Options struct {
	// Cache - кеш распакованных блоков этого источника.
	Cache mapitem.BlockCache
	// BlockCache используется LoadFile для получения Cache по контрольной сумме файла.
	BlockCache *cache.BlockCache
	Metrics    *Metrics
	Logger     *logging.Logger
	// StrictQuadCount превращает расхождение количества квадов в ошибку.
	StrictQuadCount bool
}

// Map - декодированная карта. Пулы заполняются в порядке файла,
// Layers - арена всех слоёв, на которую ссылаются группы.
type Map struct {
	LoadID   string
	Checksum uint64
	Version  int

	Info      *mapitem.Info
	Images    []*mapitem.Image
	Envpoints []mapitem.Envpoint
	Envelopes []*mapitem.Envelope
	Groups    []*mapitem.Group
	// Layers содержит nil на месте пропущенных слоёв неизвестного типа.
	Layers []*mapitem.Layer

	LoadedAt time.Time
}

// LoadFile открывает файл карты и декодирует его.
func LoadFile(path string, opts Options) (*Map, error) {
	f, err := datafile.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := loadDatafile(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadBytes декодирует карту из содержимого файла в памяти.
func LoadBytes(data []byte, opts Options) (*Map, error) {
	f, err := datafile.Parse(data)
	if err != nil {
		return nil, err
	}
	return loadDatafile(f, opts)
}

func loadDatafile(f *datafile.File, opts Options) (*Map, error) {
	if opts.Cache == nil && opts.BlockCache != nil {
		opts.Cache = opts.BlockCache.ForFile(f.Checksum)
	}
	m, err := Load(f, opts)
	if err != nil {
		return nil, err
	}
	m.Checksum = f.Checksum
	return m, nil
}

type loader struct {
	src      Source
	resolver *mapitem.Resolver
	opts     Options
	log      *logging.Logger
	m        *Map
}

// Load выполняет один проход декодирования: сначала пулы изображений и точек,
// затем огибающие, группы и слои, и в конце привязывает слои к группам.
func Load(src Source, opts Options) (*Map, error) {
	started := time.Now()

	var resolverOpts []mapitem.ResolverOption
	if opts.Cache != nil {
		resolverOpts = append(resolverOpts, mapitem.WithCache(opts.Cache))
	}
	l := &loader{
		src:      src,
		resolver: mapitem.NewResolver(src, resolverOpts...),
		opts:     opts,
		log:      opts.Logger,
		m:        &Map{LoadID: uuid.NewString()},
	}
	if l.log == nil {
		l.log = logging.GetLoaderLogger()
	}

	l.log.Debug("load %s: %d raw blocks", l.m.LoadID, src.NumRawBlocks())

	steps := []func() error{
		l.loadVersion,
		l.loadInfo,
		l.loadImages,
		l.loadEnvpoints,
		l.loadEnvelopes,
		l.loadGroups,
		l.loadLayers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			l.log.Error("load %s failed: %v", l.m.LoadID, err)
			return nil, err
		}
	}
	l.attachLayers()

	stats := l.resolver.Stats()
	elapsed := time.Since(started)
	l.opts.Metrics.finish(stats, elapsed.Seconds())
	l.m.LoadedAt = time.Now()

	l.log.Info("load %s: %d groups, %d layers, %d images, %d envelopes in %v (%d blocks, %d cached)",
		l.m.LoadID, len(l.m.Groups), len(l.m.Layers), len(l.m.Images), len(l.m.Envelopes),
		elapsed, stats.Fetched, stats.CacheHits)
	return l.m, nil
}

func (l *loader) fail(kind mapitem.Kind, item mapitem.Item, err error) error {
	l.opts.Metrics.failed(kind)
	l.log.Debug("%s #%d raw (%d bytes):\n%s", kind, item.ID, item.Size, logging.HexDump(item.Data))
	return err
}

func (l *loader) loadVersion() error {
	items := l.src.Items(mapitem.KindVersion)
	if len(items) == 0 {
		l.log.Warn("load %s: no version item", l.m.LoadID)
		l.m.Version = MapVersion
		return nil
	}
	words, err := mapitem.ItemWords(items[0])
	if err != nil {
		return l.fail(mapitem.KindVersion, items[0], &mapitem.DecodeError{Kind: mapitem.KindVersion, ID: items[0].ID, Err: err})
	}
	if words[0] != MapVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedMapVersion, words[0])
	}
	l.m.Version = int(words[0])
	l.opts.Metrics.decoded(mapitem.KindVersion)
	return nil
}

func (l *loader) loadInfo() error {
	items := l.src.Items(mapitem.KindInfo)
	if len(items) == 0 {
		return nil
	}
	info, err := mapitem.DecodeInfo(items[0], l.resolver)
	if err != nil {
		return l.fail(mapitem.KindInfo, items[0], err)
	}
	l.m.Info = info
	l.opts.Metrics.decoded(mapitem.KindInfo)
	return nil
}

func (l *loader) loadImages() error {
	for _, item := range l.src.Items(mapitem.KindImage) {
		img, err := mapitem.DecodeImage(item, l.resolver)
		if err != nil {
			return l.fail(mapitem.KindImage, item, err)
		}
		l.log.Debug("image #%d %q %s external=%v", item.ID, img.Name, img.Resolution(), img.External)
		l.m.Images = append(l.m.Images, img)
		l.opts.Metrics.decoded(mapitem.KindImage)
	}
	return nil
}

func (l *loader) loadEnvpoints() error {
	items := l.src.Items(mapitem.KindEnvpoints)
	if len(items) == 0 {
		return nil
	}
	points, err := mapitem.DecodeEnvpoints(items[0])
	if err != nil {
		return l.fail(mapitem.KindEnvpoints, items[0], err)
	}
	l.m.Envpoints = points
	l.opts.Metrics.decoded(mapitem.KindEnvpoints)
	return nil
}

func (l *loader) loadEnvelopes() error {
	for _, item := range l.src.Items(mapitem.KindEnvelope) {
		env, err := mapitem.DecodeEnvelope(item, l.m.Envpoints)
		if err != nil {
			return l.fail(mapitem.KindEnvelope, item, err)
		}
		if len(env.Points) != env.NumPoints {
			l.log.Warn("envelope #%d %q: %d of %d points available", item.ID, env.Name, len(env.Points), env.NumPoints)
		}
		l.m.Envelopes = append(l.m.Envelopes, env)
		l.opts.Metrics.decoded(mapitem.KindEnvelope)
	}
	return nil
}

func (l *loader) loadGroups() error {
	for _, item := range l.src.Items(mapitem.KindGroup) {
		g, err := mapitem.DecodeGroup(item)
		if err != nil {
			return l.fail(mapitem.KindGroup, item, err)
		}
		l.m.Groups = append(l.m.Groups, g)
		l.opts.Metrics.decoded(mapitem.KindGroup)
	}
	return nil
}

func (l *loader) loadLayers() error {
	for _, item := range l.src.Items(mapitem.KindLayer) {
		layer, err := mapitem.DecodeLayer(item, l.resolver)
		if errors.Is(err, mapitem.ErrUnsupportedLayer) {
			l.log.Warn("layer #%d skipped: %v", item.ID, err)
			l.opts.Metrics.degrade(degradedUnsupportedLayer)
			l.m.Layers = append(l.m.Layers, nil)
			continue
		}
		if err != nil {
			return l.fail(mapitem.KindLayer, item, err)
		}
		if err := l.checkLayer(item.ID, layer); err != nil {
			return l.fail(mapitem.KindLayer, item, err)
		}
		l.m.Layers = append(l.m.Layers, layer)
		l.opts.Metrics.decoded(mapitem.KindLayer)
	}
	return nil
}

// checkLayer сообщает о мягкой деградации уже декодированного слоя.
func (l *loader) checkLayer(id int, layer *mapitem.Layer) error {
	if ql := layer.Quads; ql != nil && ql.NumQuads != len(ql.Quads) {
		if l.opts.StrictQuadCount {
			return &mapitem.DecodeError{
				Kind: mapitem.KindLayer,
				ID:   id,
				Err:  fmt.Errorf("%w: declared %d, decoded %d", ErrQuadCountMismatch, ql.NumQuads, len(ql.Quads)),
			}
		}
		l.log.Warn("layer #%d: declared %d quads, decoded %d", id, ql.NumQuads, len(ql.Quads))
		l.opts.Metrics.degrade(degradedQuadCount)
	}
	if tl := layer.Tiles; tl != nil {
		switch {
		case tl.IsTele() && len(tl.TeleTiles) == 0:
			l.log.Warn("layer #%d: tele layer without tele data", id)
			l.opts.Metrics.degrade(degradedTeleMissing)
		case tl.IsSpeedup() && len(tl.SpeedupTiles) == 0:
			l.log.Warn("layer #%d: speedup layer without speedup data", id)
			l.opts.Metrics.degrade(degradedSpeedupMissing)
		}
	}
	return nil
}

// attachLayers привязывает слои арены к группам в порядке файла.
func (l *loader) attachLayers() {
	n := len(l.m.Layers)
	for gi, g := range l.m.Groups {
		start, end := g.StartLayer, g.StartLayer+g.NumLayers
		if start < 0 || g.NumLayers < 0 || end > n {
			l.log.Warn("group #%d: layers [%d, %d) outside of %d layers", gi, start, end, n)
			l.opts.Metrics.degrade(degradedLayerRange)
			start, end = clamp(start, 0, n), clamp(end, 0, n)
		}
		for i := start; i < end; i++ {
			if layer := l.m.Layers[i]; layer != nil {
				g.AddLayer(layer)
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
