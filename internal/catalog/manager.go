package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/component-visualizer/backend/internal/fzp"
	"github.com/component-visualizer/backend/internal/models"
	"github.com/component-visualizer/backend/internal/svg"
)

// Manager owns the resolved component catalog. Records are built once
// per load and replaced atomically on reload, so concurrent readers
// never observe a half-populated catalog.
type Manager struct {
	dataDir    string
	resolver   *svg.Resolver
	maxWorkers int
	log        zerolog.Logger
	store      *DuckStore // optional persistent index, may be nil

	mu      sync.RWMutex
	entries map[string]*componentEntry
	order   []string
	stats   models.CatalogStats
	loadErr error
}

// componentEntry pairs a normalized record with the on-disk location of
// each parseable view asset.
type componentEntry struct {
	record   models.ComponentRecord
	svgPaths map[string]string
}

// NewManager creates a catalog manager over a data directory laid out as
// <dataDir>/parts/*.fzp with view drawings under <dataDir>/svg/<view>/.
func NewManager(dataDir string, resolver *svg.Resolver, maxWorkers int, log zerolog.Logger) *Manager {
	if resolver == nil {
		resolver = svg.NewResolver(nil)
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Manager{
		dataDir:    dataDir,
		resolver:   resolver,
		maxWorkers: maxWorkers,
		log:        log,
		entries:    make(map[string]*componentEntry),
	}
}

// SetStore attaches a persistent index. Must be called before Load.
func (m *Manager) SetStore(store *DuckStore) {
	m.store = store
}

// Load scans the parts directory, resolves every component, and swaps
// the catalog in one atomic replace. Per-component failures are
// isolated: a bad descriptor or drawing skips that component only.
func (m *Manager) Load() error {
	partsDir := filepath.Join(m.dataDir, "parts")
	paths, err := filepath.Glob(filepath.Join(partsDir, "*.fzp"))
	if err == nil && len(paths) == 0 {
		if _, statErr := os.Stat(partsDir); statErr != nil {
			err = statErr
		}
	}
	if err != nil {
		// Total catalog failure: fall back to the persisted index if one
		// exists so a broken volume mount does not blank the listing.
		if m.store != nil {
			if records, loadErr := m.store.LoadCatalog(); loadErr == nil && len(records) > 0 {
				m.log.Warn().Err(err).Int("components", len(records)).
					Msg("catalog directory unreadable, serving persisted index")
				m.installPersisted(records)
				return nil
			}
		}
		loadErr := fmt.Errorf("scanning catalog directory: %w", err)
		m.mu.Lock()
		m.loadErr = loadErr
		m.mu.Unlock()
		return loadErr
	}
	sort.Strings(paths)

	entries := make([]*componentEntry, len(paths))
	statsCh := make(chan models.CatalogStats, len(paths))

	// Each component's load + resolution is independent; bound the
	// fan-out so huge catalogs do not spike memory.
	sem := make(chan struct{}, m.maxWorkers)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			entry, st, err := m.loadOne(path)
			statsCh <- st
			if err != nil {
				m.log.Warn().Err(err).Str("file", filepath.Base(path)).
					Msg("skipping component")
				return
			}
			entries[i] = entry
		}(i, path)
	}
	wg.Wait()
	close(statsCh)

	var stats models.CatalogStats
	for st := range statsCh {
		stats.ComponentsLoaded += st.ComponentsLoaded
		stats.ComponentsSkipped += st.ComponentsSkipped
		stats.ViewsFailed += st.ViewsFailed
		stats.ConnectorsResolved += st.ConnectorsResolved
		stats.ConnectorsLowConfidence += st.ConnectorsLowConfidence
		stats.ConnectorsUnresolved += st.ConnectorsUnresolved
	}

	byID := make(map[string]*componentEntry, len(entries))
	var order []string
	for _, e := range entries {
		if e == nil {
			continue
		}
		byID[e.record.ID] = e
		order = append(order, e.record.ID)
	}
	sortByTitle(order, byID)

	m.mu.Lock()
	m.entries = byID
	m.order = order
	m.stats = stats
	m.loadErr = nil
	m.mu.Unlock()

	m.log.Info().
		Int("loaded", stats.ComponentsLoaded).
		Int("skipped", stats.ComponentsSkipped).
		Int("viewsFailed", stats.ViewsFailed).
		Int("lowConfidence", stats.ConnectorsLowConfidence).
		Msg("catalog loaded")

	if m.store != nil {
		if err := m.store.ReplaceCatalog(m.List()); err != nil {
			m.log.Warn().Err(err).Msg("failed to persist catalog index")
		}
	}

	return nil
}

// Reload rescans the catalog directory.
func (m *Manager) Reload() error {
	return m.Load()
}

// loadOne builds one component entry from its descriptor path.
func (m *Manager) loadOne(path string) (*componentEntry, models.CatalogStats, error) {
	var stats models.CatalogStats

	data, err := os.ReadFile(path)
	if err != nil {
		stats.ComponentsSkipped++
		return nil, stats, fmt.Errorf("reading descriptor: %w", err)
	}

	desc, err := fzp.Parse(data)
	if err != nil {
		stats.ComponentsSkipped++
		return nil, stats, err
	}
	desc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	entry := &componentEntry{svgPaths: make(map[string]string, 3)}
	var views []ViewResolution
	for _, view := range models.ViewOrder {
		svgPath, ok := m.viewPath(desc, view)
		if !ok {
			continue
		}

		raw, err := os.ReadFile(svgPath)
		if err != nil {
			continue
		}

		doc, err := svg.Parse(raw)
		if err != nil {
			// Bad view asset: degrade to the next preferred view.
			stats.ViewsFailed++
			m.log.Warn().Err(err).Str("component", desc.ID).Str("view", view).
				Msg("invalid svg document")
			views = append(views, ViewResolution{View: view, Err: err})
			continue
		}

		entry.svgPaths[view] = svgPath
		views = append(views, ViewResolution{
			View: view,
			Pins: m.resolver.Resolve(doc, desc.Connectors, view),
		})
	}

	entry.record = Normalize(desc, views)
	stats.ComponentsLoaded++
	for _, rc := range entry.record.Connectors {
		switch rc.Confidence {
		case models.ConfidenceNone:
			stats.ConnectorsUnresolved++
		case models.ConfidenceLow:
			stats.ConnectorsLowConfidence++
			m.log.Debug().Str("component", desc.ID).Str("connector", rc.ID).
				Msg("low-confidence connector match")
		default:
			stats.ConnectorsResolved++
		}
	}

	return entry, stats, nil
}

// viewPath locates a view's SVG on disk: the image path the descriptor
// declares, else the fritzing naming convention <id>_<view>.svg.
func (m *Manager) viewPath(desc *models.ComponentDescriptor, view string) (string, bool) {
	if img, ok := desc.ViewImages[view]; ok {
		p := filepath.Join(m.dataDir, "svg", filepath.FromSlash(img))
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	p := filepath.Join(m.dataDir, "svg", view, fmt.Sprintf("%s_%s.svg", desc.ID, view))
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return "", false
}

// installPersisted swaps in records loaded from the DuckDB index. SVG
// assets are unavailable in this mode; only the listing is served.
func (m *Manager) installPersisted(records []models.ComponentRecord) {
	byID := make(map[string]*componentEntry, len(records))
	order := make([]string, 0, len(records))
	stats := models.CatalogStats{ComponentsLoaded: len(records)}
	for i := range records {
		e := &componentEntry{record: records[i], svgPaths: map[string]string{}}
		byID[records[i].ID] = e
		order = append(order, records[i].ID)
	}
	sortByTitle(order, byID)

	m.mu.Lock()
	m.entries = byID
	m.order = order
	m.stats = stats
	m.loadErr = nil
	m.mu.Unlock()
}

func sortByTitle(order []string, byID map[string]*componentEntry) {
	sort.Slice(order, func(i, j int) bool {
		a, b := byID[order[i]].record, byID[order[j]].record
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}

// List returns all resolved component records in stable order.
func (m *Manager) List() []models.ComponentRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]models.ComponentRecord, 0, len(m.order))
	for _, id := range m.order {
		records = append(records, m.entries[id].record)
	}
	return records
}

// Get returns one component record by id.
func (m *Manager) Get(id string) (models.ComponentRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return models.ComponentRecord{}, false
	}
	return e.record, true
}

// Svg returns the raw SVG for a component view, with viewBox and
// width/height guaranteed present.
func (m *Manager) Svg(id, view string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	var path string
	if ok {
		path = e.svgPaths[view]
	}
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("component not found: %s", id)
	}
	if path == "" {
		return nil, fmt.Errorf("view not available: %s/%s", id, view)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading svg: %w", err)
	}
	return svg.EnsureDimensions(raw)
}

// Stats returns aggregate resolution statistics for the loaded catalog.
func (m *Manager) Stats() models.CatalogStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Err returns the load error when the last catalog load failed
// entirely, nil otherwise.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr
}

// AddComponent installs an uploaded descriptor plus view drawings into
// the catalog directory, resolves it, and inserts the record without a
// full reload. svgs is keyed by view name.
func (m *Manager) AddComponent(name string, fzpData []byte, svgs map[string][]byte) (models.ComponentRecord, error) {
	desc, err := fzp.Parse(fzpData)
	if err != nil {
		return models.ComponentRecord{}, err
	}

	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" {
		base = desc.FritzingID
	}

	partsDir := filepath.Join(m.dataDir, "parts")
	if err := os.MkdirAll(partsDir, 0755); err != nil {
		return models.ComponentRecord{}, fmt.Errorf("creating parts directory: %w", err)
	}

	fzpPath := filepath.Join(partsDir, base+".fzp")
	if err := os.WriteFile(fzpPath, fzpData, 0644); err != nil {
		return models.ComponentRecord{}, fmt.Errorf("writing descriptor: %w", err)
	}

	for view, data := range svgs {
		if !models.IsValidView(view) {
			return models.ComponentRecord{}, fmt.Errorf("unknown view: %s", view)
		}
		rel := desc.ViewImages[view]
		if rel == "" {
			rel = filepath.Join(view, fmt.Sprintf("%s_%s.svg", base, view))
		}
		svgPath := filepath.Join(m.dataDir, "svg", filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(svgPath), 0755); err != nil {
			return models.ComponentRecord{}, fmt.Errorf("creating svg directory: %w", err)
		}
		if err := os.WriteFile(svgPath, data, 0644); err != nil {
			return models.ComponentRecord{}, fmt.Errorf("writing svg: %w", err)
		}
	}

	entry, _, err := m.loadOne(fzpPath)
	if err != nil {
		return models.ComponentRecord{}, err
	}

	m.mu.Lock()
	if _, exists := m.entries[entry.record.ID]; !exists {
		m.order = append(m.order, entry.record.ID)
	}
	m.entries[entry.record.ID] = entry
	sortByTitle(m.order, m.entries)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveComponent(entry.record); err != nil {
			m.log.Warn().Err(err).Str("component", entry.record.ID).
				Msg("failed to persist component")
		}
	}

	return entry.record, nil
}
