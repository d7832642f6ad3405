package api

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/component-visualizer/backend/internal/models"
	"github.com/component-visualizer/backend/internal/storage"
)

// Catalog is the engine surface the HTTP layer consumes. The concrete
// implementation is catalog.Manager; tests can substitute their own.
type Catalog interface {
	List() []models.ComponentRecord
	Get(id string) (models.ComponentRecord, bool)
	Svg(id, view string) ([]byte, error)
	Stats() models.CatalogStats
	Reload() error
	Err() error
	AddComponent(name string, fzpData []byte, svgs map[string][]byte) (models.ComponentRecord, error)
}

// Handler handles API requests.
type Handler struct {
	catalog Catalog
	store   storage.Store
	version string
}

// NewHandler creates a new API handler.
func NewHandler(catalog Catalog, store storage.Store, version string) *Handler {
	return &Handler{
		catalog: catalog,
		store:   store,
		version: version,
	}
}

// listResponse is the envelope the listing endpoint always returns.
// Success is false only for total catalog-load failure; individual bad
// components are skipped upstream and never fail their siblings.
type listResponse struct {
	Success    bool                     `json:"success"`
	Components []models.ComponentRecord `json:"components"`
	Error      string                   `json:"error,omitempty"`
}

// HandleRoot returns the service banner.
func (h *Handler) HandleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Component Visualizer API",
		"version": h.version,
	})
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HandleListComponents returns every resolved component record.
func (h *Handler) HandleListComponents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.listResponse())
}

// HandleListComponentsMsgpack returns the listing in MessagePack format,
// noticeably smaller than JSON for connector-heavy catalogs.
func (h *Handler) HandleListComponentsMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(h.listResponse())
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *Handler) listResponse() listResponse {
	if err := h.catalog.Err(); err != nil {
		return listResponse{
			Success:    false,
			Components: []models.ComponentRecord{},
			Error:      err.Error(),
		}
	}

	components := h.catalog.List()
	if components == nil {
		components = []models.ComponentRecord{}
	}
	return listResponse{Success: true, Components: components}
}

// HandleGetComponent returns a single component record.
func (h *Handler) HandleGetComponent(c echo.Context) error {
	id := c.Param("id")
	record, ok := h.catalog.Get(id)
	if !ok {
		return NewNotFoundError("component", id)
	}
	return c.JSON(http.StatusOK, record)
}

// HandleGetComponentSvg serves the raw SVG for one view of a component.
// Served documents always carry viewBox and width/height attributes.
func (h *Handler) HandleGetComponentSvg(c echo.Context) error {
	id := c.Param("id")
	view := c.Param("view")

	if !models.IsValidView(view) {
		return NewBadRequestError(fmt.Sprintf("unknown view: %s", view), nil)
	}

	data, err := h.catalog.Svg(id, view)
	if err != nil {
		return NewNotFoundError("svg", fmt.Sprintf("%s/%s", id, view))
	}

	return c.Blob(http.StatusOK, "image/svg+xml", data)
}

// uploadComponentRequest carries a descriptor plus its view drawings,
// base64-encoded the same way the file upload endpoints of the log
// tooling family do.
type uploadComponentRequest struct {
	Name string            `json:"name"`
	Fzp  string            `json:"fzp"`            // base64 descriptor
	Svgs map[string]string `json:"svgs,omitempty"` // view name -> base64 SVG
}

// HandleUploadComponent installs a new component into the catalog.
func (h *Handler) HandleUploadComponent(c echo.Context) error {
	var req uploadComponentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}
	if req.Fzp == "" {
		return NewValidationError("fzp")
	}

	fzpData, err := base64.StdEncoding.DecodeString(req.Fzp)
	if err != nil {
		return NewBadRequestError("invalid base64 fzp data", err)
	}

	svgs := make(map[string][]byte, len(req.Svgs))
	for view, encoded := range req.Svgs {
		if !models.IsValidView(view) {
			return NewBadRequestError(fmt.Sprintf("unknown view: %s", view), nil)
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return NewBadRequestError(fmt.Sprintf("invalid base64 svg data for view %s", view), err)
		}
		svgs[view] = data
	}

	// Stage the raw descriptor for provenance before installing.
	info, err := h.store.SaveBytes(req.Name, fzpData)
	if err != nil {
		return NewInternalError("failed to store upload", err)
	}

	record, err := h.catalog.AddComponent(req.Name, fzpData, svgs)
	if err != nil {
		h.store.SetStatus(info.ID, "error")
		return NewBadRequestError("failed to install component", err)
	}
	h.store.SetStatus(info.ID, "installed")

	return c.JSON(http.StatusCreated, record)
}

// HandleReloadCatalog rescans the catalog directory.
func (h *Handler) HandleReloadCatalog(c echo.Context) error {
	if err := h.catalog.Reload(); err != nil {
		return NewServiceUnavailableError(fmt.Sprintf("catalog reload failed: %v", err))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"components": len(h.catalog.List()),
	})
}

// HandleCatalogStats returns aggregate resolution statistics.
func (h *Handler) HandleCatalogStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Stats())
}

// HandleRecentUploads returns recently staged upload files.
func (h *Handler) HandleRecentUploads(c echo.Context) error {
	files, err := h.store.List(20)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.FileInfo{}
	}
	return c.JSON(http.StatusOK, files)
}
