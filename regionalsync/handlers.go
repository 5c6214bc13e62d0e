package regionalsync

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seplag/artistalbum_backend/config"
	"github.com/seplag/artistalbum_backend/models"
	"github.com/seplag/artistalbum_backend/reports"
	"github.com/seplag/artistalbum_backend/utils"
)

// Handlers is the operator surface around the syncer: inspect the
// mirror, trigger a pass, review past runs.
type Handlers struct {
	syncer *Syncer
}

func NewHandlers(syncer *Syncer) *Handlers {
	return &Handlers{syncer: syncer}
}

func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/v1")
	v1.GET("/regionals", h.ListRegionals)
	v1.POST("/regionals", h.CreateRegional)
	v1.PUT("/regionals/:id", h.UpdateRegional)
	v1.GET("/regionals/export", h.ExportRegionals)
	v1.POST("/regionals/sync", h.TriggerSync)
	v1.GET("/regionals/sync-status", h.SyncStatus)
	v1.GET("/regionals/sync-runs", h.ListSyncRuns)
	v1.GET("/regionals/sync-runs/:id", h.GetSyncRun)
}

// ListRegionals returns the active set; ?history=true returns every
// row including retired ones.
func (h *Handlers) ListRegionals(c *gin.Context) {
	var (
		rows []*models.Regional
		err  error
	)
	if c.Query("history") == "true" {
		rows, err = models.GetRegionalHistory(c.Request.Context())
	} else {
		rows, err = models.GetActiveRegionals(c.Request.Context())
	}
	if err != nil {
		config.LogError(config.GetLogger(), "regionalsync", "ListRegionals", "query failed", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list regionals"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handlers) CreateRegional(c *gin.Context) {
	var input models.NewRegional
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	regional, err := models.CreateRegional(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, regional)
}

func (h *Handlers) UpdateRegional(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var input models.UpdateRegionalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	regional, err := models.UpdateRegional(c.Request.Context(), id, &input)
	if err != nil {
		if err.Error() == "regional not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, regional)
}

func (h *Handlers) ExportRegionals(c *gin.Context) {
	var (
		rows []*models.Regional
		err  error
	)
	if c.Query("history") == "true" {
		rows, err = models.GetRegionalHistory(c.Request.Context())
	} else {
		rows, err = models.GetActiveRegionals(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load regionals"})
		return
	}

	if err := reports.WriteRegionalWorkbook(c.Writer, rows, "regionals.xlsx"); err != nil {
		config.LogError(config.GetLogger(), "regionalsync", "ExportRegionals", "workbook write failed", nil, err)
	}
}

// TriggerSync runs one pass synchronously. Returns 409 when a pass is
// already in flight and 502 when the upstream feed failed.
func (h *Handlers) TriggerSync(c *gin.Context) {
	summary, err := h.syncer.RunOnce(c.Request.Context(), models.SyncTriggeredManual)
	if err != nil {
		if errors.Is(err, ErrSyncBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "sync already running"})
			return
		}
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handlers) SyncStatus(c *gin.Context) {
	status := gin.H{"running": h.syncer.IsRunning()}
	if last := h.syncer.LastRun(c.Request.Context()); last != nil {
		status["last_run"] = last
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handlers) ListSyncRuns(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	runs, err := models.GetSyncRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sync runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handlers) GetSyncRun(c *gin.Context) {
	id, err := utils.ParseUintParam(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, warnings, err := models.GetSyncRun(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sync run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "warnings": warnings})
}
