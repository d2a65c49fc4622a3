package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/cmi-charts/internal/application/services"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/presentation/http/middleware"
)

// DashboardHandlers contains the forecast browsing handlers
type DashboardHandlers struct {
	catalog *services.CatalogService
	root    string
	logger  *logging.ChanneledLogger
}

// NewDashboardHandlers creates dashboard handlers with injected dependencies
func NewDashboardHandlers(catalog *services.CatalogService, applicationRoot string, logger *logging.ChanneledLogger) *DashboardHandlers {
	return &DashboardHandlers{
		catalog: catalog,
		root:    strings.TrimRight(applicationRoot, "/"),
		logger:  logger,
	}
}

// GetIndex handles GET / - redirects to today's dashboard
func (h *DashboardHandlers) GetIndex(c *gin.Context) {
	c.Redirect(http.StatusMovedPermanently, h.root+"/days/"+h.catalog.Today()+"/")
}

// GetDay handles GET /days/:day/ - model cards of every run of the day
func (h *DashboardHandlers) GetDay(c *gin.Context) {
	start := time.Now()
	day := c.Param("day")
	authenticated := middleware.IsAuthenticated(c)

	page, err := h.catalog.ListModels(day, authenticated)
	if err != nil {
		h.logger.Catalog().Warn("Dashboard request failed", "day", day, "error", err.Error())
		respondPageError(c, err)
		return
	}

	h.logger.Catalog().Debug("Dashboard served", "day", day, "runs", len(page.Runs), "authenticated", authenticated, "duration", time.Since(start))
	respondValue(c, page)
}

// GetVariables handles GET /runs/:run/:name/ - variables of one model
func (h *DashboardHandlers) GetVariables(c *gin.Context) {
	run, name := c.Param("run"), c.Param("name")

	page, err := h.catalog.ListVariables(run, name, middleware.IsAuthenticated(c))
	if err != nil {
		h.logger.Catalog().Warn("Variables request failed", "run", run, "model", name, "error", err.Error())
		respondPageError(c, err)
		return
	}
	respondValue(c, page)
}

// GetVariableImages handles GET /runs/:run/:name/:variable/ - frames of one variable
func (h *DashboardHandlers) GetVariableImages(c *gin.Context) {
	run, name, variable := c.Param("run"), c.Param("name"), c.Param("variable")

	page, err := h.catalog.ListVariableImages(run, name, variable, middleware.IsAuthenticated(c))
	if err != nil {
		h.logger.Catalog().Warn("Images request failed", "run", run, "model", name, "variable", variable, "error", err.Error())
		respondPageError(c, err)
		return
	}
	respondValue(c, page)
}

type archiveRequest struct {
	FormattedDate string `json:"formatted_date" form:"formatted_date"`
}

// PostArchiveModels handles POST /get-archive-models/ - link to an archived day
func (h *DashboardHandlers) PostArchiveModels(c *gin.Context) {
	var req archiveRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Catalog().Debug("Archive request binding failed", "error", err.Error())
		respondFailure(c, services.ErrInvalidInput)
		return
	}

	href, err := h.catalog.ArchiveHref(strings.TrimSpace(req.FormattedDate))
	if err != nil {
		respondFailure(c, err)
		return
	}
	respondValue(c, href)
}

// PostAvailableDates handles POST /get-availables-date/ - days with data.
// The list travels as a JSON encoded string in dirlist.
func (h *DashboardHandlers) PostAvailableDates(c *gin.Context) {
	dates, err := h.catalog.AvailableDates()
	if err != nil {
		h.logger.Catalog().Error("Failed to list available dates", "error", err.Error())
		respondFailure(c, err)
		return
	}

	encoded, err := json.Marshal(dates)
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dirlist": string(encoded)})
}
