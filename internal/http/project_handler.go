package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"folio/internal/domain"
	"folio/internal/service"
)

// ProjectHandler expone el CRUD de proyectos propios, la galeria y las paginas publicas.
type ProjectHandler struct {
	logger   *zap.Logger
	projects *service.ProjectService
	media    *service.MediaService
}

func NewProjectHandler(logger *zap.Logger, projects *service.ProjectService, media *service.MediaService) *ProjectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectHandler{logger: logger, projects: projects, media: media}
}

// projectView agrega las URLs resueltas de la media del proyecto.
type projectView struct {
	domain.Project
	CoverImageURL string   `json:"cover_image_url,omitempty"`
	ImageURLs     []string `json:"image_urls"`
	VideoURLs     []string `json:"video_urls"`
	DocumentURLs  []string `json:"document_urls"`
}

func (h *ProjectHandler) view(p domain.Project) projectView {
	v := projectView{Project: p}
	if h.media == nil {
		v.CoverImageURL = p.CoverImage
		v.ImageURLs, v.VideoURLs, v.DocumentURLs = p.Images, p.Videos, p.Documents
		return v
	}
	v.CoverImageURL = h.media.URL(p.CoverImage)
	v.ImageURLs = h.media.URLs(p.Images)
	v.VideoURLs = h.media.URLs(p.Videos)
	v.DocumentURLs = h.media.URLs(p.Documents)
	return v
}

func (h *ProjectHandler) views(projects []domain.Project) []projectView {
	out := make([]projectView, 0, len(projects))
	for _, p := range projects {
		out = append(out, h.view(p))
	}
	return out
}

func filterFromQuery(c *gin.Context) service.ProjectFilter {
	featured, _ := strconv.ParseBool(c.Query("featured"))
	return service.ProjectFilter{
		Category:     c.Query("category"),
		Tag:          c.Query("tag"),
		Search:       c.Query("q"),
		FeaturedOnly: featured,
	}
}

// ListMine maneja GET /me/projects.
func (h *ProjectHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projects, err := h.projects.ListCached(c.Request.Context(), service.ListScope{OwnerID: userID})
	if err != nil {
		respondError(c, h.logger, err, "list projects")
		return
	}
	projects = service.FilterProjects(projects, filterFromQuery(c))
	c.JSON(http.StatusOK, gin.H{"projects": h.views(projects)})
}

// Create maneja POST /me/projects.
func (h *ProjectHandler) Create(c *gin.Context) {
	var in domain.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("invalid project request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	project, err := h.projects.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, h.logger, err, "create project")
		return
	}
	c.JSON(http.StatusCreated, h.view(project))
}

// Update maneja PATCH /me/projects/:id.
func (h *ProjectHandler) Update(c *gin.Context) {
	var patch domain.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("invalid project patch", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	project, err := h.projects.Update(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err, "update project")
		return
	}
	c.JSON(http.StatusOK, h.view(project))
}

// Delete maneja DELETE /me/projects/:id.
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, h.logger, err, "delete project")
		return
	}
	c.Status(http.StatusNoContent)
}

// Reorder maneja PUT /me/projects/order.
func (h *ProjectHandler) Reorder(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reorder request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	projects, err := h.projects.Reorder(c.Request.Context(), userID, req.IDs)
	if err != nil {
		respondError(c, h.logger, err, "reorder projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": h.views(projects)})
}

// Get maneja GET /projects/:id. Los proyectos privados solo los ve su dueno.
func (h *ProjectHandler) Get(c *gin.Context) {
	var viewerID string
	if manager, ok := GetSession(c); ok && manager.State() == service.SessionAuthenticated {
		viewerID = manager.Identity().ID
	}
	project, err := h.projects.Get(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get project")
		return
	}
	c.JSON(http.StatusOK, h.view(project))
}

// Gallery maneja GET /gallery: proyectos publicos con filtros por query.
func (h *ProjectHandler) Gallery(c *gin.Context) {
	projects, err := h.projects.ListCached(c.Request.Context(), service.ListScope{})
	if err != nil {
		respondError(c, h.logger, err, "list gallery")
		return
	}
	projects = service.FilterProjects(projects, filterFromQuery(c))
	c.JSON(http.StatusOK, gin.H{"projects": h.views(projects)})
}

// Portfolio maneja GET /u/:id.
func (h *ProjectHandler) Portfolio(c *gin.Context) {
	user, projects, found, err := h.projects.PublicPortfolio(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "load portfolio")
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "projects": h.views(projects)})
}
