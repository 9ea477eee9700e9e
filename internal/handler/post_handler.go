package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"ignews/internal/post"
	"ignews/internal/site"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	site *site.Builder
}

func NewPostHandler(builder *site.Builder) *PostHandler {
	return &PostHandler{site: builder}
}

func (h *PostHandler) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	page, err := h.site.PostPage(c.Request.Context(), slug)
	if err == nil {
		c.Data(http.StatusOK, htmlContentType, page)
		return
	}

	if errors.Is(err, site.ErrPostNotFound) || errors.Is(err, post.ErrMissingUID) {
		h.renderNotFound(c)
		return
	}

	slog.Error("error building post page", "slug", slug, "source", h.site.Source().Name(), "error", err)
	renderError(c, h.site.Renderer(), http.StatusBadGateway, "Não foi possível carregar o post.")
}

func (h *PostHandler) renderNotFound(c *gin.Context) {
	page, err := h.site.Renderer().NotFound("Post não encontrado.")
	if err != nil {
		slog.Error("error rendering not found page", "error", err)
		c.String(http.StatusNotFound, "Not found")
		return
	}

	c.Data(http.StatusNotFound, htmlContentType, page)
}
