package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"ignews/internal/model"
	"ignews/pkg/prismic"

	"github.com/gin-gonic/gin"
)

// DocumentStore is the read side of the local mirror.
type DocumentStore interface {
	GetByType(ctx context.Context, docType string, q prismic.Query) (*prismic.Page, error)
	GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error)
}

type DocumentHandler struct {
	repository DocumentStore
}

func NewDocumentHandler(repository DocumentStore) *DocumentHandler {
	return &DocumentHandler{repository: repository}
}

// Search answers in the same page shape as the Prismic search endpoint, so
// the listing can page through the mirror with next_page cursors.
func (h *DocumentHandler) Search(c *gin.Context) {
	docType := c.DefaultQuery("type", model.PostType)

	q := prismic.Query{
		Fetch:    getQueryFetch(c),
		Page:     getQueryPage(c),
		PageSize: getQueryPageSize(c),
	}

	page, err := h.repository.GetByType(c.Request.Context(), docType, q)
	if err != nil {
		slog.Error("error searching documents", "type", docType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	uid := c.Param("uid")
	docType := c.DefaultQuery("type", model.PostType)

	doc, err := h.repository.GetByUID(c.Request.Context(), docType, uid)
	if err != nil {
		slog.Error("error fetching document", "type", docType, "uid", uid, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	paramValue := c.Query(name)

	if paramValue == "" {
		return defaultValue
	}

	parsedValue, err := strconv.Atoi(paramValue)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", paramValue, "error", err)
		return defaultValue
	}

	return parsedValue
}

func getQueryPageSize(c *gin.Context) int {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)

	pageSize := getQueryInt("pageSize", defaultPageSize, c)
	if pageSize < 1 {
		slog.Warn("invalid query parameter, using default", "param", "pageSize", "value", pageSize, "default", defaultPageSize)
		return defaultPageSize
	}

	if pageSize > maxPageSize {
		slog.Warn("query parameter exceeds max, clamping", "param", "pageSize", "value", pageSize, "max", maxPageSize)
		return maxPageSize
	}

	return pageSize
}

func getQueryPage(c *gin.Context) int {
	page := getQueryInt("page", 1, c)
	if page < 1 {
		slog.Warn("invalid query parameter, using default", "param", "page", "value", page, "default", 1)
		return 1
	}
	return page
}

func getQueryFetch(c *gin.Context) []string {
	raw := c.Query("fetch")
	if raw == "" {
		return nil
	}

	var fetch []string
	for _, field := range strings.Split(raw, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fetch = append(fetch, field)
		}
	}
	return fetch
}
