package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"ignews/internal/listing"
	"ignews/internal/model"
	"ignews/internal/render"
	"ignews/internal/site"
	"ignews/pkg/prismic"

	"github.com/gin-gonic/gin"
)

const htmlContentType = "text/html; charset=utf-8"

var errViewNotFound = errors.New("view not found")

type ViewStore interface {
	Create(ctx context.Context, state listing.State) (string, error)
	Get(ctx context.Context, id string) (*listing.State, error)
	Save(ctx context.Context, id string, state listing.State) error
	Lock(ctx context.Context, id string) (string, error)
	Unlock(ctx context.Context, id, token string) error
}

type ListingHandler struct {
	site  *site.Builder
	views ViewStore
	mode  listing.AppendMode
}

func NewListingHandler(builder *site.Builder, views ViewStore, mode listing.AppendMode) *ListingHandler {
	return &ListingHandler{site: builder, views: views, mode: mode}
}

// GetHome renders the first page. No view is stored until the first
// "load more".
func (h *ListingHandler) GetHome(c *gin.Context) {
	state, ok := h.firstState(c)
	if !ok {
		return
	}

	h.renderIndex(c, http.StatusOK, "", state, false)
}

// LoadMoreFromHome opens a view seeded with the first page, then loads the
// next page into it.
func (h *ListingHandler) LoadMoreFromHome(c *gin.Context) {
	id, ok := h.createView(c)
	if !ok {
		return
	}

	c.Params = append(c.Params, gin.Param{Key: "id", Value: id})
	h.LoadMore(c)
}

// CreateViewJSON opens a view seeded with the first page.
func (h *ListingHandler) CreateViewJSON(c *gin.Context) {
	ctx := c.Request.Context()

	page, err := h.site.FirstPage(ctx)
	if err != nil {
		slog.Error("error fetching first page", "source", h.site.Source().Name(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Content source error"})
		return
	}

	state := listing.NewState(page)

	id, err := h.views.Create(ctx, state)
	if err != nil {
		slog.Error("error creating view", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	c.JSON(http.StatusCreated, toViewResponse(id, state))
}

func (h *ListingHandler) firstState(c *gin.Context) (listing.State, bool) {
	page, err := h.site.FirstPage(c.Request.Context())
	if err != nil {
		slog.Error("error fetching first page", "source", h.site.Source().Name(), "error", err)
		renderError(c, h.site.Renderer(), http.StatusBadGateway, "Não foi possível carregar os posts.")
		return listing.State{}, false
	}

	return listing.NewState(page), true
}

func (h *ListingHandler) createView(c *gin.Context) (string, bool) {
	state, ok := h.firstState(c)
	if !ok {
		return "", false
	}

	id, err := h.views.Create(c.Request.Context(), state)
	if err != nil {
		slog.Error("error creating view", "error", err)
		renderError(c, h.site.Renderer(), http.StatusInternalServerError, "Algo deu errado.")
		return "", false
	}

	return id, true
}

func (h *ListingHandler) GetView(c *gin.Context) {
	id := c.Param("id")

	state, err := h.views.Get(c.Request.Context(), id)
	if err != nil {
		slog.Error("error fetching view", "view_id", id, "error", err)
		renderError(c, h.site.Renderer(), http.StatusInternalServerError, "Algo deu errado.")
		return
	}

	if state == nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	h.renderIndex(c, http.StatusOK, id, *state, false)
}

// LoadMore appends the next page to the view and redirects back to it.
func (h *ListingHandler) LoadMore(c *gin.Context) {
	id := c.Param("id")

	_, _, err := h.loadMore(c.Request.Context(), id)

	var fetchErr *listing.FetchError
	switch {
	case err == nil, errors.As(err, &fetchErr):
		c.Redirect(http.StatusSeeOther, "/views/"+id)
	case errors.Is(err, errViewNotFound):
		c.Redirect(http.StatusSeeOther, "/")
	case errors.Is(err, listing.ErrLoadInProgress):
		state, getErr := h.views.Get(c.Request.Context(), id)
		if getErr != nil || state == nil {
			c.Redirect(http.StatusSeeOther, "/views/"+id)
			return
		}
		h.renderIndex(c, http.StatusConflict, id, *state, true)
	default:
		slog.Error("error loading more posts", "view_id", id, "error", err)
		renderError(c, h.site.Renderer(), http.StatusInternalServerError, "Algo deu errado.")
	}
}

func (h *ListingHandler) GetViewJSON(c *gin.Context) {
	id := c.Param("id")

	state, err := h.views.Get(c.Request.Context(), id)
	if err != nil {
		slog.Error("error fetching view", "view_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "View not found"})
		return
	}

	c.JSON(http.StatusOK, toViewResponse(id, *state))
}

func (h *ListingHandler) LoadMoreJSON(c *gin.Context) {
	id := c.Param("id")

	state, appended, err := h.loadMore(c.Request.Context(), id)

	var fetchErr *listing.FetchError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, LoadMoreResponse{ViewResponse: toViewResponse(id, state), Appended: appended})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, LoadMoreResponse{ViewResponse: toViewResponse(id, state)})
	case errors.Is(err, errViewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "View not found"})
	case errors.Is(err, listing.ErrLoadInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Load already in progress"})
	default:
		slog.Error("error loading more posts", "view_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
	}
}

func (h *ListingHandler) GetHealth(c *gin.Context) {
	source := h.site.Source()

	_, err := source.GetByType(c.Request.Context(), model.PostType, prismic.Query{Page: 1, PageSize: 1})
	if err != nil {
		slog.Warn("health check failed", "source", source.Name(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"source": source.Name(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"source": source.Name(),
	})
}

// loadMore runs one page load for the view while holding its lock. A
// *listing.FetchError still comes with the stored state, which records the
// failure. Reaching the last page is not an error.
func (h *ListingHandler) loadMore(ctx context.Context, id string) (listing.State, int, error) {
	token, err := h.views.Lock(ctx, id)
	if err != nil {
		return listing.State{}, 0, err
	}

	if token == "" {
		return listing.State{}, 0, listing.ErrLoadInProgress
	}

	defer func() {
		if err := h.views.Unlock(context.WithoutCancel(ctx), id, token); err != nil {
			slog.Warn("error releasing view lock", "view_id", id, "error", err)
		}
	}()

	state, err := h.views.Get(ctx, id)
	if err != nil {
		return listing.State{}, 0, err
	}

	if state == nil {
		return listing.State{}, 0, errViewNotFound
	}

	controller := listing.NewController(h.site.Source(), *state, listing.WithAppendMode(h.mode))

	out, loadErr := controller.LoadMore(ctx)
	if errors.Is(loadErr, listing.ErrNoMorePages) {
		return *state, 0, nil
	}

	var fetchErr *listing.FetchError
	if loadErr != nil && !errors.As(loadErr, &fetchErr) {
		return listing.State{}, 0, loadErr
	}

	if fetchErr != nil {
		slog.Warn("error fetching next page", "view_id", id, "cursor", fetchErr.Cursor, "error", fetchErr.Err)
	}

	next := controller.State()
	if err := h.views.Save(ctx, id, next); err != nil {
		return listing.State{}, 0, err
	}

	return next, len(out.Appended), loadErr
}

func (h *ListingHandler) renderIndex(c *gin.Context, status int, id string, state listing.State, loading bool) {
	page, err := h.site.Renderer().Index(render.IndexView{
		ViewID:  id,
		Items:   state.Items,
		HasMore: state.HasMore(),
		Failed:  state.Failure != "",
		Loading: loading,
	})
	if err != nil {
		slog.Error("error rendering listing", "view_id", id, "error", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.Data(status, htmlContentType, page)
}

func renderError(c *gin.Context, renderer *render.Renderer, status int, message string) {
	page, err := renderer.Error(message)
	if err != nil {
		slog.Error("error rendering error page", "error", err)
		c.String(status, message)
		return
	}

	c.Data(status, htmlContentType, page)
}
