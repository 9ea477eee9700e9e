package main

import (
	"log"
	"log/slog"

	"ignews/config"
	"ignews/db"
	"ignews/internal/handler"
	"ignews/internal/listing"
	"ignews/internal/render"
	"ignews/internal/repository"
	"ignews/internal/site"
	"ignews/pkg/prismic"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {

	godotenv.Load()

	cfg := config.Load()

	mode, err := listing.ParseAppendMode(cfg.AppendMode)
	if err != nil {
		log.Fatalf("error reading LISTING_APPEND_MODE: %v", err)
	}

	err = db.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	var postRepo *repository.PostRepository
	if cfg.DatabaseURL != "" {
		err = db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("error connecting to DB: %v", err)
		}
		defer db.Close()

		postRepo = repository.NewPostRepository(db.DB, cfg.MirrorSearchURL())
	}

	var source site.Source
	switch cfg.ContentSource {
	case config.SourceMirror:
		if postRepo == nil {
			log.Fatalf("CONTENT_SOURCE=%s requires DATABASE_URL", config.SourceMirror)
		}
		source = postRepo
	case config.SourcePrismic:
		if cfg.PrismicAPIURL == "" {
			log.Fatalf("PRISMIC_API_URL environment variable is not set")
		}
		source = prismic.NewClient(cfg.PrismicAPIURL, cfg.PrismicAccessToken)
	default:
		log.Fatalf("unknown CONTENT_SOURCE %q", cfg.ContentSource)
	}

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("error parsing templates: %v", err)
	}

	pageCache := repository.NewPageCacheRepository(db.Redis, cfg.Revalidate)
	viewRepo := repository.NewViewRepository(db.Redis, cfg.ViewTTL)
	builder := site.NewBuilder(source, pageCache, renderer, cfg.ListingPageSize)

	listingHandler := handler.NewListingHandler(builder, viewRepo, mode)
	postHandler := handler.NewPostHandler(builder)

	r := gin.Default()

	slog.Info("AllowOrigins URL:", "urls", cfg.AllowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/", listingHandler.GetHome)
	r.POST("/more", listingHandler.LoadMoreFromHome)
	r.GET("/views/:id", listingHandler.GetView)
	r.POST("/views/:id/more", listingHandler.LoadMore)
	r.POST("/api/views", listingHandler.CreateViewJSON)
	r.GET("/api/views/:id", listingHandler.GetViewJSON)
	r.POST("/api/views/:id/more", listingHandler.LoadMoreJSON)
	r.GET("/post/:slug", postHandler.GetPost)
	r.GET("/health", listingHandler.GetHealth)

	if postRepo != nil {
		documentHandler := handler.NewDocumentHandler(postRepo)
		r.GET("/api/v2/documents/search", documentHandler.Search)
		r.GET("/api/v2/documents/:uid", documentHandler.GetDocument)
	}

	slog.Info("starting server", "port", cfg.Port, "source", source.Name(), "append_mode", mode)

	err = r.Run(":" + cfg.Port)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
