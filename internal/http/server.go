package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simpyt/search-room/internal/conformity"
	"github.com/simpyt/search-room/internal/criteria"
	"github.com/simpyt/search-room/internal/identity"
	"github.com/simpyt/search-room/internal/intelligence"
	"github.com/simpyt/search-room/internal/storage"
)

// Server wires the analytic core to its collaborators: SQLite persistence, the
// optional Redis snapshot cache, the external compatibility scorer and the
// portal registry. Handlers orchestrate; all the math lives in the core packages.
type Server struct {
	Store       *storage.SQLiteStore
	Cache       *storage.SnapshotCache
	Scorer      intelligence.Scorer
	Registry    *identity.Registry
	Conformity  conformity.Config
	CombineOpts criteria.Options
	Logger      *zap.Logger
}

func NewServer(store *storage.SQLiteStore, cache *storage.SnapshotCache, scorer intelligence.Scorer,
	registry *identity.Registry, confCfg conformity.Config, combineOpts criteria.Options, logger *zap.Logger) *Server {
	if registry == nil {
		registry = identity.DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Store:       store,
		Cache:       cache,
		Scorer:      scorer,
		Registry:    registry,
		Conformity:  confCfg,
		CombineOpts: combineOpts,
		Logger:      logger,
	}
}

func (s *Server) Routes() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)

	rooms := router.Group("/rooms/:roomID")
	{
		rooms.PUT("/criteria/:userID", s.handleSaveCriteria)
		rooms.GET("/criteria", s.handleListCriteria)
		rooms.POST("/criteria/combined", s.handleCombine)
		rooms.GET("/criteria/combined", s.handleGetCombined)

		rooms.POST("/compatibility", s.handleRecomputeCompatibility)
		rooms.GET("/compatibility", s.handleGetCompatibility)

		rooms.POST("/listings", s.handlePinListing)
		rooms.GET("/listings", s.handleListListings)
		rooms.PATCH("/listings/:listingID", s.handlePatchListing)
		rooms.GET("/listings/:listingID/conformity", s.handleConformity)
	}

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
