package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simpyt/search-room/internal/conformity"
	"github.com/simpyt/search-room/internal/domain"
	"github.com/simpyt/search-room/internal/storage"
)

type pinListingRequest struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Price       *float64 `json:"price"`
	Rooms       *float64 `json:"rooms"`
	LivingSpace *float64 `json:"living_space"`
	YearBuilt   *float64 `json:"year_built"`
	LotSize     *float64 `json:"lot_size"`
	Location    string   `json:"location"`
	Features    []string `json:"features"`
}

// handlePinListing resolves the URL to a stable external id and creates the
// listing unless the room already tracks that id.
func (s *Server) handlePinListing(c *gin.Context) {
	roomID := c.Param("roomID")

	var req pinListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	id := s.Registry.Resolve(req.URL)

	listing := domain.Listing{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		ExternalID:  id.ExternalID,
		Source:      id.Source,
		URL:         req.URL,
		Title:       req.Title,
		Price:       req.Price,
		Rooms:       req.Rooms,
		LivingSpace: req.LivingSpace,
		YearBuilt:   req.YearBuilt,
		LotSize:     req.LotSize,
		Location:    req.Location,
		Features:    req.Features,
		Status:      domain.ListingNew,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.Store.CreateListing(listing); err != nil {
		if errors.Is(err, storage.ErrDuplicateListing) {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate", "external_id": id.ExternalID})
			return
		}
		s.Logger.Error("create listing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (s *Server) handleListListings(c *gin.Context) {
	roomID := c.Param("roomID")
	listings, err := s.Store.ListListings(roomID)
	if err != nil {
		s.Logger.Error("list listings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "items": listings})
}

type patchListingRequest struct {
	Status *domain.ListingStatus `json:"status"`
	SeenBy *string               `json:"seen_by"`
}

// handlePatchListing mutates the only post-creation fields: status and seen-by.
func (s *Server) handlePatchListing(c *gin.Context) {
	roomID, listingID := c.Param("roomID"), c.Param("listingID")

	var req patchListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if req.Status == nil && req.SeenBy == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		ok, err := s.Store.UpdateListingStatus(roomID, listingID, *req.Status)
		if err != nil {
			s.Logger.Error("update listing status", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
	}
	if req.SeenBy != nil {
		ok, err := s.Store.MarkListingSeen(roomID, listingID, *req.SeenBy)
		if err != nil {
			s.Logger.Error("mark listing seen", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
	}

	listing, ok, err := s.Store.GetListing(roomID, listingID)
	if err != nil || !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// handleConformity evaluates one listing against one party's or the combined
// criteria and returns the per-dimension report.
func (s *Server) handleConformity(c *gin.Context) {
	roomID, listingID := c.Param("roomID"), c.Param("listingID")
	against := c.DefaultQuery("against", "combined")

	listing, ok, err := s.Store.GetListing(roomID, listingID)
	if err != nil {
		s.Logger.Error("load listing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	var (
		crit    domain.SearchCriteria
		weights domain.CriteriaWeights
	)
	if against == "combined" {
		combined, ok, err := s.Store.LatestCombinedCriteria(roomID)
		if err != nil {
			s.Logger.Error("load combined criteria", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no combined criteria; recompute first"})
			return
		}
		crit, weights = combined.Criteria, combined.Weights
	} else {
		ucs, err := s.Store.LatestUserCriteria(roomID)
		if err != nil {
			s.Logger.Error("load criteria", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}
		found := false
		for _, uc := range ucs {
			if uc.UserID == against {
				crit, weights = uc.Criteria, uc.Weights
				found = true
				break
			}
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "no criteria for user " + against})
			return
		}
	}

	report := conformity.Evaluate(listing, crit, weights, s.Conformity)
	c.JSON(http.StatusOK, gin.H{
		"listing_id": listingID,
		"against":    against,
		"report":     report.ByDimension(),
	})
}
