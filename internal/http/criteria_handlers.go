package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simpyt/search-room/internal/compat"
	"github.com/simpyt/search-room/internal/criteria"
	"github.com/simpyt/search-room/internal/domain"
)

type saveCriteriaRequest struct {
	Criteria domain.SearchCriteria  `json:"criteria"`
	Weights  domain.CriteriaWeights `json:"weights"`
	Source   domain.CriteriaSource  `json:"source"`
}

// handleSaveCriteria appends a new UserCriteria record; earlier records are
// never mutated, the latest timestamp wins.
func (s *Server) handleSaveCriteria(c *gin.Context) {
	roomID, userID := c.Param("roomID"), c.Param("userID")

	var req saveCriteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if err := req.Criteria.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Source == "" {
		req.Source = domain.SourceManual
	}
	if req.Source != domain.SourceManual && req.Source != domain.SourceAIProposed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be manual or ai_proposed"})
		return
	}

	uc := domain.UserCriteria{
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Criteria:  req.Criteria,
		Weights:   req.Weights,
		Source:    req.Source,
	}
	if err := s.Store.SaveUserCriteria(uc); err != nil {
		s.Logger.Error("save criteria", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	s.Cache.Invalidate(c.Request.Context(), roomID)
	c.JSON(http.StatusCreated, uc)
}

func (s *Server) handleListCriteria(c *gin.Context) {
	roomID := c.Param("roomID")
	ucs, err := s.Store.LatestUserCriteria(roomID)
	if err != nil {
		s.Logger.Error("list criteria", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "criteria": ucs})
}

// handleCombine recomputes the room's combined criteria from the latest record
// per party. Every recomputation is a new timestamped record.
func (s *Server) handleCombine(c *gin.Context) {
	roomID := c.Param("roomID")
	mode := domain.CombineMode(c.DefaultQuery("mode", string(domain.CombineAll)))

	ucs, err := s.Store.LatestUserCriteria(roomID)
	if err != nil {
		s.Logger.Error("load criteria", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	if len(ucs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no criteria in room"})
		return
	}

	var a, b *domain.UserCriteria
	a = &ucs[0]
	if len(ucs) > 1 {
		b = &ucs[1]
	}

	combined, err := criteria.Combine(a, b, mode, s.CombineOpts)
	if err != nil {
		switch {
		case errors.Is(err, criteria.ErrUnknownCombineMode), errors.Is(err, domain.ErrMissingOfferType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.Logger.Error("combine criteria", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "combine failure"})
		}
		return
	}
	combined.RoomID = roomID
	combined.Timestamp = time.Now().UTC()

	if err := s.Store.SaveCombinedCriteria(combined); err != nil {
		s.Logger.Error("save combined criteria", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusCreated, combined)
}

func (s *Server) handleGetCombined(c *gin.Context) {
	roomID := c.Param("roomID")
	combined, ok, err := s.Store.LatestCombinedCriteria(roomID)
	if err != nil {
		s.Logger.Error("load combined criteria", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, combined)
}

// handleRecomputeCompatibility gathers the two latest criteria records, asks the
// external scorer for a score and comment, and persists the bucketed snapshot.
// With fewer than two parties the score is defined as 100 and the scorer is not
// called.
func (s *Server) handleRecomputeCompatibility(c *gin.Context) {
	roomID := c.Param("roomID")
	ucs, err := s.Store.LatestUserCriteria(roomID)
	if err != nil {
		s.Logger.Error("load criteria", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	refs := make([]domain.CriteriaRef, 0, len(ucs))
	for _, uc := range ucs {
		refs = append(refs, domain.CriteriaRef{UserID: uc.UserID, Timestamp: uc.Timestamp})
	}

	var snap domain.CompatibilitySnapshot
	if len(ucs) < 2 {
		snap = compat.SinglePartySnapshot(roomID, "Waiting for a second wishlist.", refs)
	} else {
		score, comment, err := s.Scorer.ScoreCompatibility(c.Request.Context(), ucs[0], ucs[1])
		if err != nil {
			s.Logger.Error("compatibility scorer", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "scorer unavailable"})
			return
		}
		snap = compat.NewSnapshot(roomID, score, comment, refs[:2])
	}

	if err := s.Store.SaveSnapshot(snap); err != nil {
		s.Logger.Error("save snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	s.Cache.Set(c.Request.Context(), snap)
	c.JSON(http.StatusCreated, gin.H{"snapshot": snap, "stale": false})
}

func (s *Server) handleGetCompatibility(c *gin.Context) {
	roomID := c.Param("roomID")

	snap, cached := s.Cache.Get(c.Request.Context(), roomID)
	if !cached {
		var ok bool
		var err error
		snap, ok, err = s.Store.LatestSnapshot(roomID)
		if err != nil {
			s.Logger.Error("load snapshot", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		s.Cache.Set(c.Request.Context(), snap)
	}

	ucs, err := s.Store.LatestUserCriteria(roomID)
	if err != nil {
		s.Logger.Error("load criteria", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	latest := make(map[string]time.Time, len(ucs))
	for _, uc := range ucs {
		latest[uc.UserID] = uc.Timestamp
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snap, "stale": snap.Stale(latest)})
}
