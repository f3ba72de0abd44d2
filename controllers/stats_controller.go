package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/bloglist/services"
	"github.com/cppla/bloglist/stats"
	"github.com/cppla/bloglist/utils"
)

// StatsController serves the list aggregates over the stored posts.
type StatsController struct {
	posts *services.PostService
	log   *zap.Logger
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(posts *services.PostService, log *zap.Logger) *StatsController {
	return &StatsController{posts: posts, log: log}
}

// GetStats summarizes every post.
func (s *StatsController) GetStats(ctx *gin.Context) {
	posts, err := s.posts.Snapshot(ctx.Request.Context())
	if err != nil {
		respondError(ctx, s.log, err)
		return
	}
	utils.Success(ctx, stats.Summarize(posts))
}

// GetUserStats summarizes the posts owned by one user.
func (s *StatsController) GetUserStats(ctx *gin.Context) {
	posts, err := s.posts.SnapshotOwnedBy(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, s.log, err)
		return
	}
	utils.Success(ctx, stats.Summarize(posts))
}
