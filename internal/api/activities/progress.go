package activities

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/service/leaderboard"
)

type reviewRequest struct {
	ReviewType models.ReviewType `json:"review_type_id" binding:"required"`
}

type skillsRequest struct {
	Levels map[models.ActivityType]int `json:"levels" binding:"required"`
}

// ReviewActivity rates an activity, adjusting the owner's XP.
// POST /api/v1/activities/:id/reviews.
func (h *Handler) ReviewActivity(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}
	var req reviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.services.Reviews.ReviewActivity(c.Request.Context(), userID, activityID, req.ReviewType)
	if err != nil {
		h.handleError(c, err, "review activity")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListReviews returns the reviews of an activity.
// GET /api/v1/activities/:id/reviews.
func (h *Handler) ListReviews(c *gin.Context) {
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}

	reviews, err := h.services.Reviews.ListReviews(c.Request.Context(), activityID)
	if err != nil {
		h.handleError(c, err, "list reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity_id": activityID,
		"reviews":     reviews,
		"total":       len(reviews),
	})
}

// GetSkillsData returns a user's skill overview.
// GET /api/v1/users/:id/skills.
func (h *Handler) GetSkillsData(c *gin.Context) {
	userID, ok := h.parseID(c, "user")
	if !ok {
		return
	}

	data, err := h.services.Skills.GetSkillsData(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "get skills")
		return
	}

	c.JSON(http.StatusOK, data)
}

// UpdateSkillsData allocates the caller's skill points.
// PUT /api/v1/me/skills.
func (h *Handler) UpdateSkillsData(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req skillsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	data, err := h.services.Skills.UpdateSkillsData(c.Request.Context(), userID, req.Levels)
	if err != nil {
		h.handleError(c, err, "update skills")
		return
	}

	c.JSON(http.StatusOK, data)
}

// ResetSkillsData releases every allocated skill point of the caller.
// DELETE /api/v1/me/skills.
func (h *Handler) ResetSkillsData(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	data, err := h.services.Skills.ResetSkillsData(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "reset skills")
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetLeaderboard ranks users.
// GET /api/v1/leaderboard?period=week&metric=xp&limit=10.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	period := c.DefaultQuery("period", "all_time")
	metric := c.DefaultQuery("metric", leaderboard.MetricXp)
	limit, err := h.parseLimit(c, 10)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.services.Leaderboard.GetLeaderboard(c.Request.Context(), period, metric, limit)
	if err != nil {
		h.handleError(c, err, "retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   entries,
		"period":        period,
		"metric":        metric,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// GetUserStats returns a user's ranking statistics.
// GET /api/v1/users/:id/stats?period=month&metric=reviews.
func (h *Handler) GetUserStats(c *gin.Context) {
	userID, ok := h.parseID(c, "user")
	if !ok {
		return
	}
	period := c.DefaultQuery("period", "all_time")
	metric := c.DefaultQuery("metric", leaderboard.MetricXp)

	stats, err := h.services.Leaderboard.GetUserStats(c.Request.Context(), userID, period, metric)
	if err != nil {
		h.handleError(c, err, "retrieve user statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}
