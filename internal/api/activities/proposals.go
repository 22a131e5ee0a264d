package activities

import (
	"net/http"

	"github.com/gin-gonic/gin"

	activitysvc "github.com/skillquest/skillquest/internal/service/activities"
)

// CreatePendingActivity submits a proposal for moderation.
// POST /api/v1/proposals.
func (h *Handler) CreatePendingActivity(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var draft activitysvc.Draft
	if !h.bindJSON(c, &draft) {
		return
	}

	pending, err := h.services.Activities.CreatePendingActivity(c.Request.Context(), userID, draft)
	if err != nil {
		h.handleError(c, err, "create proposal")
		return
	}

	c.JSON(http.StatusCreated, pending)
}

// ListPending returns proposals awaiting moderation.
// GET /api/v1/proposals.
func (h *Handler) ListPending(c *gin.Context) {
	pending, err := h.services.Activities.ListPending(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "list proposals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proposals": pending,
		"total":     len(pending),
	})
}

// ApprovePendingActivity publishes a proposal.
// POST /api/v1/proposals/:id/approve.
func (h *Handler) ApprovePendingActivity(c *gin.Context) {
	moderatorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	pendingID, ok := h.parseID(c, "proposal")
	if !ok {
		return
	}

	activity, err := h.services.Activities.ApprovePendingActivity(c.Request.Context(), pendingID, moderatorID)
	if err != nil {
		h.handleError(c, err, "approve proposal")
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// DisapprovePendingActivity discards a proposal.
// POST /api/v1/proposals/:id/disapprove.
func (h *Handler) DisapprovePendingActivity(c *gin.Context) {
	moderatorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	pendingID, ok := h.parseID(c, "proposal")
	if !ok {
		return
	}

	if err := h.services.Activities.DisapprovePendingActivity(c.Request.Context(), pendingID, moderatorID); err != nil {
		h.handleError(c, err, "disapprove proposal")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetActivity returns one activity.
// GET /api/v1/activities/:id.
func (h *Handler) GetActivity(c *gin.Context) {
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}

	activity, err := h.services.Activities.GetActivity(c.Request.Context(), activityID)
	if err != nil {
		h.handleError(c, err, "get activity")
		return
	}

	c.JSON(http.StatusOK, activity)
}

// ListUserActivities returns the activities a user owns.
// GET /api/v1/users/:id/activities.
func (h *Handler) ListUserActivities(c *gin.Context) {
	userID, ok := h.parseID(c, "user")
	if !ok {
		return
	}

	activities, err := h.services.Activities.ListUserActivities(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "list activities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    userID,
		"activities": activities,
		"total":      len(activities),
	})
}
