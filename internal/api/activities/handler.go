// Package activities provides REST API handlers for activities and their
// engagement workflows: proposals, puzzles, happenings, challenges, reviews
// and skills.
package activities

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillquest/skillquest/internal/apperr"
	"github.com/skillquest/skillquest/internal/auth"
	"github.com/skillquest/skillquest/internal/models"
	"github.com/skillquest/skillquest/internal/photos"
	activitysvc "github.com/skillquest/skillquest/internal/service/activities"
	"github.com/skillquest/skillquest/internal/service/leaderboard"
	"github.com/skillquest/skillquest/internal/service/review"
	"github.com/skillquest/skillquest/internal/service/skills"
	"github.com/skillquest/skillquest/pkg/logger"
)

const maxUploadFiles = 10

// ActivityService interface for proposals and activity reads.
type ActivityService interface {
	CreatePendingActivity(ctx context.Context, userID uint, draft activitysvc.Draft) (*models.PendingActivity, error)
	ApprovePendingActivity(ctx context.Context, pendingID, moderatorID uint) (*models.Activity, error)
	DisapprovePendingActivity(ctx context.Context, pendingID, moderatorID uint) error
	GetActivity(ctx context.Context, id uint) (*models.Activity, error)
	ListUserActivities(ctx context.Context, userID uint) ([]models.Activity, error)
	ListPending(ctx context.Context) ([]models.PendingActivity, error)
}

// PuzzleService interface for puzzle answers.
type PuzzleService interface {
	AnswerToPuzzle(ctx context.Context, activityID, userID uint, answer string) (int, error)
}

// HappeningService interface for happening attendance and completion.
type HappeningService interface {
	Attend(ctx context.Context, activityID, userID uint, attend bool) error
	ConfirmAttendance(ctx context.Context, activityID, userID uint) error
	CompleteHappening(ctx context.Context, activityID, userID uint, files []photos.File) ([]models.HappeningMedia, error)
	ApproveCompletion(ctx context.Context, activityID, moderatorID uint, accept bool) error
	GetAttendees(ctx context.Context, activityID uint) ([]models.UserAttendance, error)
}

// ChallengeService interface for challenge answers.
type ChallengeService interface {
	AnswerToChallenge(ctx context.Context, activityID, userID uint, description string, files []photos.File) (*models.UserChallengeAnswer, error)
	ListAnswers(ctx context.Context, activityID uint) ([]models.UserChallengeAnswer, error)
	ConfirmChallengeAnswer(ctx context.Context, answerID, requesterID uint) error
	ApproveChallengeAnswer(ctx context.Context, answerID, moderatorID uint) (int, error)
	DisapproveChallengeAnswer(ctx context.Context, answerID, moderatorID uint) error
}

// ReviewService interface for activity reviews.
type ReviewService interface {
	ReviewActivity(ctx context.Context, reviewerID, activityID uint, reviewType models.ReviewType) (*review.Result, error)
	ListReviews(ctx context.Context, activityID uint) ([]models.UserReview, error)
}

// SkillService interface for skill allocation.
type SkillService interface {
	GetSkillsData(ctx context.Context, userID uint) (*skills.SkillData, error)
	UpdateSkillsData(ctx context.Context, userID uint, levels map[models.ActivityType]int) (*skills.SkillData, error)
	ResetSkillsData(ctx context.Context, userID uint) (*skills.SkillData, error)
}

// LeaderboardService interface for rankings.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, period, metric string, limit int) ([]leaderboard.Entry, error)
	GetUserStats(ctx context.Context, userID uint, period, metric string) (*leaderboard.UserStats, error)
}

// Services groups the engines served over HTTP.
type Services struct {
	Activities  ActivityService
	Puzzles     PuzzleService
	Happenings  HappeningService
	Challenges  ChallengeService
	Reviews     ReviewService
	Skills      SkillService
	Leaderboard LeaderboardService
}

// Handler handles activity API requests.
type Handler struct {
	services Services
	log      *logger.Logger
}

// NewHandler creates a new activity handler.
func NewHandler(services Services, log *logger.Logger) *Handler {
	return &Handler{
		services: services,
		log:      log.Component("api"),
	}
}

// RegisterRoutes mounts every endpoint on api. The group must already run
// auth.Middleware; moderator guards moderation endpoints.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, moderator gin.HandlerFunc) {
	api.POST("/proposals", h.CreatePendingActivity)
	api.GET("/proposals", moderator, h.ListPending)
	api.POST("/proposals/:id/approve", moderator, h.ApprovePendingActivity)
	api.POST("/proposals/:id/disapprove", moderator, h.DisapprovePendingActivity)

	api.GET("/activities/:id", h.GetActivity)
	api.GET("/users/:id/activities", h.ListUserActivities)

	api.POST("/activities/:id/puzzle/answer", h.AnswerToPuzzle)

	api.POST("/activities/:id/attendance", h.Attend)
	api.POST("/activities/:id/attendance/confirm", h.ConfirmAttendance)
	api.GET("/activities/:id/attendees", h.GetAttendees)
	api.POST("/activities/:id/completion", h.CompleteHappening)
	api.POST("/activities/:id/completion/approve", moderator, h.ApproveCompletion)

	api.POST("/activities/:id/challenge/answers", h.AnswerToChallenge)
	api.GET("/activities/:id/challenge/answers", h.ListChallengeAnswers)
	api.POST("/challenge-answers/:id/confirm", h.ConfirmChallengeAnswer)
	api.POST("/challenge-answers/:id/approve", moderator, h.ApproveChallengeAnswer)
	api.POST("/challenge-answers/:id/disapprove", moderator, h.DisapproveChallengeAnswer)

	api.POST("/activities/:id/reviews", h.ReviewActivity)
	api.GET("/activities/:id/reviews", h.ListReviews)

	api.GET("/users/:id/skills", h.GetSkillsData)
	api.PUT("/me/skills", h.UpdateSkillsData)
	api.DELETE("/me/skills", h.ResetSkillsData)

	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/users/:id/stats", h.GetUserStats)
}

// Helper functions

// parseID extracts and validates the numeric id from the URL parameter.
func (h *Handler) parseID(c *gin.Context, what string) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid %s ID: %s", what, idStr))
		return 0, false
	}
	return uint(id), true
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// currentUser returns the authenticated caller or aborts with 401.
func (h *Handler) currentUser(c *gin.Context) (uint, bool) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}

// bindJSON decodes the request body or responds with 400.
func (h *Handler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// readPhotos opens the "photos" parts of a multipart request. The returned
// closer must be called once the files have been consumed.
func (h *Handler) readPhotos(c *gin.Context) ([]photos.File, func(), error) {
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, fmt.Errorf("invalid multipart form: %w", err)
	}

	headers := form.File["photos"]
	if len(headers) > maxUploadFiles {
		return nil, noop, fmt.Errorf("at most %d photos may be uploaded", maxUploadFiles)
	}

	files := make([]photos.File, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, noop, fmt.Errorf("failed to read %s: %w", header.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, photos.File{Name: header.Filename, Body: f})
	}
	return files, closeAll, nil
}

// handleError maps an engine error to a response. Fatal errors are logged
// and their cause hidden from the client.
func (h *Handler) handleError(c *gin.Context, err error, action string) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Failed to " + action)
		h.errorResponse(c, status, "Failed to "+action)
		return
	}
	h.log.Debug().Err(err).Str("path", c.FullPath()).Msg("Request rejected")

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		h.errorResponse(c, status, "Failed to "+action)
		return
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":     appErr.Message,
		"code":      appErr.Kind,
		"timestamp": time.Now().UTC(),
	})
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
