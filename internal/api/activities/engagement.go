package activities

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type puzzleAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

type attendRequest struct {
	Attend *bool `json:"attend" binding:"required"`
}

type completionDecisionRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// AnswerToPuzzle submits the caller's single puzzle attempt.
// POST /api/v1/activities/:id/puzzle/answer.
func (h *Handler) AnswerToPuzzle(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}
	var req puzzleAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	xp, err := h.services.Puzzles.AnswerToPuzzle(c.Request.Context(), activityID, userID, req.Answer)
	if err != nil {
		h.handleError(c, err, "answer puzzle")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity_id": activityID,
		"correct":     true,
		"xp":          xp,
	})
}

// Attend registers or cancels the caller's attendance.
// POST /api/v1/activities/:id/attendance.
func (h *Handler) Attend(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}
	var req attendRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.services.Happenings.Attend(c.Request.Context(), activityID, userID, *req.Attend); err != nil {
		h.handleError(c, err, "update attendance")
		return
	}

	c.Status(http.StatusNoContent)
}

// ConfirmAttendance confirms the caller is present at a running happening.
// POST /api/v1/activities/:id/attendance/confirm.
func (h *Handler) ConfirmAttendance(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}

	if err := h.services.Happenings.ConfirmAttendance(c.Request.Context(), activityID, userID); err != nil {
		h.handleError(c, err, "confirm attendance")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAttendees lists the attendance rows of a happening.
// GET /api/v1/activities/:id/attendees.
func (h *Handler) GetAttendees(c *gin.Context) {
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}

	attendees, err := h.services.Happenings.GetAttendees(c.Request.Context(), activityID)
	if err != nil {
		h.handleError(c, err, "list attendees")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity_id": activityID,
		"attendees":   attendees,
		"total":       len(attendees),
	})
}

// CompleteHappening uploads completion evidence as multipart "photos" parts.
// POST /api/v1/activities/:id/completion.
func (h *Handler) CompleteHappening(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}
	files, closeFiles, err := h.readPhotos(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	defer closeFiles()

	media, err := h.services.Happenings.CompleteHappening(c.Request.Context(), activityID, userID, files)
	if err != nil {
		h.handleError(c, err, "complete happening")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"activity_id": activityID,
		"media":       media,
	})
}

// ApproveCompletion accepts or rejects a happening's completion evidence.
// POST /api/v1/activities/:id/completion/approve.
func (h *Handler) ApproveCompletion(c *gin.Context) {
	moderatorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}
	var req completionDecisionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.services.Happenings.ApproveCompletion(c.Request.Context(), activityID, moderatorID, *req.Accept); err != nil {
		h.handleError(c, err, "decide happening completion")
		return
	}

	c.Status(http.StatusNoContent)
}

// AnswerToChallenge submits or replaces the caller's challenge answer. The
// body is multipart with a "description" field and optional "photos" parts.
// POST /api/v1/activities/:id/challenge/answers.
func (h *Handler) AnswerToChallenge(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}
	files, closeFiles, err := h.readPhotos(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	defer closeFiles()

	answer, err := h.services.Challenges.AnswerToChallenge(c.Request.Context(), activityID, userID, c.PostForm("description"), files)
	if err != nil {
		h.handleError(c, err, "answer challenge")
		return
	}

	c.JSON(http.StatusOK, answer)
}

// ListChallengeAnswers returns the answers to a challenge.
// GET /api/v1/activities/:id/challenge/answers.
func (h *Handler) ListChallengeAnswers(c *gin.Context) {
	activityID, ok := h.parseID(c, "activity")
	if !ok {
		return
	}

	answers, err := h.services.Challenges.ListAnswers(c.Request.Context(), activityID)
	if err != nil {
		h.handleError(c, err, "list challenge answers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity_id": activityID,
		"answers":     answers,
		"total":       len(answers),
	})
}

// ConfirmChallengeAnswer lets the challenge owner pick a winning answer.
// POST /api/v1/challenge-answers/:id/confirm.
func (h *Handler) ConfirmChallengeAnswer(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	answerID, ok := h.parseID(c, "answer")
	if !ok {
		return
	}

	if err := h.services.Challenges.ConfirmChallengeAnswer(c.Request.Context(), answerID, userID); err != nil {
		h.handleError(c, err, "confirm challenge answer")
		return
	}

	c.Status(http.StatusNoContent)
}

// ApproveChallengeAnswer rewards the confirmed answer and resolves the challenge.
// POST /api/v1/challenge-answers/:id/approve.
func (h *Handler) ApproveChallengeAnswer(c *gin.Context) {
	moderatorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	answerID, ok := h.parseID(c, "answer")
	if !ok {
		return
	}

	xp, err := h.services.Challenges.ApproveChallengeAnswer(c.Request.Context(), answerID, moderatorID)
	if err != nil {
		h.handleError(c, err, "approve challenge answer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer_id": answerID,
		"xp":        xp,
	})
}

// DisapproveChallengeAnswer sends a confirmed answer back to the owner.
// POST /api/v1/challenge-answers/:id/disapprove.
func (h *Handler) DisapproveChallengeAnswer(c *gin.Context) {
	moderatorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	answerID, ok := h.parseID(c, "answer")
	if !ok {
		return
	}

	if err := h.services.Challenges.DisapproveChallengeAnswer(c.Request.Context(), answerID, moderatorID); err != nil {
		h.handleError(c, err, "disapprove challenge answer")
		return
	}

	c.Status(http.StatusNoContent)
}
