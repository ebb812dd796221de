package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/quizsync/internal/auth"
	"github.com/lshigami/quizsync/internal/backend"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/service"
	"github.com/lshigami/quizsync/internal/session"
	"github.com/rs/zerolog/log"
)

// UserSource resolves the learner behind the current credential.
type UserSource interface {
	UserID() string
}

type QuizSessionController struct {
	sessions service.QuizSessionService
	progress service.ProgressService
	users    UserSource
}

func NewQuizSessionController(sessions service.QuizSessionService, progress service.ProgressService, users *auth.Holder) *QuizSessionController {
	return &QuizSessionController{sessions: sessions, progress: progress, users: users}
}

func (c *QuizSessionController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/quizzes/:quiz_id/attempts", c.StartAttempt)
	api.GET("/attempts/:attempt_id", c.GetAttempt)
	api.PUT("/attempts/:attempt_id/answers/:question_id", c.SelectAnswer)
	api.POST("/attempts/:attempt_id/navigation", c.Navigate)
	api.POST("/attempts/:attempt_id/complete", c.CompleteAttempt)
	api.POST("/attempts/:attempt_id/abort", c.AbortAttempt)
	api.GET("/attempts/:attempt_id/review", c.ReviewAttempt)
	api.POST("/progress", c.RecordProgress)
}

func attemptIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("attempt_id"), 10, 64)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid attempt ID format"})
		return 0, false
	}
	return id, true
}

// StartAttempt godoc
// @Summary Start or resume an attempt
// @Description Opens an attempt for the quiz. Offline, the attempt gets a negative placeholder ID until the backend issues one. An aborted attempt is resumed.
// @Tags Attempts
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 201 {object} dto.AttemptSnapshotDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid quiz ID"
// @Failure 401 {object} dto.ErrorResponse "Session expired"
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Failure 409 {object} dto.OpenAttemptResponse "An attempt for this quiz is still open"
// @Failure 503 {object} dto.ErrorResponse "Quiz definition unavailable offline"
// @Router /quizzes/{quiz_id}/attempts [post]
func (c *QuizSessionController) StartAttempt(ctx *gin.Context) {
	quizID, err := strconv.ParseUint(ctx.Param("quiz_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid quiz ID format"})
		return
	}
	snap, err := c.sessions.StartAttempt(ctx.Request.Context(), c.users.UserID(), uint(quizID))
	if err != nil {
		respondError(ctx, "StartAttempt", err)
		return
	}
	ctx.JSON(http.StatusCreated, snap)
}

// GetAttempt godoc
// @Summary Get an attempt
// @Tags Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID, placeholder IDs included"
// @Success 200 {object} dto.AttemptSnapshotDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [get]
func (c *QuizSessionController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := attemptIDParam(ctx)
	if !ok {
		return
	}
	snap, err := c.sessions.GetAttempt(ctx.Request.Context(), attemptID)
	if err != nil {
		respondError(ctx, "GetAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

// SelectAnswer godoc
// @Summary Select an answer
// @Description Single choice replaces the selection. Multiple choice toggles every listed option.
// @Tags Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param question_id path int true "Question ID"
// @Param selection body dto.SelectAnswerDTO true "Selected options"
// @Success 200 {object} dto.AttemptSnapshotDTO
// @Failure 400 {object} dto.ErrorResponse "Unknown question or option"
// @Failure 409 {object} dto.ErrorResponse "Attempt is not in progress"
// @Router /attempts/{attempt_id}/answers/{question_id} [put]
func (c *QuizSessionController) SelectAnswer(ctx *gin.Context) {
	attemptID, ok := attemptIDParam(ctx)
	if !ok {
		return
	}
	questionID, err := strconv.ParseUint(ctx.Param("question_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid question ID format"})
		return
	}
	var req dto.SelectAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SelectAnswer: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	snap, err := c.sessions.SelectAnswer(ctx.Request.Context(), attemptID, uint(questionID), req.OptionIDs)
	if err != nil {
		respondError(ctx, "SelectAnswer", err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

// Navigate godoc
// @Summary Move the question cursor
// @Tags Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param navigation body dto.NavigationDTO true "next, previous or jump with index"
// @Success 200 {object} dto.AttemptSnapshotDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid navigation"
// @Router /attempts/{attempt_id}/navigation [post]
func (c *QuizSessionController) Navigate(ctx *gin.Context) {
	attemptID, ok := attemptIDParam(ctx)
	if !ok {
		return
	}
	var req dto.NavigationDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	index := 0
	if req.Action == service.NavigateJump {
		if req.Index == nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "jump requires an index"})
			return
		}
		index = *req.Index
	}
	snap, err := c.sessions.Navigate(ctx.Request.Context(), attemptID, req.Action, index)
	if err != nil {
		respondError(ctx, "Navigate", err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

// CompleteAttempt godoc
// @Summary Complete an attempt
// @Description Grades the attempt. When the backend cannot be reached the local score is returned with optimistic set, and the completion is replayed later.
// @Tags Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 401 {object} dto.ErrorResponse "Session expired"
// @Failure 409 {object} dto.ErrorResponse "Attempt is not in progress"
// @Failure 422 {object} dto.UnansweredResponse "Some questions are unanswered"
// @Router /attempts/{attempt_id}/complete [post]
func (c *QuizSessionController) CompleteAttempt(ctx *gin.Context) {
	attemptID, ok := attemptIDParam(ctx)
	if !ok {
		return
	}
	result, err := c.sessions.CompleteAttempt(ctx.Request.Context(), attemptID)
	if err != nil {
		respondError(ctx, "CompleteAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// AbortAttempt godoc
// @Summary Leave an attempt
// @Description The attempt is kept and resumed when the quiz is started again.
// @Tags Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptSnapshotDTO
// @Failure 409 {object} dto.ErrorResponse "Attempt cannot be aborted"
// @Router /attempts/{attempt_id}/abort [post]
func (c *QuizSessionController) AbortAttempt(ctx *gin.Context) {
	attemptID, ok := attemptIDParam(ctx)
	if !ok {
		return
	}
	snap, err := c.sessions.AbortAttempt(ctx.Request.Context(), attemptID)
	if err != nil {
		respondError(ctx, "AbortAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}

// ReviewAttempt godoc
// @Summary Review a completed attempt
// @Tags Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptReviewDTO
// @Failure 409 {object} dto.ErrorResponse "Attempt is not completed"
// @Router /attempts/{attempt_id}/review [get]
func (c *QuizSessionController) ReviewAttempt(ctx *gin.Context) {
	attemptID, ok := attemptIDParam(ctx)
	if !ok {
		return
	}
	review, err := c.sessions.ReviewAttempt(ctx.Request.Context(), attemptID)
	if err != nil {
		respondError(ctx, "ReviewAttempt", err)
		return
	}
	ctx.JSON(http.StatusOK, review)
}

// RecordProgress godoc
// @Summary Record lesson quiz progress
// @Description Sends the progress record, or queues it in the offlineQuizUpdates lane.
// @Tags Progress
// @Accept json
// @Produce json
// @Param progress body dto.RecordProgressDTO true "Progress record"
// @Success 200 {object} dto.SubmissionDTO "Recorded by the backend"
// @Success 202 {object} dto.SubmissionDTO "Queued for replay"
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Router /progress [post]
func (c *QuizSessionController) RecordProgress(ctx *gin.Context) {
	var req dto.RecordProgressDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := c.progress.RecordProgress(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, "RecordProgress", err)
		return
	}
	status := http.StatusOK
	if res.Progress == nil {
		status = http.StatusAccepted
	}
	ctx.JSON(status, res)
}

func respondError(ctx *gin.Context, op string, err error) {
	var (
		unanswered *session.UnansweredError
		open       *service.AttemptOpenError
		apiErr     *backend.APIError
	)
	switch {
	case errors.As(err, &unanswered):
		ctx.JSON(http.StatusUnprocessableEntity, dto.UnansweredResponse{Error: err.Error(), Unanswered: unanswered.QuestionIDs})
	case errors.As(err, &open):
		ctx.JSON(http.StatusConflict, dto.OpenAttemptResponse{Error: err.Error(), AttemptID: open.AttemptID})
	case backend.Classify(err) == backend.KindAuthentication:
		log.Warn().Err(err).Msg(op + ": Credential refused")
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: auth.ErrSessionExpired.Error()})
	case errors.Is(err, service.ErrAttemptNotFound), errors.Is(err, service.ErrQuizNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrQuizUnavailable):
		ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, service.ErrReviewUnavailable):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrUnknownQuestion), errors.Is(err, session.ErrUnknownOption), errors.Is(err, session.ErrInvalidSelection):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &apiErr):
		log.Warn().Err(err).Int("status", apiErr.StatusCode).Msg(op + ": Backend rejected the request")
		ctx.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Msg(op + ": Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
}
