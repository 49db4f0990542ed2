package controller

import (
	"errors"
	"io"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Attempts *service.AttemptService
	Proctor  *service.Proctor
	Hub      *service.AttemptHub
}

func NewAttemptController(attempts *service.AttemptService, proctor *service.Proctor, hub *service.AttemptHub) *AttemptController {
	return &AttemptController{Attempts: attempts, Proctor: proctor, Hub: hub}
}

type SaveAnswerRequest struct {
	Value model.AnswerValue `json:"value"`
}

type SaveAnswerResponse struct {
	Accepted bool                 `json:"accepted"`
	Answer   *model.AttemptAnswer `json:"answer,omitempty"`
}

// SubmitAttemptRequest carries answers keyed by question id. Omitted questions keep their saved draft.
type SubmitAttemptRequest struct {
	Answers map[uint]model.AnswerValue `json:"answers"`
}

func uintParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// @Summary Open an attempt
// @Description Starts the next attempt on an assessment, or resumes the one in progress. Timed attempts start their countdown.
// @Tags Attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assessment ID"
// @Success 201 {object} util.Response{data=service.AttemptView} "new attempt"
// @Success 200 {object} util.Response{data=service.AttemptView} "resumed attempt"
// @Failure 403 {object} util.Response "attempt limit exceeded"
// @Failure 404 {object} util.Response
// @Router /assessments/{id}/attempts [post]
func (c *AttemptController) OpenAttempt(ctx *gin.Context) {
	assessmentID, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	user := util.ClaimsFromContext(ctx)

	view, err := c.Attempts.OpenAttempt(ctx.Request.Context(), user.UserID, assessmentID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	if view.TimeLimitSeconds != nil {
		c.Proctor.Begin(view.Attempt, *view.TimeLimitSeconds)
	}

	if view.Resumed {
		util.Success(ctx, view)
		return
	}
	util.Created(ctx, view)
}

// @Summary List attempts
// @Description The caller's attempts on an assessment, oldest first.
// @Tags Attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assessment ID"
// @Success 200 {object} util.Response{data=[]model.Attempt}
// @Router /assessments/{id}/attempts [get]
func (c *AttemptController) ListAttempts(ctx *gin.Context) {
	assessmentID, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	user := util.ClaimsFromContext(ctx)

	attempts, err := c.Attempts.ListAttempts(ctx.Request.Context(), user.UserID, assessmentID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary Get an attempt
// @Tags Attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Success 200 {object} util.Response{data=service.AttemptView}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /attempts/{id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	user := util.ClaimsFromContext(ctx)

	view, err := c.Attempts.GetAttempt(ctx.Request.Context(), ctx.Param("id"), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary Save a draft answer
// @Description Answers sent after the attempt ended are ignored and reported with accepted=false.
// @Tags Attempts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Param questionId path int true "Question ID"
// @Param body body SaveAnswerRequest true "Answer"
// @Success 200 {object} util.Response{data=SaveAnswerResponse}
// @Failure 400 {object} util.Response
// @Router /attempts/{id}/answers/{questionId} [put]
func (c *AttemptController) SaveAnswer(ctx *gin.Context) {
	questionID, ok := uintParam(ctx, "questionId")
	if !ok {
		return
	}
	var req SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user := util.ClaimsFromContext(ctx)

	answer, accepted, err := c.Attempts.SaveAnswer(ctx.Request.Context(), ctx.Param("id"), user.UserID, questionID, req.Value)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, SaveAnswerResponse{Accepted: accepted, Answer: answer})
}

// @Summary Upload a media answer
// @Description Stores an audio, video or file answer and saves its URL as the question's draft.
// @Tags Attempts
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Param questionId path int true "Question ID"
// @Param file formData file true "Recording or document"
// @Success 200 {object} util.Response{data=SaveAnswerResponse}
// @Failure 400 {object} util.Response
// @Router /attempts/{id}/answers/{questionId}/upload [post]
func (c *AttemptController) UploadAnswer(ctx *gin.Context) {
	questionID, ok := uintParam(ctx, "questionId")
	if !ok {
		return
	}
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()
	user := util.ClaimsFromContext(ctx)

	answer, accepted, err := c.Attempts.UploadAnswer(ctx.Request.Context(), ctx.Param("id"), user.UserID, questionID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, SaveAnswerResponse{Accepted: accepted, Answer: answer})
}

// @Summary Submit an attempt
// @Description Stops the countdown, grades the attempt and, for a passed final exam, promotes the student. Submitting again returns the stored result.
// @Tags Attempts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Param body body SubmitAttemptRequest false "Answers overriding saved drafts"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Failure 503 {object} util.Response{data=util.ErrorDetail} "retryable persistence failure"
// @Router /attempts/{id}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	var req SubmitAttemptRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	user := util.ClaimsFromContext(ctx)
	attemptID := ctx.Param("id")

	// ownership is checked before the countdown of someone else's attempt can be touched
	if _, err := c.Attempts.GetAttempt(ctx.Request.Context(), attemptID, user.UserID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	c.Proctor.End(attemptID)

	result, err := c.Attempts.SubmitAttempt(ctx.Request.Context(), attemptID, user.UserID, req.Answers, model.TriggerManual)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary Attempt event stream
// @Description WebSocket carrying COUNTDOWN_TICK, COUNTDOWN_EXPIRED and ATTEMPT_SUBMITTED events for one attempt.
// @Tags Attempts
// @Security ApiKeyAuth
// @Param id path string true "Attempt ID"
// @Param token query string false "JWT for clients that cannot set headers"
// @Router /attempts/{id}/events [get]
func (c *AttemptController) Events(ctx *gin.Context) {
	user := util.ClaimsFromContext(ctx)
	attemptID := ctx.Param("id")

	if _, err := c.Attempts.GetAttempt(ctx.Request.Context(), attemptID, user.UserID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	service.ServeAttemptEvents(c.Hub, ctx.Writer, ctx.Request, user.UserID, attemptID)
}
