package v1

import (
	"errors"
	"io"
	"net/http"

	"portfolio-contact-backend/internal/delivery/http/response"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/usecase"
	"portfolio-contact-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const fieldErrorsMessage = "Please correct the highlighted fields."

type ContactHandler struct {
	contactUC domain.ContactUsecase
	sessions  *usecase.ContactSessions
}

// EditFieldRequest sets one form field
type EditFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// SessionResponse is returned when a form session is opened
type SessionResponse struct {
	ID       string          `json:"id"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// NewContactHandler registers the contact routes (public, no auth required)
func NewContactHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, sessions *usecase.ContactSessions) {
	handler := &ContactHandler{
		contactUC: contactUC,
		sessions:  sessions,
	}

	public.POST("/contact", handler.SubmitContact)

	forms := public.Group("/contact/sessions")
	forms.POST("", handler.OpenSession)
	forms.GET("/:id", handler.GetSession)
	forms.PATCH("/:id/fields", handler.EditField)
	forms.POST("/:id/submit", handler.SubmitSession)
	forms.GET("/:id/events", handler.StreamSession)
	forms.DELETE("/:id", handler.CloseSession)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Validate a contact message and relay it to the site owner in one call.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        contact  body      domain.FormInput  true  "Contact Form Data"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req domain.FormInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	snap, err := h.contactUC.SendContactMessage(c.Request.Context(), req)
	if err != nil {
		// Configuration faults look the same to visitors but not to operators
		if domain.IsConfigurationError(err) {
			c.Error(apperror.New(http.StatusServiceUnavailable, domain.UserFacingFailure, err))
			return
		}
		c.Error(apperror.New(http.StatusBadGateway, domain.UserFacingFailure, err))
		return
	}

	if len(snap.FieldErrors) > 0 {
		c.Error(apperror.Unprocessable(fieldErrorsMessage, snap.FieldErrors))
		return
	}

	response.Success(c, http.StatusOK, domain.SuccessMessage, nil)
}

// OpenSession godoc
// @Summary      Open Contact Form
// @Description  Create an idle contact form whose state can be edited, submitted and watched.
// @Tags         contact
// @Produce      json
// @Success      201  {object}  response.Response{data=SessionResponse}
// @Router       /contact/sessions [post]
func (h *ContactHandler) OpenSession(c *gin.Context) {
	id, ctrl := h.sessions.Open()
	response.Success(c, http.StatusCreated, "Contact form opened", SessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

// GetSession godoc
// @Summary      Get Contact Form State
// @Tags         contact
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response{data=domain.Snapshot}
// @Failure      404  {object}  response.Response
// @Router       /contact/sessions/{id} [get]
func (h *ContactHandler) GetSession(c *gin.Context) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.Error(sessionError(err))
		return
	}
	response.Success(c, http.StatusOK, "Contact form state", ctrl.Snapshot())
}

// EditField godoc
// @Summary      Edit Contact Form Field
// @Description  Set one field. Editing after a finished submission returns the form to idle.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Session ID"
// @Param        edit  body      EditFieldRequest  true  "Field and value"
// @Success      200   {object}  response.Response{data=domain.Snapshot}
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /contact/sessions/{id}/fields [patch]
func (h *ContactHandler) EditField(c *gin.Context) {
	var req EditFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	snap, err := h.sessions.Edit(c.Param("id"), req.Field, req.Value)
	if err != nil {
		c.Error(sessionError(err))
		return
	}
	response.Success(c, http.StatusOK, "Field updated", snap)
}

// SubmitSession godoc
// @Summary      Submit Contact Form Session
// @Description  Validate and send the session's form. The outcome is in the returned state.
// @Tags         contact
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response{data=domain.Snapshot}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /contact/sessions/{id}/submit [post]
func (h *ContactHandler) SubmitSession(c *gin.Context) {
	snap, err := h.sessions.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(sessionError(err))
		return
	}

	switch {
	case snap.State == domain.StateSucceeded:
		response.Success(c, http.StatusOK, snap.SuccessMessage, snap)
	case snap.State == domain.StateFailed:
		response.Error(c, http.StatusOK, snap.FailureMessage, nil, snap)
	default:
		response.Error(c, http.StatusOK, fieldErrorsMessage, snap.FieldErrors, snap)
	}
}

// StreamSession godoc
// @Summary      Watch Contact Form State
// @Description  Server-Sent Events stream; one "snapshot" event now and after every change.
// @Tags         contact
// @Produce      text/event-stream
// @Param        id   path  string  true  "Session ID"
// @Failure      404  {object}  response.Response
// @Router       /contact/sessions/{id}/events [get]
func (h *ContactHandler) StreamSession(c *gin.Context) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.Error(sessionError(err))
		return
	}

	// Slow readers drop intermediate snapshots; each one carries full state
	events := make(chan domain.Snapshot, 8)
	unsubscribe := ctrl.Subscribe(func(s domain.Snapshot) {
		select {
		case events <- s:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Connection", "keep-alive")
	c.SSEvent("snapshot", ctrl.Snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case s := <-events:
			c.SSEvent("snapshot", s)
			return true
		}
	})
}

// CloseSession godoc
// @Summary      Close Contact Form
// @Tags         contact
// @Param        id   path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  response.Response
// @Router       /contact/sessions/{id} [delete]
func (h *ContactHandler) CloseSession(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		c.Error(sessionError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func sessionError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return apperror.NotFound("Contact form not found or expired")
	case errors.Is(err, domain.ErrUnknownField):
		return apperror.BadRequest("Unknown form field")
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return apperror.Conflict("Your message is already being sent")
	default:
		return apperror.Internal(err)
	}
}
