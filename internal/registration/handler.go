package registration

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dayregister/backend/internal/middleware"
	"github.com/dayregister/backend/pkg/response"
)

// Handler exposes the registration service over HTTP.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registration handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// writeRequest is the body for POST and PATCH /register.
type writeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	RegisterDate string `json:"registerDate"`
}

// Get handles GET /register?email=...|reference=...
func (h *Handler) Get(c *gin.Context) {
	h.serve(c, Params{
		Email:     c.Query("email"),
		Reference: c.Query("reference"),
	})
}

// Delete handles DELETE /register?email=...
func (h *Handler) Delete(c *gin.Context) {
	h.serve(c, Params{Email: c.Query("email")})
}

// Create handles POST /register.
func (h *Handler) Create(c *gin.Context) {
	h.serve(c, h.writeParams(c))
}

// Update handles PATCH /register.
func (h *Handler) Update(c *gin.Context) {
	h.serve(c, h.writeParams(c))
}

// writeParams reads create/update parameters from the JSON body, falling
// back to query parameters for form-less clients. Field validation is the
// service's job, so bind errors are not rejected here.
func (h *Handler) writeParams(c *gin.Context) Params {
	var req writeRequest
	_ = c.ShouldBindJSON(&req)
	p := Params{
		Name:         req.Name,
		Email:        req.Email,
		RegisterDate: req.RegisterDate,
	}
	if p.Name == "" {
		p.Name = c.Query("name")
	}
	if p.Email == "" {
		p.Email = c.Query("email")
	}
	if p.RegisterDate == "" {
		p.RegisterDate = c.Query("registerDate")
	}
	return p
}

func (h *Handler) serve(c *gin.Context, p Params) {
	requestID := middleware.GetRequestID(c)

	view, err := h.svc.Handle(c.Request.Context(), c.Request.Method, p)
	if err != nil {
		var rerr *Error
		if !errors.As(err, &rerr) {
			rerr = &Error{Kind: KindInternal, Message: err.Error()}
		}
		if rerr.Kind == KindInternal {
			// Detail is logged here only; the client sees a generic message.
			h.logger.Error("registration handler",
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.Error(err),
			)
			response.Internal(c, requestID, "Internal server error")
			return
		}
		h.logger.Warn("registration rejected",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("message", rerr.Message),
		)
		response.BadRequest(c, requestID, rerr.Message)
		return
	}

	response.OK(c, requestID, view)
}
