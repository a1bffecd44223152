package handlers

import (
	"net/http"

	"github.com/Dhoini/Entitlement-service/internal/api/rest/middleware"
	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/Dhoini/Entitlement-service/pkg/req"
	"github.com/Dhoini/Entitlement-service/pkg/res"

	"github.com/gin-gonic/gin"
)

// CreateChildRequest тело запроса на создание детского аккаунта
type CreateChildRequest struct {
	ChildName string `json:"childName" validate:"required"`
	PIN       string `json:"pin" validate:"required,len=4,numeric"`
}

// ChildHandler обработчик управляемых детских аккаунтов
type ChildHandler struct {
	childService *service.ChildService
	log          *logger.Logger
}

// NewChildHandler создает новый обработчик детских аккаунтов
func NewChildHandler(childService *service.ChildService, log *logger.Logger) *ChildHandler {
	return &ChildHandler{
		childService: childService,
		log:          log,
	}
}

// CreateChild создает управляемый детский аккаунт под аутентифицированным родителем
func (h *ChildHandler) CreateChild(c *gin.Context) {
	parentID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, res.ErrorResponse{Error: "unauthenticated", ErrorCode: "AuthError"})
		return
	}

	body, err := req.HandleBody[CreateChildRequest](c.Writer, c.Request, h.log)
	if err != nil {
		c.Abort()
		return
	}

	child, err := h.childService.CreateChild(c.Request.Context(), parentID, body.ChildName, body.PIN)
	if err != nil {
		status, resp := mapError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, child)
}
