package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"memorybook-backend/internal/models"
	"memorybook-backend/internal/orders"
	"memorybook-backend/internal/services"
)

type OrdersHandler struct {
	workflow *orders.Workflow
	service  *services.OrderService
}

func NewOrdersHandler(workflow *orders.Workflow, service *services.OrderService) *OrdersHandler {
	return &OrdersHandler{workflow: workflow, service: service}
}

// List summarizes every order for the admin dashboard, newest first.
func (h *OrdersHandler) List(c *gin.Context) {
	summaries, err := h.service.ListOrders(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching orders: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to fetch orders: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, models.OrderListResponse{Success: true, Orders: summaries})
}

// UpdateStatus moves one order to a new pipeline status.
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	orderID := c.Param("orderId")

	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "status is required"})
		return
	}

	transition, err := h.workflow.SetStatus(c.Request.Context(), orderID, req.Status, req.Note)
	if err != nil {
		h.statusError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusUpdateResponse{
		Success:   true,
		Message:   "Status updated successfully",
		OldStatus: transition.OldStatus,
		NewStatus: transition.NewStatus,
	})
}

// BulkUpdate applies one status to many orders; partial success is the
// expected outcome and reported per order id.
func (h *OrdersHandler) BulkUpdate(c *gin.Context) {
	var req models.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.OrderIDs) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "En az bir sipariş seçilmeli."})
		return
	}

	if _, ok := models.ParseOrderStatus(req.Status); !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: invalidStatusMessage()})
		return
	}

	result := h.workflow.BulkSetStatus(c.Request.Context(), req.OrderIDs, req.Status, req.Note)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updated": len(result.Updated),
		"failed":  len(result.Failed),
		"results": result,
	})
}

func (h *OrdersHandler) statusError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: invalidStatusMessage()})
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Order not found"})
	case errors.Is(err, orders.ErrManifestNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order.json not found"})
	default:
		log.Printf("Error updating status: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to update status: " + err.Error(),
		})
	}
}

func invalidStatusMessage() string {
	msg := "Invalid status. Must be one of:"
	for i, s := range models.AllOrderStatuses {
		if i > 0 {
			msg += ","
		}
		msg += " " + string(s)
	}
	return msg
}
