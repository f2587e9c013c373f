package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace-backend/internal/domain"
	ordersvc "marketplace-backend/internal/service/order"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	Items           []ordersvc.LineInput   `json:"items" binding:"required"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type updateItemStatusRequest struct {
	Status         string  `json:"status" binding:"required"`
	TrackingNumber *string `json:"trackingNumber"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type addNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

func createOrderHandler(svc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, _ := currentUser(c)
		res, err := svc.CreateOrder(c.Request.Context(), ordersvc.CreateOrderInput{
			CustomerID:      userID,
			Lines:           req.Items,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		respondOrderResult(c, res, http.StatusCreated)
	}
}

func listOrdersHandler(svc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := listFilterFromQuery(c)
		if !ok {
			return
		}
		userID, role := currentUser(c)

		var res *ordersvc.ListResult
		var err error
		switch role {
		case domain.RoleAdmin:
			res, err = svc.GetOrders(c.Request.Context(), filter)
		case domain.RoleVendor:
			res, err = svc.GetVendorOrders(c.Request.Context(), userID, filter)
		default:
			res, err = svc.GetCustomerOrders(c.Request.Context(), userID, filter)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		if !res.Success {
			respondFailure(c, http.StatusBadRequest, res.Message)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func getOrderHandler(svc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role := currentUser(c)
		res, err := svc.GetOrder(c.Request.Context(), c.Param("orderID"), userID, role)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOrderResult(c, res, http.StatusOK)
	}
}

func deleteOrderHandler(svc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role := currentUser(c)
		res, err := svc.SoftDelete(c.Request.Context(), c.Param("orderID"), role)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOrderResult(c, res, http.StatusOK)
	}
}

func updateOrderItemStatusHandler(svc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateItemStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, role := currentUser(c)
		res, err := svc.UpdateItemStatus(
			c.Request.Context(),
			c.Param("orderID"), c.Param("itemID"),
			userID, role,
			domain.OrderStatus(req.Status), req.TrackingNumber,
		)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOrderResult(c, res, http.StatusOK)
	}
}

func cancelOrderHandler(svc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cancelOrderRequest
		// Body is optional for cancellation.
		_ = c.ShouldBindJSON(&req)
		userID, role := currentUser(c)
		res, err := svc.Cancel(c.Request.Context(), c.Param("orderID"), userID, role, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOrderResult(c, res, http.StatusOK)
	}
}

func confirmDeliveryHandler(svc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		res, err := svc.ConfirmDelivery(c.Request.Context(), c.Param("orderID"), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOrderResult(c, res, http.StatusOK)
	}
}

func addOrderNoteHandler(svc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, role := currentUser(c)
		res, err := svc.AddNote(c.Request.Context(), c.Param("orderID"), userID, role, req.Text)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOrderResult(c, res, http.StatusOK)
	}
}

// respondOrderResult translates an order-engine result into the envelope,
// picking a status code from the failure message.
func respondOrderResult(c *gin.Context, res *ordersvc.Result, okStatus int) {
	if res.Success {
		c.JSON(okStatus, envelope{Success: true, Message: res.Message, Data: res.Order})
		return
	}
	status := http.StatusBadRequest
	switch {
	case strings.Contains(res.Message, "not found"):
		status = http.StatusNotFound
	case strings.Contains(res.Message, "not allowed"):
		status = http.StatusForbidden
	case strings.Contains(res.Message, "insufficient stock"),
		strings.Contains(res.Message, "not available"):
		status = http.StatusConflict
	}
	respondFailure(c, status, res.Message)
}

func listFilterFromQuery(c *gin.Context) (ordersvc.ListFilter, bool) {
	filter := ordersvc.ListFilter{
		Status:   c.Query("status"),
		Page:     1,
		PageSize: 20,
	}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid page")
			return filter, false
		}
		filter.Page = n
	}
	if v := c.Query("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid page size")
			return filter, false
		}
		filter.PageSize = n
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid from date")
			return filter, false
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid to date")
			return filter, false
		}
		filter.To = &t
	}
	return filter, true
}
