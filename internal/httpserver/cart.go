package httpserver

import (
	"net/http"

	cartsvc "marketplace-backend/internal/service/cart"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID       string            `json:"productId" binding:"required"`
	Quantity        int               `json:"quantity" binding:"required"`
	SelectedOptions map[string]string `json:"selectedOptions"`
	Notes           string            `json:"notes"`
}

type updateCartItemRequest struct {
	Quantity        int               `json:"quantity" binding:"required"`
	SelectedOptions map[string]string `json:"selectedOptions"`
}

type applyDiscountRequest struct {
	Code string `json:"code" binding:"required"`
}

func getCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		cart, err := svc.GetOrCreateCart(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, cart)
	}
}

func addCartItemHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, _ := currentUser(c)
		cart, err := svc.AddOrUpdateItem(c.Request.Context(), userID, req.ProductID, req.Quantity, req.SelectedOptions, req.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, cart)
	}
}

func updateCartItemHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, _ := currentUser(c)
		cart, err := svc.UpdateItem(c.Request.Context(), userID, c.Param("itemID"), req.Quantity, req.SelectedOptions)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, cart)
	}
}

func removeCartItemHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		cart, err := svc.RemoveItem(c.Request.Context(), userID, c.Param("itemID"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, cart)
	}
}

func clearCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		cart, err := svc.ClearCart(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, cart)
	}
}

func applyDiscountHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req applyDiscountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, _ := currentUser(c)
		cart, err := svc.ApplyDiscount(c.Request.Context(), userID, req.Code)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, cart)
	}
}

func checkoutHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		cart, err := svc.Checkout(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, cart)
	}
}
