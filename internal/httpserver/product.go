package httpserver

import (
	"net/http"

	productsvc "marketplace-backend/internal/service/product"

	"github.com/gin-gonic/gin"
)

type setStockRequest struct {
	StockLevel *int `json:"stockLevel" binding:"required"`
}

func getProductHandler(svc *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.GetActive(c.Request.Context(), c.Param("productID"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, p)
	}
}

func listVendorProductsHandler(svc *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		products, err := svc.ListByVendor(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, products)
	}
}

func lowStockHandler(svc *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		products, err := svc.LowStock(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, products)
	}
}

func setStockHandler(svc *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setStockRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.StockLevel == nil {
			respondFailure(c, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, _ := currentUser(c)
		p, err := svc.SetStock(c.Request.Context(), c.Param("productID"), *req.StockLevel, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, p)
	}
}

func canDeleteHandler(svc *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		ok, err := svc.CanDelete(c.Request.Context(), c.Param("productID"), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, gin.H{"canDelete": ok})
	}
}

func deactivateProductHandler(svc *productsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUser(c)
		if err := svc.Deactivate(c.Request.Context(), c.Param("productID"), userID); err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, nil)
	}
}
