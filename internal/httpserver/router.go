package httpserver

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, headerUserID, headerUserRole)
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api", identityMiddleware())

	cart := api.Group("/cart")
	cart.GET("", getCartHandler(deps.CartSvc))
	cart.DELETE("", clearCartHandler(deps.CartSvc))
	cart.POST("/items", addCartItemHandler(deps.CartSvc))
	cart.PUT("/items/:itemID", updateCartItemHandler(deps.CartSvc))
	cart.DELETE("/items/:itemID", removeCartItemHandler(deps.CartSvc))
	cart.POST("/discount", applyDiscountHandler(deps.CartSvc))
	cart.POST("/checkout", checkoutHandler(deps.CartSvc))

	orders := api.Group("/orders")
	orders.POST("", createOrderHandler(deps.OrderSvc))
	orders.GET("", listOrdersHandler(deps.OrderSvc))
	orders.GET("/:orderID", getOrderHandler(deps.OrderSvc))
	orders.DELETE("/:orderID", deleteOrderHandler(deps.OrderSvc))
	orders.PUT("/:orderID/items/:itemID/status", updateOrderItemStatusHandler(deps.OrderSvc))
	orders.POST("/:orderID/cancel", cancelOrderHandler(deps.OrderSvc))
	orders.POST("/:orderID/delivered", confirmDeliveryHandler(deps.OrderSvc))
	orders.POST("/:orderID/notes", addOrderNoteHandler(deps.OrderSvc))

	products := api.Group("/products")
	products.GET("/:productID", getProductHandler(deps.ProductSvc))

	vendor := api.Group("/vendor/products")
	vendor.GET("", listVendorProductsHandler(deps.ProductSvc))
	vendor.GET("/low-stock", lowStockHandler(deps.ProductSvc))
	vendor.PUT("/:productID/stock", setStockHandler(deps.ProductSvc))
	vendor.GET("/:productID/can-delete", canDeleteHandler(deps.ProductSvc))
	vendor.POST("/:productID/deactivate", deactivateProductHandler(deps.ProductSvc))

	api.GET("/vendors/:vendorID/profile", vendorProfileHandler(deps.RatingSvc))
	api.POST("/vendors/:vendorID/ratings", submitRatingHandler(deps.RatingSvc))
	api.POST("/ratings/:ratingID/approve", approveRatingHandler(deps.RatingSvc))

	return router
}
