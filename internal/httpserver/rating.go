package httpserver

import (
	"net/http"

	"marketplace-backend/internal/domain"
	ratingsvc "marketplace-backend/internal/service/rating"

	"github.com/gin-gonic/gin"
)

type submitRatingRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func submitRatingHandler(svc *ratingsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitRatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFailure(c, http.StatusBadRequest, "invalid request body")
			return
		}
		userID, _ := currentUser(c)
		rating, err := svc.Submit(c.Request.Context(), c.Param("vendorID"), userID, req.Rating, req.Comment)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, rating)
	}
}

func approveRatingHandler(svc *ratingsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role := currentUser(c)
		if role != domain.RoleAdmin {
			respondFailure(c, http.StatusForbidden, "forbidden")
			return
		}
		rating, err := svc.Approve(c.Request.Context(), c.Param("ratingID"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, rating)
	}
}

func vendorProfileHandler(svc *ratingsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := svc.VendorProfile(c.Request.Context(), c.Param("vendorID"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, profile)
	}
}
