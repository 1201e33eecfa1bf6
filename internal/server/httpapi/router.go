package httpapi

import "github.com/gin-gonic/gin"

// NewRouter wires all routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/user/register", h.register)
	r.POST("/user/login", h.login)
	r.POST("/google/auth", h.googleAuth)
	r.POST("/google/register", h.googleRegister)
	r.POST("/pwd-reset/otp-request", h.otpRequest)
	r.POST("/pwd-reset/otp-check", h.otpCheck)

	r.POST("/global-leaderboard", h.globalLeaderboard)
	r.POST("/user-count", h.userCount)
	r.POST("/add-global-user-pts", h.addGlobalPoints)
	r.GET("/user-name/:id", h.userName)
	r.GET("/user-points/:id", h.userPoints)

	r.POST("/incorrect-identifications", h.requireAuth, h.reportIncorrectIdentification)
	r.POST("/plant-species", h.createPlantSpecies)
	r.GET("/plant-species-url/:scientific_name", h.plantSpeciesURL)

	return r
}
