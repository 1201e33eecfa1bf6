// Package httpapi is the JSON HTTP surface of the floraid server: gin
// handlers, bearer middleware, and the router wiring them together.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/verdantlab/floraid/internal/logging"
	"github.com/verdantlab/floraid/internal/server/models"
	"github.com/verdantlab/floraid/internal/server/repositories/accounts"
	"github.com/verdantlab/floraid/internal/server/services"
)

// UserService is the account/auth surface the handlers call.
type UserService interface {
	Register(ctx context.Context, email, username, passwordHash string) (*services.TokenEnvelope, error)
	Login(ctx context.Context, email, passwordHash string, hasOTP bool) (*services.TokenEnvelope, error)
	GoogleAuth(ctx context.Context, idToken string) (*services.TokenEnvelope, error)
	GoogleRegister(ctx context.Context, registerToken, username string) (*services.TokenEnvelope, error)
	RequestPasswordReset(ctx context.Context, email string, otpLength int) error
	VerifyOTP(ctx context.Context, email, otp string) (accounts.OTPStatus, error)
	Authenticate(token string) (int64, error)
	Leaderboard(ctx context.Context, n int) ([]*models.LeaderboardRow, error)
	LeaderboardInfo(ctx context.Context, accountID int64) (*models.LeaderboardRow, error)
	CountAccounts(ctx context.Context) (int64, error)
	AddGlobalPoints(ctx context.Context, token string, points int64) error
}

// SpeciesService manages the species catalogue and image URLs.
type SpeciesService interface {
	Record(ctx context.Context, commonName, scientificName, genus string) (*models.PlantSpecies, string, error)
	GetImageURL(ctx context.Context, scientificName string) (string, error)
}

// IdentificationService records incorrect-identification reports.
type IdentificationService interface {
	Report(ctx context.Context, accountID, identificationID, correctSpeciesID, incorrectSpeciesID int64) (*models.IncorrectIdentification, error)
}

type Handler struct {
	users           UserService
	species         SpeciesService
	identifications IdentificationService
	logger          logging.Logger
}

func NewHandler(users UserService, species SpeciesService, identifications IdentificationService, logger logging.Logger) *Handler {
	return &Handler{
		users:           users,
		species:         species,
		identifications: identifications,
		logger:          logger,
	}
}

const accountIDKey = "accountID"

// bearerToken pulls the token out of the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// requireAuth authenticates the bearer token and stores the account ID.
func (h *Handler) requireAuth(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailInvalidToken})
		return
	}
	accountID, err := h.users.Authenticate(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detailInvalidToken})
		return
	}
	c.Set(accountIDKey, accountID)
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	env, err := h.users.Register(c.Request.Context(), req.UserEmail, req.Username, req.PasswordHash)
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, env)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	env, err := h.users.Login(c.Request.Context(), req.UserEmail, req.PasswordHash, req.HasOTP)
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, env)
}

func (h *Handler) googleAuth(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailGoogleRejected})
		return
	}

	env, err := h.users.GoogleAuth(c.Request.Context(), token)
	if err != nil {
		writeError(c, err, detailGoogleRejected)
		return
	}
	c.JSON(http.StatusOK, env)
}

func (h *Handler) googleRegister(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": detailBadGoogleUser})
		return
	}

	var req googleRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	env, err := h.users.GoogleRegister(c.Request.Context(), token, req.Username)
	if err != nil {
		writeError(c, err, detailBadGoogleUser)
		return
	}
	c.JSON(http.StatusOK, env)
}

func (h *Handler) otpRequest(c *gin.Context) {
	var req otpRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := h.users.RequestPasswordReset(c.Request.Context(), req.UserEmail, req.OTPLength); err != nil {
		if writeOTPRequestError(c, err) {
			return
		}
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Email sending initiated in the background",
		"success": true,
	})
}

// writeOTPRequestError keeps the reset endpoint's own 404 wording.
func writeOTPRequestError(c *gin.Context, err error) bool {
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"detail": detailEmailNotFound})
		return true
	}
	return false
}

func (h *Handler) otpCheck(c *gin.Context) {
	var req otpCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	status, err := h.users.VerifyOTP(c.Request.Context(), req.UserEmail, req.OTP)
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": int(status)})
}

func (h *Handler) globalLeaderboard(c *gin.Context) {
	var req leaderboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	rows, err := h.users.Leaderboard(c.Request.Context(), req.TopN)
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}

	out := make([]leaderboardRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaderboardRowResponse{
			UserID:   row.AccountID,
			Username: row.Username,
			Points:   row.Points,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": out})
}

func (h *Handler) userCount(c *gin.Context) {
	n, err := h.users.CountAccounts(c.Request.Context())
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_count": n})
}

func (h *Handler) addGlobalPoints(c *gin.Context) {
	var req addPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if err := h.users.AddGlobalPoints(c.Request.Context(), req.UserToken, req.AddPoints); err != nil {
		writeError(c, err, detailInvalidToken)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Points added."})
}

func (h *Handler) userName(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid user ID."})
		return
	}

	row, err := h.users.LeaderboardInfo(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": row.Username})
}

func (h *Handler) userPoints(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid user ID."})
		return
	}

	row, err := h.users.LeaderboardInfo(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pts": row.Points})
}

func (h *Handler) reportIncorrectIdentification(c *gin.Context) {
	accountID := c.GetInt64(accountIDKey)

	var req incorrectIdentificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	report, err := h.identifications.Report(c.Request.Context(), accountID,
		req.IdentificationID, req.CorrectSpeciesID, req.IncorrectSpeciesID)
	if err != nil {
		writeError(c, err, detailInvalidToken)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": report.ID})
}

func (h *Handler) createPlantSpecies(c *gin.Context) {
	var req plantSpeciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	sp, uploadURL, err := h.species.Record(c.Request.Context(), req.CommonName, req.ScientificName, req.Genus)
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, plantSpeciesResponse{
		ID:             sp.ID,
		CommonName:     sp.CommonName,
		ScientificName: sp.ScientificName,
		Genus:          sp.Genus,
		UploadURL:      uploadURL,
	})
}

func (h *Handler) plantSpeciesURL(c *gin.Context) {
	url, err := h.species.GetImageURL(c.Request.Context(), c.Param("scientific_name"))
	if err != nil {
		writeError(c, err, detailBadCredentials)
		return
	}
	c.JSON(http.StatusOK, gin.H{"img_url": url})
}
