package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/floraid/internal/common"
	"github.com/verdantlab/floraid/internal/logging"
	"github.com/verdantlab/floraid/internal/server/models"
	"github.com/verdantlab/floraid/internal/server/repositories/accounts"
	"github.com/verdantlab/floraid/internal/server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserService struct {
	env    *services.TokenEnvelope
	err    error
	status accounts.OTPStatus

	authID  int64
	authErr error

	rows  []*models.LeaderboardRow
	count int64

	addedPoints int64
}

func (f *fakeUserService) Register(ctx context.Context, email, username, passwordHash string) (*services.TokenEnvelope, error) {
	return f.env, f.err
}
func (f *fakeUserService) Login(ctx context.Context, email, passwordHash string, hasOTP bool) (*services.TokenEnvelope, error) {
	return f.env, f.err
}
func (f *fakeUserService) GoogleAuth(ctx context.Context, idToken string) (*services.TokenEnvelope, error) {
	return f.env, f.err
}
func (f *fakeUserService) GoogleRegister(ctx context.Context, registerToken, username string) (*services.TokenEnvelope, error) {
	return f.env, f.err
}
func (f *fakeUserService) RequestPasswordReset(ctx context.Context, email string, otpLength int) error {
	return f.err
}
func (f *fakeUserService) VerifyOTP(ctx context.Context, email, otp string) (accounts.OTPStatus, error) {
	return f.status, f.err
}
func (f *fakeUserService) Authenticate(token string) (int64, error) {
	return f.authID, f.authErr
}
func (f *fakeUserService) Leaderboard(ctx context.Context, n int) ([]*models.LeaderboardRow, error) {
	return f.rows, f.err
}
func (f *fakeUserService) LeaderboardInfo(ctx context.Context, accountID int64) (*models.LeaderboardRow, error) {
	for _, row := range f.rows {
		if row.AccountID == accountID {
			return row, nil
		}
	}
	return nil, common.ErrorNotFound
}
func (f *fakeUserService) CountAccounts(ctx context.Context) (int64, error) {
	return f.count, f.err
}
func (f *fakeUserService) AddGlobalPoints(ctx context.Context, token string, points int64) error {
	f.addedPoints = points
	return f.err
}

type fakeSpeciesService struct {
	species   *models.PlantSpecies
	uploadURL string
	imgURL    string
	err       error
}

func (f *fakeSpeciesService) Record(ctx context.Context, commonName, scientificName, genus string) (*models.PlantSpecies, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.species, f.uploadURL, nil
}
func (f *fakeSpeciesService) GetImageURL(ctx context.Context, scientificName string) (string, error) {
	return f.imgURL, f.err
}

type fakeIdentificationService struct {
	report *models.IncorrectIdentification
	err    error

	gotAccountID int64
}

func (f *fakeIdentificationService) Report(ctx context.Context, accountID, identificationID, correctSpeciesID, incorrectSpeciesID int64) (*models.IncorrectIdentification, error) {
	f.gotAccountID = accountID
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func newTestRouter(users UserService, species SpeciesService, identifications IdentificationService) *gin.Engine {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(NewHandler(users, species, identifications, logger))
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		svcEnv     *services.TokenEnvelope
		svcErr     error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "success",
			body:       gin.H{"user_email": "u@example.com", "username": "u", "password_hash": "h"},
			svcEnv:     &services.TokenEnvelope{TokenType: "Bearer", AccessToken: "tok", ExpiresIn: 10},
			wantStatus: http.StatusOK,
		},
		{
			name:       "email taken",
			body:       gin.H{"user_email": "u@example.com", "username": "u", "password_hash": "h"},
			svcErr:     common.ErrorEmailExists,
			wantStatus: http.StatusConflict,
			wantDetail: "This email has already been recorded.",
		},
		{
			name:       "username taken",
			body:       gin.H{"user_email": "u@example.com", "username": "u", "password_hash": "h"},
			svcErr:     common.ErrorUsernameExists,
			wantStatus: http.StatusConflict,
			wantDetail: "This username has already been recorded.",
		},
		{
			name:       "bad email",
			body:       gin.H{"user_email": "not-an-email", "username": "u", "password_hash": "h"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing fields",
			body:       gin.H{"user_email": "u@example.com"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserService{env: tt.svcEnv, err: tt.svcErr}
			r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

			w := doJSON(t, r, http.MethodPost, "/user/register", tt.body, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantDetail != "" {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantDetail, resp["detail"])
			}
		})
	}
}

func TestLoginEndpoint_Unauthorized(t *testing.T) {
	users := &fakeUserService{err: common.ErrorUnauthorized}
	r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

	w := doJSON(t, r, http.MethodPost, "/user/login",
		gin.H{"user_email": "u@example.com", "password_hash": "h"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No user exists with these credentials.")
}

func TestLoginEndpoint_Success(t *testing.T) {
	users := &fakeUserService{env: &services.TokenEnvelope{
		TokenType: "Bearer", AccessToken: "tok", ExpiresIn: 10,
	}}
	r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

	w := doJSON(t, r, http.MethodPost, "/user/login",
		gin.H{"user_email": "u@example.com", "password_hash": "h", "has_otp": true}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var env services.TokenEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "tok", env.AccessToken)
	assert.Equal(t, "Bearer", env.TokenType)
}

func TestGoogleAuthEndpoint(t *testing.T) {
	users := &fakeUserService{env: &services.TokenEnvelope{
		TokenType: "Bearer", AccessToken: "tok", ExpiresIn: 10, Register: true,
	}}
	r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

	w := doJSON(t, r, http.MethodPost, "/google/auth", nil,
		map[string]string{"Authorization": "Bearer a.b.c"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"register":true`)

	// no bearer header at all
	w = doJSON(t, r, http.MethodPost, "/google/auth", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Google token verification failed.")
}

func TestGoogleRegisterEndpoint_BadToken(t *testing.T) {
	users := &fakeUserService{err: common.ErrInvalidToken}
	r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

	w := doJSON(t, r, http.MethodPost, "/google/register",
		gin.H{"username": "newbie"},
		map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Could not validate credentials.")
}

func TestOTPRequestEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       gin.H
		svcErr     error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "success",
			body:       gin.H{"user_email": "u@example.com", "otp_length": 8},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown email",
			body:       gin.H{"user_email": "nobody@example.com", "otp_length": 8},
			svcErr:     common.ErrorNotFound,
			wantStatus: http.StatusNotFound,
			wantDetail: "User with this email could not be found.",
		},
		{
			name:       "external account",
			body:       gin.H{"user_email": "g@example.com", "otp_length": 8},
			svcErr:     common.ErrorForbidden,
			wantStatus: http.StatusForbidden,
			wantDetail: "Action denied. User with this email is considered an external account.",
		},
		{
			name:       "otp too short rejected by binding",
			body:       gin.H{"user_email": "u@example.com", "otp_length": 4},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserService{err: tt.svcErr}
			r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

			w := doJSON(t, r, http.MethodPost, "/pwd-reset/otp-request", tt.body, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantDetail != "" {
				assert.Contains(t, w.Body.String(), tt.wantDetail)
			}
			if tt.wantStatus == http.StatusOK {
				var resp struct {
					Message string `json:"message"`
					Success bool   `json:"success"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "Email sending initiated in the background", resp.Message)
				assert.True(t, resp.Success)
			}
		})
	}
}

func TestOTPCheckEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		status     accounts.OTPStatus
		svcErr     error
		wantStatus int
		wantResult string
	}{
		{name: "valid", status: accounts.OTPValid, wantStatus: http.StatusOK, wantResult: `"result":1`},
		{name: "expired", status: accounts.OTPExpired, wantStatus: http.StatusOK, wantResult: `"result":0`},
		{name: "no match", svcErr: common.ErrorUnauthorized, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserService{status: tt.status, err: tt.svcErr}
			r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

			w := doJSON(t, r, http.MethodPost, "/pwd-reset/otp-check",
				gin.H{"user_email": "u@example.com", "otp": "ABC123"}, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantResult != "" {
				assert.Contains(t, w.Body.String(), tt.wantResult)
			}
		})
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	users := &fakeUserService{
		rows: []*models.LeaderboardRow{
			{AccountID: 1, Username: "ann", Points: 30},
			{AccountID: 2, Username: "bob", Points: 20},
		},
		count: 42,
	}
	r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

	w := doJSON(t, r, http.MethodPost, "/global-leaderboard", gin.H{"top_n": 10}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ann"`)
	assert.Contains(t, w.Body.String(), `"pts":30`)

	w = doJSON(t, r, http.MethodPost, "/user-count", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_count":42`)

	w = doJSON(t, r, http.MethodGet, "/user-name/2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"bob"`)

	w = doJSON(t, r, http.MethodGet, "/user-points/1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pts":30`)

	w = doJSON(t, r, http.MethodGet, "/user-name/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/user-name/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddGlobalPointsEndpoint(t *testing.T) {
	users := &fakeUserService{}
	r := newTestRouter(users, &fakeSpeciesService{}, &fakeIdentificationService{})

	w := doJSON(t, r, http.MethodPost, "/add-global-user-pts",
		gin.H{"user_token": "tok", "add_points": 25}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 25, users.addedPoints)

	users.err = common.ErrInvalidToken
	w = doJSON(t, r, http.MethodPost, "/add-global-user-pts",
		gin.H{"user_token": "bad", "add_points": 25}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIncorrectIdentificationsEndpoint(t *testing.T) {
	identifications := &fakeIdentificationService{
		report: &models.IncorrectIdentification{ID: 5},
	}
	users := &fakeUserService{authID: 7}
	r := newTestRouter(users, &fakeSpeciesService{}, identifications)

	body := gin.H{"identification_id": 101, "correct_species_id": 2, "incorrect_species_id": 3}

	w := doJSON(t, r, http.MethodPost, "/incorrect-identifications", body,
		map[string]string{"Authorization": "Bearer tok"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":5`)
	assert.EqualValues(t, 7, identifications.gotAccountID)

	// missing bearer token
	w = doJSON(t, r, http.MethodPost, "/incorrect-identifications", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// token rejected
	users.authErr = common.ErrInvalidToken
	w = doJSON(t, r, http.MethodPost, "/incorrect-identifications", body,
		map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlantSpeciesEndpoints(t *testing.T) {
	species := &fakeSpeciesService{
		species: &models.PlantSpecies{
			ID: 3, CommonName: "Common daisy", ScientificName: "Bellis perennis", Genus: "Bellis",
		},
		uploadURL: "http://presigned/put/key",
		imgURL:    "http://presigned/get/key",
	}
	r := newTestRouter(&fakeUserService{}, species, &fakeIdentificationService{})

	w := doJSON(t, r, http.MethodPost, "/plant-species",
		gin.H{"common_name": "Common daisy", "scientific_name": "Bellis perennis", "genus": "Bellis"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp plantSpeciesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "http://presigned/put/key", resp.UploadURL)
	assert.Equal(t, "Bellis perennis", resp.ScientificName)

	w = doJSON(t, r, http.MethodGet, "/plant-species-url/Bellis%20perennis", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http://presigned/get/key")

	species.err = common.ErrorAlreadyExists
	w = doJSON(t, r, http.MethodPost, "/plant-species",
		gin.H{"common_name": "Common daisy", "scientific_name": "Bellis perennis", "genus": "Bellis"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "This species has already been recorded.")

	species.err = common.ErrorNotFound
	w = doJSON(t, r, http.MethodGet, "/plant-species-url/Nonexistus", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
