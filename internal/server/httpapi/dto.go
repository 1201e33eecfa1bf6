package httpapi

// Request bodies use binding tags; gin rejects anything that fails
// validation with a 400 before the handler logic runs.

type registerRequest struct {
	UserEmail    string `json:"user_email" binding:"required,email"`
	Username     string `json:"username" binding:"required"`
	PasswordHash string `json:"password_hash" binding:"required"`
}

type loginRequest struct {
	UserEmail    string `json:"user_email" binding:"required,email"`
	PasswordHash string `json:"password_hash" binding:"required"`
	HasOTP       bool   `json:"has_otp"`
}

type googleRegisterRequest struct {
	Username string `json:"username" binding:"required"`
}

type otpRequestRequest struct {
	UserEmail string `json:"user_email" binding:"required,email"`
	OTPLength int    `json:"otp_length" binding:"required,gt=5"`
}

type otpCheckRequest struct {
	UserEmail string `json:"user_email" binding:"required,email"`
	OTP       string `json:"otp" binding:"required"`
}

type leaderboardRequest struct {
	TopN int `json:"top_n" binding:"required,gt=0"`
}

type addPointsRequest struct {
	UserToken string `json:"user_token" binding:"required"`
	AddPoints int64  `json:"add_points" binding:"required"`
}

type incorrectIdentificationRequest struct {
	IdentificationID   int64 `json:"identification_id" binding:"required"`
	CorrectSpeciesID   int64 `json:"correct_species_id" binding:"required"`
	IncorrectSpeciesID int64 `json:"incorrect_species_id" binding:"required"`
}

type plantSpeciesRequest struct {
	CommonName     string `json:"common_name" binding:"required"`
	ScientificName string `json:"scientific_name" binding:"required"`
	Genus          string `json:"genus" binding:"required"`
}

type leaderboardRowResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"pts"`
}

type plantSpeciesResponse struct {
	ID             int64  `json:"id"`
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name"`
	Genus          string `json:"genus"`
	UploadURL      string `json:"upload_url"`
}
