package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/config"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

const refreshCookieName = "refresh_token"

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	auth *services.AuthService
	otps *services.OtpService
	cfg  *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *services.AuthService, otps *services.OtpService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, otps: otps, cfg: cfg}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required,oneof=PATIENT DOCTOR"`
	ProfileRequest
}

// Register handles user registration. The email must have been verified
// with a signup code beforehand.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      models.Role(req.Role),
		Profile:   req.ProfileRequest.toUpdate(),
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Created(c, "User registered successfully", user.Sanitize())
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, int(result.RefreshTTL.Seconds()))
	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User.Sanitize(),
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken rotates the refresh token. The HTTP-only cookie wins over
// the request body.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}

	result, err := h.auth.RefreshToken(c.Request.Context(), token)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, int(result.RefreshTTL.Seconds()))
	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// Logout revokes the refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := h.refreshTokenFrom(c)
	if !ok {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, "", -1)
	utils.Success(c, "Logout successful", nil)
}

// GetProfile returns the caller's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	user, err := h.auth.GetProfile(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Profile retrieved successfully", user.Sanitize())
}

// UpdateProfile changes the caller's profile fields.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), id, req.toUpdate())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Profile updated successfully", user.Sanitize())
}

// EmailRequest carries an email address for the code endpoints.
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOtpRequest represents the request body for code verification.
type VerifyOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required,numeric"`
}

// ResetPasswordRequest represents the request body for a password reset.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Otp         string `json:"otp" binding:"required,numeric"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// SendSignupOtp emails a signup verification code.
func (h *AuthHandler) SendSignupOtp(c *gin.Context) {
	var req EmailRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.otps.SendSignupOtp(c.Request.Context(), req.Email); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Verification code sent", nil)
}

// VerifySignupOtp checks a signup code.
func (h *AuthHandler) VerifySignupOtp(c *gin.Context) {
	var req VerifyOtpRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	verified, err := h.otps.VerifySignupOtp(c.Request.Context(), req.Email, req.Otp)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if !verified {
		utils.BadRequest(c, "Email verification failed: invalid or expired code")
		return
	}

	utils.Success(c, "Email verified successfully", gin.H{"verified": true})
}

// ForgotPassword emails a password reset code to a registered address.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.otps.SendPasswordResetOtp(c.Request.Context(), req.Email); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Password reset code sent", nil)
}

// ResetPassword sets a new password after checking the reset code.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.Otp, req.NewPassword); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Password reset successfully", nil)
}

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(refreshCookieName); err == nil && token != "" {
		return token, true
	}
	var req RefreshTokenRequest
	if !utils.BindAndValidate(c, &req) {
		return "", false
	}
	return req.RefreshToken, true
}

// setRefreshCookie writes the refresh token cookie. A negative maxAge
// deletes it.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/", "", h.cfg.IsProduction(), true)
}
