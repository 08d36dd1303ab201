package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/dto"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/middleware"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new organizer.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		FirstName string `json:"first_name" binding:"required,max=100"`
		LastName  string `json:"last_name" binding:"max=100"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	person, err := h.authService.Signup(services.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPersonDetailDTO(*person))
}

// Login authenticates a person and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	person, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.startSession(c, person)
}

func (h *AuthHandler) startSession(c *gin.Context, person *models.Person) {
	session := sessions.Default(c)
	session.Set(constants.ContextKeyPersonID, person.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToPersonDetailDTO(*person))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentPerson returns the authenticated person.
func (h *AuthHandler) GetCurrentPerson(c *gin.Context) {
	personID, exists := middleware.GetPersonID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	person, err := h.authService.GetPerson(personID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPersonDetailDTO(*person))
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

const tokenRequestedMessage = "If that address is registered, a link is on its way"

// RequestMagicLink always answers the same way whether or not the email exists.
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if _, err := h.authService.RequestMagicLink(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": tokenRequestedMessage})
}

// VerifyMagicLink consumes the token and logs the person in.
func (h *AuthHandler) VerifyMagicLink(c *gin.Context) {
	person, err := h.authService.VerifyMagicLink(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.startSession(c, person)
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if _, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": tokenRequestedMessage})
}

// ResetPassword sets a new password and logs the person in.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	type ResetRequest struct {
		Password string `json:"password" binding:"required"`
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	person, err := h.authService.ResetPassword(c.Param("token"), req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.startSession(c, person)
}
