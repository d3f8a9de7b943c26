package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskify/backend/internal/middleware"
	"taskify/backend/internal/services"
)

type AuthHandler struct {
	db       *gorm.DB
	auth     services.AuthService
	register services.RegisterService
}

func NewAuthHandler(db *gorm.DB, auth services.AuthService, register services.RegisterService) *AuthHandler {
	return &AuthHandler{db: db, auth: auth, register: register}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateDetailsRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register creates an account and returns a token, so signup doubles as
// the first login.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.register.RegisterUser(h.db, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   token,
		"data":    user.Public(),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Please provide an email and password")
		return
	}

	user, err := h.auth.LoginUser(h.db, req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"data":    user.Public(),
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.auth.GetUserByID(h.db, actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, user.Public())
}

func (h *AuthHandler) UpdateDetails(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req updateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.auth.UpdateDetails(h.db, actor.ID, req.Name, req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, user.Public())
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.auth.UpdatePassword(h.db, actor.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// A changed password invalidates nothing server-side, so hand back a
	// fresh token for convenience.
	token, err := h.auth.GenerateToken(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"data":    user.Public(),
	})
}
