package controllers

import (
	"rescuereach/services"
	"rescuereach/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	userService *services.UserService
}

func NewAuthController(userService *services.UserService) *AuthController {
	return &AuthController{
		userService: userService,
	}
}

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Register creates an account for a verified phone number and returns tokens
func (ac *AuthController) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid registration request")
		return
	}

	result, err := ac.userService.Register(c.Request.Context(), &req)
	if err != nil {
		logrus.Errorf("Registration failed for %s: %v", req.PhoneNumber, err)
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Registration successful", result)
}

// Login issues a token pair for an existing account
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Phone number is required")
		return
	}

	result, err := ac.userService.Login(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", result)
}

// Refresh exchanges a refresh token for a new pair
func (ac *AuthController) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Refresh token is required")
		return
	}

	tokens, err := ac.userService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Token refreshed", tokens)
}
