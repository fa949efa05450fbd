package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shuttle/internal/services"
)

type registerRequest struct {
	FullName    string `json:"fullName" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"required,email,max=255"`
	StudentID   string `json:"studentId" binding:"required,studentid"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phoneNumber" binding:"required,ngphone"`
	Department  string `json:"department" binding:"max=100"`
	Level       string `json:"level" binding:"max=20"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/register
func (h Handler) Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.Auth.Register(c.Request.Context(), services.RegisterInput{
		FullName:    req.FullName,
		Email:       req.Email,
		StudentID:   req.StudentID,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Department:  req.Department,
		Level:       req.Level,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "registration successful", res)
}

// POST /api/auth/login
func (h Handler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "login successful", res)
}
