package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hirelens/hirelens/internal/middleware"
	"github.com/hirelens/hirelens/internal/model"
	"github.com/hirelens/hirelens/internal/repository"
	"github.com/hirelens/hirelens/internal/response"
	"github.com/hirelens/hirelens/internal/service"
	"github.com/hirelens/hirelens/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	candidates  *repository.CandidateRepository
	recruiters  *repository.RecruiterRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	candidates *repository.CandidateRepository,
	recruiters *repository.RecruiterRepository,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		candidates:  candidates,
		recruiters:  recruiters,
	}
}

// CandidateLogin godoc
// POST /api/auth/candidate/login
// Authenticates a candidate and opens their single-device session.
func (h *AuthHandler) CandidateLogin(c *gin.Context) {
	var req model.CandidateLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidates.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}
	if err := h.authService.CheckPassword(candidate.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateCandidateToken(c.Request.Context(), candidate.ID)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.setSessionCookie(c, token)
	response.Success(c, http.StatusOK, model.CandidateLoginResponse{
		Token:     token,
		Candidate: *candidate,
	})
}

// setSessionCookie mirrors the token into a cookie so browser clients
// stay credentialed without managing the Authorization header.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.SessionCookieName, token,
		int(h.authService.TokenTTL().Seconds()), "/", "", false, true)
}

// CandidateLogout godoc
// POST /api/auth/candidate/logout
// Closes the candidate's active session so a new login is possible.
func (h *AuthHandler) CandidateLogout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	if err := h.authService.ResetCandidateSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// GetCandidateProfile godoc
// GET /api/auth/candidate/me
// Returns the profile of the currently authenticated candidate.
func (h *AuthHandler) GetCandidateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	candidate, err := h.candidates.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// RecruiterLogin godoc
// POST /api/auth/recruiter/login
// Authenticates a recruiter.
func (h *AuthHandler) RecruiterLogin(c *gin.Context) {
	var req model.RecruiterLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	recruiter, err := h.recruiters.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}
	if err := h.authService.CheckPassword(recruiter.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateRecruiterToken(recruiter.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.setSessionCookie(c, token)
	response.Success(c, http.StatusOK, model.RecruiterLoginResponse{
		Token:     token,
		Recruiter: *recruiter,
	})
}
