package handler

import (
	"context"
	"net/http"

	"github.com/hoblink/hoblink-backend/internal/adapter/http/handler/dto"
	"github.com/hoblink/hoblink-backend/internal/domain/models"
	"github.com/hoblink/hoblink-backend/internal/service/session"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/validator"
)

type AuthService interface {
	SignUp(ctx context.Context, req session.SignUpRequest) (*models.User, *models.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error)
	SignOut(ctx context.Context)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	RoleCheck(ctx context.Context, token string) (*models.User, error)
}

type Auth struct {
	auth AuthService
	l    logger.Logger
}

func NewAuth(service AuthService, l logger.Logger) *Auth {
	return &Auth{
		auth: service,
		l:    l,
	}
}

// SignUp godoc
// @Summary      Sign Up
// @Description  Creates a new account and returns the user with a token pair
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  dto.SignUpRequest  true  "Sign up payload"
// @Success      201  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /auth/signup [post]
func (h *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "sign_up")

	req := &dto.SignUpRequest{}
	if err := readJSON(w, r, req); err != nil {
		h.l.Error(ctx, "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateSignUp(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, tokens, err := h.auth.SignUp(ctx, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to sign up", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{
		"user":          user.Profile,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// SignIn godoc
// @Summary      Sign In
// @Description  Verifies credentials and returns the user with a token pair
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  dto.SignInRequest  true  "Sign in payload"
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /auth/signin [post]
func (h *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "sign_in")

	req := &dto.SignInRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateSignIn(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, tokens, err := h.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to sign in", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{
		"user":          user.Profile,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// SignOut godoc
// @Summary      Sign Out
// @Description  Revokes refresh tokens and clears the session
// @Tags         Auth
// @Produce      json
// @Success      204
// @Router       /auth/signout [post]
func (h *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "sign_out")

	h.auth.SignOut(ctx)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Rotates the refresh token and returns a new token pair
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body  dto.RefreshTokenRequest  true  "Refresh payload"
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /auth/refresh [post]
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "refresh_token")

	req := &dto.RefreshTokenRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateRefreshToken(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tokens, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to refresh token pair", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Me godoc
// @Summary      Current user
// @Description  Returns the authenticated user's profile
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /auth/me [get]
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_profile")

	user := models.UserFromContext(ctx)
	if user.IsAnonymous() {
		errorResponse(w, http.StatusUnauthorized, "authorization required")
		return
	}

	response := envelope{"user": user.Profile}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(ctx, "failed to write JSON response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
