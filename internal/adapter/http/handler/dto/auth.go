package dto

import (
	"github.com/hoblink/hoblink-backend/internal/domain/types"
	"github.com/hoblink/hoblink-backend/internal/service/session"
	"github.com/hoblink/hoblink-backend/pkg/validator"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (r *SignUpRequest) ToModel() session.SignUpRequest {
	role := types.UserRole(r.Role)
	if r.Role == "" {
		role = types.RoleRider
	}
	return session.SignUpRequest{
		Email:    r.Email,
		Password: r.Password,
		FullName: r.FullName,
		Phone:    r.Phone,
		Role:     role,
	}
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func ValidateSignUp(v *validator.Validator, req *SignUpRequest) {
	v.Check(req.Email != "", "email", "must be provided")
	v.Check(validator.Matches(req.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(len(req.Email) <= 500, "email", "must not be more than 500 bytes long")

	v.Check(req.Password != "", "password", "must be provided")
	v.Check(len(req.Password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(req.Password) <= 72, "password", "must not be more than 72 bytes long")

	v.Check(len(req.FullName) <= 500, "full_name", "must not be more than 500 bytes long")

	if req.Role != "" {
		v.Check(types.UserRole(req.Role).Valid(), "role", "must be one of rider, driver, admin")
	}
}

func ValidateSignIn(v *validator.Validator, req *SignInRequest) {
	v.Check(req.Email != "", "email", "must be provided")
	v.Check(req.Password != "", "password", "must be provided")
}

func ValidateRefreshToken(v *validator.Validator, req *RefreshTokenRequest) {
	v.Check(req.RefreshToken != "", "refresh_token", "must be provided")
}
