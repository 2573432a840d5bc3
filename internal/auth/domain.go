// Package auth handles registration, login sessions and the middleware that
// resolves the current user.
package auth

// RegisterInput is the sign-up request body.
type RegisterInput struct {
	Name            string `json:"name" validate:"required,min=2,max=200"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginInput carries credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type csrfResponse struct {
	CSRFToken string `json:"csrfToken"`
}
