package models

// TokenTypeBearer is the token_type reported alongside every access token.
const TokenTypeBearer = "bearer"

// LoginForm is the form-encoded body of the token endpoint. Username carries
// the account e-mail.
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// Token is the response of a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
