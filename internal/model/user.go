package model

type AuthClaims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	TokenID string `json:"jti"`
}

type TokenData struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
