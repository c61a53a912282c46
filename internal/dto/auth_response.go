package dto

type PublicProfile struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
	Image *string `json:"image"`
}

type SigninResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	Roles       []string      `json:"roles"`
	User        PublicProfile `json:"user"`
}

type SessionResponse struct {
	ID        int64    `json:"id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	ExpiresAt int64    `json:"expires_at"`
}
