package dto

type LoginRequest struct {
	// Identifier is an email when it contains '@', otherwise a nickname.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=120"`
	Name      string `json:"name" binding:"required,min=1,max=60"`
	Nickname  string `json:"nickname" binding:"required,min=2,max=60"`
	Password  string `json:"password" binding:"required,min=8,max=100"`
	Gender    string `json:"gender" binding:"required,oneof=MALE FEMALE OTHER"`
	Birthday  string `json:"birthday" binding:"required,datetime=2006-01-02"`
	Introduce string `json:"introduce" binding:"required"`
}

type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // Access token expiry in seconds
}
