package auth

// Credentials is the body posted to /login and /register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// ErrorResponse is returned by the auth service on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
