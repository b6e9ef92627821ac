package advice

// Response is the success body returned by /api/get_advice. Advice is a
// pointer so a body without the field can be told apart from an empty answer.
type Response struct {
	Advice *string `json:"advice"`
}

// ErrorResponse is the body returned alongside non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
