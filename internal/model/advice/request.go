package advice

// Request is the body posted to /api/get_advice.
type Request struct {
	Message string `json:"message"`
}
