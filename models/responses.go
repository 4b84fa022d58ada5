package models

// CountResponse is the body of GET /api/problems/count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// DeleteResponse is the body of a successful DELETE /api/problems.
type DeleteResponse struct {
	Message string  `json:"message"`
	Problem Problem `json:"problem"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
