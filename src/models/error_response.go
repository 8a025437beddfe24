package models

// ErrorResponse is the standard error body for non-scan endpoints.
type ErrorResponse struct {
	Status  int    `json:"status"`  // HTTP status code
	Message string `json:"message"` // error detail
}

// SuccessResponse wraps list and detail payloads for Swagger.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}
