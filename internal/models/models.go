package models

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stable machine-readable error codes. Clients key their retry and UX logic
// off these strings, so they must not change.
const (
	CodeUnauthorized     = "Unauthorized"
	CodeMalformed        = "Malformed"
	CodeTooLarge         = "TooLarge"
	CodeConversionFailed = "ConversionFailed"
	CodeRateLimited      = "RateLimited"
	CodeInternal         = "Internal"
)
