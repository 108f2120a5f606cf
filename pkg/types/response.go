package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// LicenseDeny is the flat body returned when the license gate blocks a
// request. Desktop clients key off this exact shape, so it bypasses the
// standard error envelope.
type LicenseDeny struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
