package dto

// Machine-readable error codes returned in ErrorResponse.Error.
const (
	ErrMethodNotAllowed     = "method_not_allowed"
	ErrUnsupportedMediaType = "unsupported_media_type"
	ErrInvalidJSON          = "invalid_json"
	ErrInvalidInput         = "invalid_input"
	ErrInvalidProposal      = "invalid_proposal"
	ErrInvalidTargetFile    = "invalid_target_file"
	ErrEmptyChanges         = "empty_changes"
	ErrNotFound             = "not_found"
	ErrForbidden            = "forbidden"
	ErrInternal             = "internal_error"
	ErrUnavailable          = "unavailable"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Hint    string `json:"hint,omitempty"`
	Message string `json:"message,omitempty"`
	Must    string `json:"must,omitempty"`
}
