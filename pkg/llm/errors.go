// Error types and handling
package llm

import "fmt"

// Standard error types reported in Error.Type
const (
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeValidation    = "validation_error"
	ErrorTypeAPI           = "api_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeRateLimit     = "rate_limit_error"
	ErrorTypeSerialization = "serialization_error"
)

// ErrorCodeUnsupportedProvider identifies factory requests for a provider
// that was never registered
const ErrorCodeUnsupportedProvider = "unsupported_provider"

// Error represents a standardized LLM error
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewConfigurationError reports a client that cannot be constructed from its
// configuration, such as a missing API key
func NewConfigurationError(format string, args ...any) *Error {
	return &Error{
		Code:    "invalid_config",
		Message: fmt.Sprintf(format, args...),
		Type:    ErrorTypeConfiguration,
	}
}

// NewUnsupportedProviderError reports a factory request for an unknown provider
func NewUnsupportedProviderError(provider string) *Error {
	return &Error{
		Code:    ErrorCodeUnsupportedProvider,
		Message: fmt.Sprintf("unsupported provider: %s", provider),
		Type:    ErrorTypeValidation,
	}
}
