package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "idverse/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encoding failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeInvalidType, dErrors.CodeMalformedDocument:
		return http.StatusUnprocessableEntity
	case dErrors.CodeConflict, dErrors.CodeAlreadyRevoked, dErrors.CodeDuplicateRegistration:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeSignatureInvalid:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeExpired:
		return http.StatusGone
	case dErrors.CodeStorageUnavailable, dErrors.CodeRegistryUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the error string in
// JSON responses.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeNotFound,
		dErrors.CodeConflict,
		dErrors.CodeUnauthorized,
		dErrors.CodeForbidden,
		dErrors.CodeInvalidType,
		dErrors.CodeMalformedDocument,
		dErrors.CodeExpired,
		dErrors.CodeSignatureInvalid,
		dErrors.CodeAlreadyRevoked,
		dErrors.CodeDuplicateRegistration,
		dErrors.CodeStorageUnavailable,
		dErrors.CodeRegistryUnavailable:
		return string(code)
	default:
		return "internal_error"
	}
}
