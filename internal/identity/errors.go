package identity

import (
	"encoding/json"
	"net/http"
	"strings"

	"wastebin-backend/internal/apperr"
)

// goTrueError covers the error bodies the auth API has used across versions.
type goTrueError struct {
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func (e goTrueError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// translate is the only place that branches on auth-API error codes.
func translate(status int, body []byte) error {
	var ge goTrueError
	_ = json.Unmarshal(body, &ge)
	msg := ge.text()
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := &upstreamError{status: status, body: strings.TrimSpace(string(body))}

	switch ge.ErrorCode {
	case "user_already_exists", "email_exists", "identity_already_exists":
		return apperr.Wrap(apperr.KindConflict, "User already exists", cause)
	case "user_not_found":
		return apperr.Wrap(apperr.KindNotFound, "User not found", cause)
	case "invalid_credentials":
		return ErrInvalidCredentials
	case "email_not_confirmed":
		return apperr.Wrap(apperr.KindValidation, "Email not confirmed", cause)
	case "weak_password", "email_address_invalid", "validation_failed", "email_address_not_authorized":
		return apperr.Wrap(apperr.KindValidation, msg, cause)
	case "bad_jwt", "no_authorization", "session_not_found", "session_expired", "user_banned":
		return apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", cause)
	case "not_admin":
		return apperr.Wrap(apperr.KindForbidden, "Permission denied", cause)
	}
	if ge.Error == "invalid_grant" {
		return ErrInvalidCredentials
	}

	switch {
	case status == http.StatusUnauthorized:
		return apperr.Wrap(apperr.KindUnauthenticated, "Invalid or expired token", cause)
	case status == http.StatusForbidden:
		return apperr.Wrap(apperr.KindForbidden, "Permission denied", cause)
	case status == http.StatusNotFound:
		return apperr.Wrap(apperr.KindNotFound, "User not found", cause)
	case status == http.StatusConflict:
		return apperr.Wrap(apperr.KindConflict, "User already exists", cause)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperr.Wrap(apperr.KindValidation, msg, cause)
	}
	return apperr.Upstream("Identity service error: "+msg, cause)
}

type upstreamError struct {
	status int
	body   string
}

func (e *upstreamError) Error() string {
	return "auth api status " + http.StatusText(e.status) + ": " + e.body
}
