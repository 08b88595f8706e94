package authentic

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Stable text codes returned to API clients. These match the error keys
// the serializers attach to their field errors.
const (
	TextCodeInvalidUID       = "INVALID_UID"
	TextCodeInvalidToken     = "INVALID_TOKEN"
	TextCodeWrongEmail       = "WRONG_EMAIL"
	TextCodeAlreadyActivated = "IS_VALIDATED"
	TextCodePasswordMismatch = "PASSWORD_MISMATCH"
	TextCodeCannotCreateUser = "CANNOT_CREATE_USER"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeEmptyPassword    = "EMPTY_PASSWORD"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeNotAuthorized    = "NOT_AUTHORIZED"
)

// ErrInvalidIdentifier is returned when an opaque identifier cannot be
// decoded back into a primary key.
var ErrInvalidIdentifier = errors.New(MsgInvalidUID, errors.CategoryValidation).
	WithTextCode(TextCodeInvalidUID).
	WithCode(errors.CodeBadRequest)

// ErrInvalidToken is returned when a state token fails verification.
var ErrInvalidToken = errors.New(MsgInvalidToken, errors.CategoryValidation).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when no account matches the given email.
var ErrUserNotFound = errors.New(MsgUserNotExists, errors.CategoryValidation).
	WithTextCode(TextCodeWrongEmail).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyActivated is returned when resending activation for an
// account that is already active.
var ErrAlreadyActivated = errors.New(MsgAlreadyActivated, errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyActivated).
	WithCode(errors.CodeBadRequest)

// ErrPasswordMismatch is returned when password and retype differ.
var ErrPasswordMismatch = errors.New(MsgPasswordMismatch, errors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(errors.CodeBadRequest)

// ErrAccountCreationFailed wraps store level integrity violations
// surfaced while persisting a new account.
var ErrAccountCreationFailed = errors.New(MsgCannotCreateUser, errors.CategoryConflict).
	WithTextCode(TextCodeCannotCreateUser).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned on credential check failures.
var ErrMismatchedHashAndPassword = errors.New(MsgInvalidPassword, errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotActive blocks logins for accounts pending activation.
var ErrUserNotActive = errors.New("account is not active", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthorized).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is returned for JWTs past their expiry claim.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for JWTs we cannot parse or whose
// signature does not check out.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession is the error when the request carries no token
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode("SESSION_NOT_FOUND").
	WithCode(errors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithTextCode("CLAIMS_MAPPING_ERROR").
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthorized guards the user CRUD surface.
var ErrNotAuthorized = errors.New("not authorized", errors.CategoryAuthz).
	WithTextCode(TextCodeNotAuthorized).
	WithCode(errors.CodeForbidden)

// FieldErrors maps a field name to the ordered list of messages that
// failed for it. Multi-field input never collapses into a flat error.
type FieldErrors map[string][]string

// Add appends a message to the given field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Merge folds another set of field errors into this one, preserving order.
func (f FieldErrors) Merge(other FieldErrors) {
	for field, messages := range other {
		f[field] = append(f[field], messages...)
	}
}

// HasErrors reports whether any field collected at least one message.
func (f FieldErrors) HasErrors() bool {
	return len(f) > 0
}

const fieldErrorsMetadataKey = "fields"

// NewFieldError builds a validation error scoped to a single field.
func NewFieldError(field, message, textCode string) *errors.Error {
	return errors.New(message, errors.CategoryValidation).
		WithTextCode(textCode).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{
			fieldErrorsMetadataKey: FieldErrors{field: {message}},
		})
}

// NewFieldErrors wraps a whole set of field errors into a single
// validation error the HTTP layer can render as a 400 body.
func NewFieldErrors(fields FieldErrors) *errors.Error {
	return errors.New("validation failed", errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{
			fieldErrorsMetadataKey: fields,
		})
}

// FieldErrorsFrom extracts field scoped messages from an error, if any.
func FieldErrorsFrom(err error) (FieldErrors, bool) {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return nil, false
	}
	if richErr.Metadata == nil {
		return nil, false
	}
	fields, ok := richErr.Metadata[fieldErrorsMetadataKey].(FieldErrors)
	return fields, ok
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
