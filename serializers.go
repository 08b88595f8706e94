package authentic

import (
	"context"

	"github.com/goliatone/go-repository-bun"
)

// Validation stages. Each check is independent; commands apply the
// stages they need in sequence and merge the field scoped errors they
// produce.

// resolveUIDToken decodes an opaque identifier, loads the user behind
// it, and verifies the state token against the live record. Failures
// come back as field errors on "uid" or "token" respectively.
func resolveUIDToken(ctx context.Context, users Users, tokens *StateTokenGenerator, msgs Messages, uid, token string) (*User, error) {
	decoded, err := DecodeUID(uid)
	if err != nil {
		return nil, NewFieldError("uid", msgs.InvalidUID, TextCodeInvalidUID)
	}

	if !decoded.IsUUID() {
		return nil, NewFieldError("uid", msgs.InvalidUID, TextCodeInvalidUID)
	}

	user, err := users.GetByIdentifier(ctx, decoded.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, NewFieldError("uid", msgs.InvalidUID, TextCodeInvalidUID)
		}
		return nil, err
	}

	if !tokens.Verify(user, token) {
		return nil, NewFieldError("token", msgs.InvalidToken, TextCodeInvalidToken)
	}

	return user, nil
}

// validateNewPassword runs the strength policy and collects every
// violation under the given field name.
func validateNewPassword(policy *PasswordPolicy, user *User, password, field string) FieldErrors {
	violations := policy.Validate(password, user)
	if len(violations) == 0 {
		return nil
	}

	fields := FieldErrors{}
	for _, violation := range violations {
		fields.Add(field, violation)
	}
	return fields
}

// validateRetype checks the confirmation pair. It only runs after the
// primary password validation succeeded.
func validateRetype(password, rePassword, field string, msgs Messages) FieldErrors {
	if err := MatchRetype(password, rePassword); err != nil {
		return FieldErrors{field: {msgs.PasswordMismatch}}
	}
	return nil
}
