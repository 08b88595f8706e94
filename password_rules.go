package authentic

import (
	"fmt"
	"strings"
)

// PasswordRule is a single pluggable strength check. Rules report a
// human readable message on violation and nil when satisfied.
type PasswordRule interface {
	Validate(password string, user *User) error
}

// PasswordRuleFunc adapts a function into a PasswordRule.
type PasswordRuleFunc func(password string, user *User) error

// Validate satisfies the PasswordRule interface.
func (f PasswordRuleFunc) Validate(password string, user *User) error {
	return f(password, user)
}

// PasswordPolicy runs every configured rule and aggregates all
// violations instead of failing fast on the first one.
type PasswordPolicy struct {
	rules []PasswordRule
}

// NewPasswordPolicy builds a policy from the given rules. With no
// arguments it applies the default rule set.
func NewPasswordPolicy(rules ...PasswordRule) *PasswordPolicy {
	if len(rules) == 0 {
		rules = DefaultPasswordRules()
	}
	return &PasswordPolicy{rules: rules}
}

// DefaultPasswordRules mirrors the usual strength checks: minimum
// length, similarity to user attributes, and a common password list.
func DefaultPasswordRules() []PasswordRule {
	return []PasswordRule{
		MinimumLengthRule(8),
		UserAttributeSimilarityRule(),
		CommonPasswordRule(nil),
	}
}

// Validate returns every rule violation in rule order. An empty slice
// means the candidate passed all checks.
func (p *PasswordPolicy) Validate(password string, user *User) []string {
	var violations []string
	for _, rule := range p.rules {
		if rule == nil {
			continue
		}
		if err := rule.Validate(password, user); err != nil {
			violations = append(violations, err.Error())
		}
	}
	return violations
}

// MatchRetype checks the confirmation field. It is only meaningful
// after Validate succeeded for the primary password.
func MatchRetype(password, rePassword string) error {
	if password != rePassword {
		return ErrPasswordMismatch
	}
	return nil
}

// MinimumLengthRule rejects passwords shorter than min characters.
func MinimumLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string, _ *User) error {
		if len(password) < min {
			return fmt.Errorf("This password is too short. It must contain at least %d characters.", min)
		}
		return nil
	})
}

// UserAttributeSimilarityRule rejects passwords that contain the
// username or the email local part, ignoring case.
func UserAttributeSimilarityRule() PasswordRule {
	return PasswordRuleFunc(func(password string, user *User) error {
		if user == nil {
			return nil
		}

		candidate := strings.ToLower(password)
		attributes := []string{strings.ToLower(user.Username)}
		if at := strings.Index(user.Email, "@"); at > 0 {
			attributes = append(attributes, strings.ToLower(user.Email[:at]))
		}

		for _, attr := range attributes {
			if len(attr) < 3 {
				continue
			}
			if strings.Contains(candidate, attr) {
				return fmt.Errorf("The password is too similar to the username.")
			}
		}
		return nil
	})
}

var defaultCommonPasswords = []string{
	"password", "12345678", "123456789", "qwerty123", "iloveyou",
	"admin123", "welcome1", "letmein1", "abc12345", "password1",
}

// CommonPasswordRule rejects passwords found in the blocklist. Passing
// nil uses a small built-in list; callers with a real corpus should
// supply their own.
func CommonPasswordRule(blocklist []string) PasswordRule {
	if blocklist == nil {
		blocklist = defaultCommonPasswords
	}

	blocked := make(map[string]struct{}, len(blocklist))
	for _, entry := range blocklist {
		blocked[strings.ToLower(entry)] = struct{}{}
	}

	return PasswordRuleFunc(func(password string, _ *User) error {
		if _, found := blocked[strings.ToLower(password)]; found {
			return fmt.Errorf("This password is too common.")
		}
		return nil
	})
}
