package authentic_test

import (
	"testing"

	"github.com/Ilopesr/authentic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordPolicy_AggregatesViolations(t *testing.T) {
	policy := authentic.NewPasswordPolicy()
	user := &authentic.User{Username: "testcase", Email: "testcase@testcase.com"}

	t.Run("valid password", func(t *testing.T) {
		violations := policy.Validate("testando@123", user)
		assert.Empty(t, violations)
	})

	t.Run("collects every failing rule", func(t *testing.T) {
		// too short and too common at once
		violations := policy.Validate("pass", user)
		require.NotEmpty(t, violations)
		assert.Contains(t, violations[0], "too short")
	})

	t.Run("too similar to username", func(t *testing.T) {
		violations := policy.Validate("testcase2024", user)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "too similar")
	})

	t.Run("common password", func(t *testing.T) {
		violations := policy.Validate("password1", user)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "too common")
	})

	t.Run("short and common report both", func(t *testing.T) {
		custom := authentic.NewPasswordPolicy(
			authentic.MinimumLengthRule(10),
			authentic.CommonPasswordRule([]string{"password1"}),
		)
		violations := custom.Validate("password1", user)
		assert.Len(t, violations, 2)
	})
}

func TestPasswordPolicy_CustomRules(t *testing.T) {
	calls := 0
	rule := authentic.PasswordRuleFunc(func(password string, user *authentic.User) error {
		calls++
		return nil
	})

	policy := authentic.NewPasswordPolicy(rule, rule)
	assert.Empty(t, policy.Validate("whatever", nil))
	assert.Equal(t, 2, calls)
}

func TestMatchRetype(t *testing.T) {
	assert.NoError(t, authentic.MatchRetype("testando@123", "testando@123"))

	err := authentic.MatchRetype("testando@123", "testando@124")
	assert.ErrorIs(t, err, authentic.ErrPasswordMismatch)
}
