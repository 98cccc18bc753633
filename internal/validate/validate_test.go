package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct(t *testing.T) {
	v := New(6)

	testCases := []struct {
		name       string
		input      any
		wantFields map[string]string
	}{
		{
			name:  "valid register",
			input: Register{Name: "Ann", Email: "ann@x.com", Password: "secret1"},
		},
		{
			name:  "register missing everything",
			input: Register{},
			wantFields: map[string]string{
				"name":     "name is required",
				"email":    "email is required",
				"password": "password is required",
			},
		},
		{
			name:       "password longer than bcrypt accepts",
			input:      Register{Name: "Ann", Email: "ann@x.com", Password: strings.Repeat("ä", 37)},
			wantFields: map[string]string{"password": "password must be at most 72 bytes"},
		},
		{
			name:  "password at the byte limit",
			input: CreateUser{Name: "Ann", Email: "ann@x.com", Password: strings.Repeat("a", 72)},
		},
		{
			name:       "short password",
			input:      Register{Name: "Ann", Email: "ann@x.com", Password: "12345"},
			wantFields: map[string]string{"password": "password must be at least 6 characters"},
		},
		{
			name:       "bad email",
			input:      Profile{Name: "Ann", Email: "not-an-email"},
			wantFields: map[string]string{"email": "email must be a valid email address"},
		},
		{
			name:       "invalid role",
			input:      UpdateUser{Name: "Ann", Email: "ann@x.com", Role: "root"},
			wantFields: map[string]string{"role": "role must be user, admin, or superadmin"},
		},
		{
			name:  "create without role",
			input: CreateUser{Name: "Ann", Email: "ann@x.com", Password: "secret1"},
		},
		{
			name:       "same new password",
			input:      ChangePassword{CurrentPassword: "secret1", NewPassword: "secret1"},
			wantFields: map[string]string{"newPassword": "newPassword must be different from CurrentPassword"},
		},
		{
			name:  "empty reset generates",
			input: ResetPassword{},
		},
		{
			name:       "short reset",
			input:      ResetPassword{NewPassword: "abc"},
			wantFields: map[string]string{"newPassword": "newPassword must be at least 6 characters"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)
			if tc.wantFields == nil {
				require.NoError(t, err)
				return
			}

			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantFields, verr.Fields)
		})
	}
}

func TestMinLength(t *testing.T) {
	v := New(10)
	assert.Equal(t, 10, v.MinLength())

	err := v.Struct(Register{Name: "Ann", Email: "ann@x.com", Password: "secret1"})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password must be at least 10 characters", verr.Error())

	assert.Equal(t, 6, New(0).MinLength())
}

func TestErrorOrder(t *testing.T) {
	err := New(6).Struct(Register{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "name is required"), err.Error())
}
