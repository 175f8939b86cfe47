package schema

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredNames(fields []Field) []string {
	var out []string
	for _, f := range fields {
		if f.Config.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

func TestCreateUserForm(t *testing.T) {
	f := CreateUserForm()
	require.Len(t, f, 7)
	assert.Equal(t, []string{"first_name", "email_address", "username"}, requiredNames(f))
	assert.Equal(t, "email", f[3].Type)

	dob := f[6]
	require.NotNil(t, dob.Rules)
	assert.True(t, dob.Rules.PastOnly)
}

func TestUserDetailForm_GenderOptions(t *testing.T) {
	f := UserDetailForm()
	assert.Equal(t, []string{"first_name", "email_address", "job_title", "username"}, requiredNames(f))

	gender := f[len(f)-1]
	assert.Equal(t, "dropdown", gender.Type)
	require.Len(t, gender.Config.Options, 4)
	for _, o := range gender.Config.Options {
		_, err := uuid.Parse(o.Value)
		assert.NoError(t, err, o.Label)
	}
}

func TestUsersListView(t *testing.T) {
	lv := UsersListView()
	assert.Equal(t, "/api/v1.0/iam/tenant/users", lv.Endpoint.URI)
	assert.Equal(t, "GET", lv.Endpoint.Method)
	require.Len(t, lv.Columns, 7)
	assert.Equal(t, "updated_at", lv.Columns[6].Name)
	assert.Equal(t, "Last Activity", lv.Columns[6].Label)
}
