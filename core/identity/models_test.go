package identity

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestRole_valid(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, role.Valid(), role)
	}
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestStatus_valid(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusApproved, StatusRejected} {
		assert.True(t, status.Valid(), status)
	}
	assert.False(t, Status("banned").Valid())
}

func TestIdentity(t *testing.T) {
	usr := Identity{FirstName: " Awe ", LastName: "Mdr", Role: RoleFaculty, Status: StatusApproved}
	assert.Equal(t, "Awe Mdr", usr.FullName())

	// per-field padding must not survive as interior whitespace
	usr.FirstName, usr.LastName = "  Awe", " Mdr  "
	assert.Equal(t, "Awe Mdr", usr.FullName())
	assert.True(t, usr.Approved())
	assert.True(t, usr.IsFaculty())
	assert.False(t, usr.IsStudent())
	assert.False(t, usr.IsAdmin())

	usr.Status = StatusPending
	assert.False(t, usr.Approved())
}

func failedFields(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, verr.Field())
	}
	return fields
}

func TestCredentials_validate(t *testing.T) {
	tests := []struct {
		name       string
		creds      Credentials
		wantFields []string
	}{
		{name: "valid", creds: Credentials{Email: "awe@test.cd", Password: "s3cret"}},
		{name: "empty", creds: Credentials{}, wantFields: []string{"email", "password"}},
		{name: "bad email", creds: Credentials{Email: "not-an-email", Password: "s3cret"}, wantFields: []string{"email"}},
		{name: "missing password", creds: Credentials{Email: "awe@test.cd"}, wantFields: []string{"password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.ElementsMatch(t, tt.wantFields, failedFields(err))
		})
	}
}

func TestCredentials_validateNormalizesEmail(t *testing.T) {
	creds := Credentials{Email: "  Awe@Test.CD ", Password: "s3cret"}
	assert.NoError(t, creds.Validate())
	assert.Equal(t, "awe@test.cd", creds.Email)
}

func TestStatusChange_validate(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusApproved, StatusRejected} {
		sc := StatusChange{Status: status}
		assert.NoError(t, sc.Validate(), status)
	}

	sc := StatusChange{Status: "banned"}
	assert.ElementsMatch(t, []string{"status"}, failedFields(sc.Validate()))

	sc = StatusChange{}
	assert.ElementsMatch(t, []string{"status"}, failedFields(sc.Validate()))
}

func TestRegistration_validate(t *testing.T) {
	valid := Registration{
		FirstName:       "Awe",
		LastName:        "Mdr",
		Email:           "awe@test.cd",
		Password:        "s3cret",
		ConfirmPassword: "s3cret",
		Role:            RoleStudent,
	}

	tests := []struct {
		name       string
		mutate     func(r *Registration)
		wantFields []string
	}{
		{name: "valid student", mutate: func(r *Registration) {}},
		{name: "valid faculty", mutate: func(r *Registration) { r.Role = RoleFaculty }},
		{name: "missing names", mutate: func(r *Registration) { r.FirstName = ""; r.LastName = " " }, wantFields: []string{"firstName", "lastName"}},
		{name: "short password", mutate: func(r *Registration) { r.Password = "abc"; r.ConfirmPassword = "abc" }, wantFields: []string{"password"}},
		{name: "password mismatch", mutate: func(r *Registration) { r.ConfirmPassword = "other1" }, wantFields: []string{"confirmPassword"}},
		{name: "admin cannot self-register", mutate: func(r *Registration) { r.Role = RoleAdmin }, wantFields: []string{"role"}},
		{name: "unknown role", mutate: func(r *Registration) { r.Role = "wizard" }, wantFields: []string{"role"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := valid
			tt.mutate(&reg)
			err := reg.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			assert.ElementsMatch(t, tt.wantFields, failedFields(err))
		})
	}
}
