package identity

import (
	"github.com/learnspace/learnspace/core"
)

// Roles. Fixed at registration; never changed client-side.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

var (
	AllRoles = []Role{RoleStudent, RoleFaculty, RoleAdmin}

	// SignUpRoles are the roles a user may self-register with.
	// Admin accounts are provisioned out of band.
	SignUpRoles = []Role{RoleStudent, RoleFaculty}
)

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// Approval statuses. New registrations start out pending; an admin
// approves or rejects them. Only approved accounts may sign in.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Identity is the authenticated principal as returned by the backend.
// The JSON shape matches the backend's user record; it is also the shape
// persisted verbatim by the session store.
type Identity struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Status    Status `json:"status"`
}

func (i Identity) FullName() string {
	return core.CleanString(core.CleanString(i.FirstName) + " " + core.CleanString(i.LastName))
}

func (i Identity) Approved() bool { return i.Status == StatusApproved }

func (i Identity) IsStudent() bool { return i.Role == RoleStudent }
func (i Identity) IsFaculty() bool { return i.Role == RoleFaculty }
func (i Identity) IsAdmin() bool   { return i.Role == RoleAdmin }

// Credentials is the sign-in payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return core.Validate.Struct(c)
}

// StatusChange is the admin approval-workflow payload.
type StatusChange struct {
	Status Status `json:"status" validate:"required,approvalstatus"`
}

func (sc *StatusChange) Validate() error {
	return core.Validate.Struct(sc)
}

// Registration contains information needed to sign up a new account.
type Registration struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,signuprole"`
}

func (r *Registration) Validate() error {
	r.FirstName = core.CleanString(r.FirstName)
	r.LastName = core.CleanString(r.LastName)
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.Validate.Struct(r)
}
