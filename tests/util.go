package testutil

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/learnspace/learnspace/core"
	"github.com/learnspace/learnspace/core/course"
	"github.com/learnspace/learnspace/core/identity"
	logsvc "github.com/learnspace/learnspace/services/logger"
)

// testingT is the slice of *testing.T the helpers need; it keeps this
// package importable without the testing package leaking into non-test
// binaries.
type testingT interface {
	Fatalf(format string, args ...interface{})
	Cleanup(func())
}

// NewLogger returns a console-only logger for tests.
func NewLogger() core.Logger {
	return logsvc.NewConsoleLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
}

// CreateUser seeds a user into the fake backend and returns its identity.
func CreateUser(t testingT, fb *FakeBackend, firstName, lastName, email, pwd string, role identity.Role, status identity.Status) identity.Identity {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr := &backendUser{
		Identity: identity.Identity{
			ID:        uuid.New().String(),
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Role:      role,
			Status:    status,
		},
		passwordHash: hash,
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.users[usr.ID] = usr
	return usr.Identity
}

// CreateCourse seeds a course owned by facultyID.
func CreateCourse(t testingT, fb *FakeBackend, title, code, facultyID string) course.Course {
	crs := &course.Course{
		ID:         uuid.New().String(),
		Title:      title,
		CourseCode: code,
		FacultyID:  facultyID,
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fac, ok := fb.users[facultyID]; ok {
		crs.InstructorName = fac.FullName()
	}
	fb.courses[crs.ID] = crs
	return *crs
}

// Enroll places a student into a course.
func Enroll(fb *FakeBackend, studentID, courseID string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.enrollments[studentID] = append(fb.enrollments[studentID], courseID)
}

// Identity builds an approved identity without touching the backend.
func Identity(role identity.Role) identity.Identity {
	return identity.Identity{
		ID:        uuid.New().String(),
		FirstName: "Test",
		LastName:  "User",
		Email:     "test@learnspace.cd",
		Role:      role,
		Status:    identity.StatusApproved,
	}
}
