package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/learnspace/learnspace/clients/backend"
	"github.com/learnspace/learnspace/core"
	"github.com/learnspace/learnspace/core/access"
	"github.com/learnspace/learnspace/core/auth"
	"github.com/learnspace/learnspace/core/identity"
	"github.com/learnspace/learnspace/core/nav"
	"github.com/learnspace/learnspace/core/session"
	"github.com/learnspace/learnspace/storage/localdata"
	testutil "github.com/learnspace/learnspace/tests"
)

func mockReadPassword(t *testing.T, pwds ...string) {
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })

	i := 0
	readPasswordFunc = func(fd int) ([]byte, error) {
		if i >= len(pwds) {
			t.Fatalf("readPasswordFunc called %d times, only %d passwords mocked", i+1, len(pwds))
		}
		pwd := pwds[i]
		i++
		return []byte(pwd), nil
	}
}

func newCLI(t *testing.T) (*commandLine, *testutil.FakeBackend, *bytes.Buffer) {
	fb := testutil.NewFakeBackend()
	srv := fb.Serve(t)

	logger := testutil.NewLogger()
	api := backend.NewClient(testutil.Config(srv.URL), logger)
	store := session.NewStore(localdata.NewMemStore(), logger)
	presenter := nav.NewPresenter(store)
	t.Cleanup(presenter.Close)

	out := new(bytes.Buffer)
	cli := &commandLine{
		authSvc:   auth.NewService(api, store, logger),
		api:       api,
		store:     store,
		presenter: presenter,
		routes:    access.DefaultRoutes(),
		out:       out,
	}
	return cli, fb, out
}

type cliTest struct {
	name     string
	args     []string
	pwds     []string
	wantErr  error
	contains []string
}

func TestCLI_help(t *testing.T) {
	tests := []cliTest{
		{name: "no command", args: []string{"lms"}, wantErr: errHelp, contains: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lms", "frobnicate"}, wantErr: errHelp, contains: []string{"Usage:"}},
		{name: "signin without email", args: []string{"lms", "signin"}, wantErr: errHelp},
		{name: "signin with empty password", args: []string{"lms", "signin", "-email", "awe@test.cd"}, pwds: []string{""}, wantErr: errHelp},
		{name: "signup missing names", args: []string{"lms", "signup", "-email", "awe@test.cd"}, wantErr: errHelp},
		{name: "open without path", args: []string{"lms", "open"}, wantErr: errHelp},
		{name: "approve without id", args: []string{"lms", "approve"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, _, out := newCLI(t)
			if len(tt.pwds) > 0 {
				mockReadPassword(t, tt.pwds...)
			}

			err := cli.run(tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("run() error = %v, want %v", err, tt.wantErr)
			}
			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	creds := identity.Credentials{}
	rendered := renderError(creds.Validate())
	assert.Contains(t, rendered, "email: this field is required")
	assert.Contains(t, rendered, "password: this field is required")

	fieldErr := core.NewValidationError(errors.New("conflict"), core.FieldError{Field: "email", Error: "taken"})
	assert.Equal(t, "email: taken", renderError(fieldErr))

	assert.Equal(t, "boom", renderError(errors.New("boom")))
}

func TestCLI_signIn(t *testing.T) {
	cli, fb, out := newCLI(t)
	usr := testutil.CreateUser(t, fb, "Awe", "Mdr", "awe@test.cd", "s3cret", identity.RoleFaculty, identity.StatusApproved)
	mockReadPassword(t, "s3cret")

	if err := cli.run([]string{"lms", "signin", "-email", "awe@test.cd"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), "Welcome back, Awe Mdr! -> "+access.PathFacultyDashboard)

	got, ok := cli.store.Read()
	if !ok {
		t.Fatal("sign-in must persist the session")
	}
	assert.Equal(t, usr, got)
}

func TestCLI_signInPending(t *testing.T) {
	cli, fb, _ := newCLI(t)
	testutil.CreateUser(t, fb, "New", "User", "new@test.cd", "s3cret", identity.RoleStudent, identity.StatusPending)
	mockReadPassword(t, "s3cret")

	err := cli.run([]string{"lms", "signin", "-email", "new@test.cd"})
	if !errors.Is(err, auth.ErrPendingApproval) {
		t.Fatalf("run() error = %v, want %v", err, auth.ErrPendingApproval)
	}
	if _, ok := cli.store.Read(); ok {
		t.Fatal("rejected sign-in must not persist a session")
	}
}

func TestCLI_signInRejection(t *testing.T) {
	cli, fb, _ := newCLI(t)
	testutil.CreateUser(t, fb, "Awe", "Mdr", "awe@test.cd", "s3cret", identity.RoleStudent, identity.StatusApproved)
	mockReadPassword(t, "wrong")

	err := cli.run([]string{"lms", "signin", "-email", "awe@test.cd"})
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("run() error = %v, want *APIError", err)
	}
	assert.Equal(t, "invalid email or password", apiErr.Message)
}

func TestCLI_signUp(t *testing.T) {
	cli, _, out := newCLI(t)
	mockReadPassword(t, "s3cret", "s3cret")

	err := cli.run([]string{"lms", "signup", "-first", "New", "-last", "Student", "-email", "new@test.cd", "-role", "student"})
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), "an admin must approve the account")
	if _, ok := cli.store.Read(); ok {
		t.Fatal("sign-up must not create a session")
	}
}

func TestCLI_whoamiAndLogout(t *testing.T) {
	cli, _, out := newCLI(t)

	if err := cli.run([]string{"lms", "whoami"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), "not signed in")

	usr := testutil.Identity(identity.RoleStudent)
	if err := cli.store.Write(usr); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	out.Reset()
	if err := cli.run([]string{"lms", "whoami"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), usr.Email)

	out.Reset()
	if err := cli.run([]string{"lms", "logout"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), "Signed out -> "+access.PathSignIn)
	if _, ok := cli.store.Read(); ok {
		t.Fatal("logout must clear the session")
	}
}

func TestCLI_menuFollowsSession(t *testing.T) {
	cli, _, out := newCLI(t)

	if err := cli.run([]string{"lms", "menu"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), access.PathSignIn)

	if err := cli.store.Write(testutil.Identity(identity.RoleFaculty)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	out.Reset()
	if err := cli.run([]string{"lms", "menu"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), access.PathCreateCourse)
	assert.NotContains(t, out.String(), access.PathEnrolledCourses)
}

func TestCLI_open(t *testing.T) {
	cli, _, out := newCLI(t)

	if err := cli.run([]string{"lms", "open", "-path", access.PathFacultyDashboard}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), "REDIRECT "+access.PathFacultyDashboard+" -> "+access.PathSignIn)

	if err := cli.store.Write(testutil.Identity(identity.RoleFaculty)); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	out.Reset()
	if err := cli.run([]string{"lms", "open", "-path", access.PathFacultyDashboard}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), "ALLOW "+access.PathFacultyDashboard)
}

func TestCLI_approvalWorkflow(t *testing.T) {
	cli, fb, out := newCLI(t)
	usr := testutil.CreateUser(t, fb, "New", "User", "new@test.cd", "s3cret", identity.RoleStudent, identity.StatusPending)

	if err := cli.run([]string{"lms", "pending"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), usr.ID)

	out.Reset()
	if err := cli.run([]string{"lms", "approve", "-id", usr.ID}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), "user "+usr.ID+" -> approved")

	out.Reset()
	if err := cli.run([]string{"lms", "approved"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), usr.ID)
}

func TestCLI_courses(t *testing.T) {
	cli, fb, out := newCLI(t)
	fac := testutil.CreateUser(t, fb, "Fac", "Ulty", "fac@test.cd", "s3cret", identity.RoleFaculty, identity.StatusApproved)
	crs := testutil.CreateCourse(t, fb, "Distributed Systems", "CS401", fac.ID)

	if err := cli.run([]string{"lms", "courses"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), "not signed in")

	if err := cli.store.Write(fac); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	out.Reset()
	if err := cli.run([]string{"lms", "courses"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), crs.Title)

	stu := testutil.CreateUser(t, fb, "Stu", "Dent", "stu@test.cd", "s3cret", identity.RoleStudent, identity.StatusApproved)
	testutil.Enroll(fb, stu.ID, crs.ID)
	if err := cli.store.Write(stu); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	out.Reset()
	if err := cli.run([]string{"lms", "courses"}); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	assert.Contains(t, out.String(), crs.CourseCode)
}
