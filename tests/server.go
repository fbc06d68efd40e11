package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnspace/learnspace/core"
	"github.com/learnspace/learnspace/core/course"
	"github.com/learnspace/learnspace/core/identity"
)

type (
	// FakeBackend is an in-process stand-in for the external LMS REST
	// backend, close enough for the client flows under test: login,
	// registration, the admin approval workflow and the course surface.
	FakeBackend struct {
		app *echo.Echo

		mu          sync.RWMutex
		users       map[string]*backendUser
		courses     map[string]*course.Course
		enrollments map[string][]string // student ID -> course IDs
	}

	backendUser struct {
		identity.Identity
		passwordHash []byte
	}
)

func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{
		app:         echo.New(),
		users:       make(map[string]*backendUser),
		courses:     make(map[string]*course.Course),
		enrollments: make(map[string][]string),
	}
	fb.app.HideBanner = true

	fb.app.POST("/login", fb.login)
	fb.app.POST("/register", fb.register)
	fb.app.GET("/users/pending", fb.usersByStatus(identity.StatusPending))
	fb.app.GET("/users/approved", fb.usersByStatus(identity.StatusApproved))
	fb.app.PATCH("/users/:id/status", fb.setUserStatus)

	fb.app.GET("/courses/faculty/:id", fb.facultyCourses)
	fb.app.POST("/courses", fb.createCourse)
	fb.app.GET("/courses/:id", fb.getCourse)
	fb.app.POST("/courses/:id/announcement", fb.postAnnouncement)
	fb.app.GET("/students/:id/enrolled-courses", fb.enrolledCourses)
	fb.app.GET("/faculty/:facultyId/courses/:courseId/students", fb.courseStudents)

	return fb
}

func (fb *FakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.app.ServeHTTP(w, r)
}

// Serve exposes the fake backend on an httptest server torn down with t.
func (fb *FakeBackend) Serve(t testingT) *httptest.Server {
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	return srv
}

func message(msg string) echo.Map { return echo.Map{"message": msg} }

// Handlers

// login mirrors the real backend: it authenticates credentials and returns
// the user record regardless of approval status; the client is the one
// rejecting non-approved identities.
func (fb *FakeBackend) login(ctx echo.Context) error {
	var creds identity.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return ctx.JSON(http.StatusBadRequest, message("invalid payload"))
	}

	fb.mu.RLock()
	defer fb.mu.RUnlock()
	for _, usr := range fb.users {
		if usr.Email != creds.Email {
			continue
		}
		if bcrypt.CompareHashAndPassword(usr.passwordHash, []byte(creds.Password)) != nil {
			break
		}
		return ctx.JSON(http.StatusOK, echo.Map{"user": usr.Identity})
	}
	return ctx.JSON(http.StatusUnauthorized, message("invalid email or password"))
}

func (fb *FakeBackend) register(ctx echo.Context) error {
	var reg identity.Registration
	if err := ctx.Bind(&reg); err != nil {
		return ctx.JSON(http.StatusBadRequest, message("invalid payload"))
	}
	if reg.Password != reg.ConfirmPassword {
		return ctx.JSON(http.StatusBadRequest, message("passwords do not match"))
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, usr := range fb.users {
		if usr.Email == reg.Email {
			return ctx.JSON(http.StatusConflict, message("a user with this email already exists"))
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.MinCost)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, message("hashing password"))
	}
	usr := &backendUser{
		Identity: identity.Identity{
			ID:        uuid.New().String(),
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Email:     reg.Email,
			Role:      reg.Role,
			Status:    identity.StatusPending,
		},
		passwordHash: hash,
	}
	fb.users[usr.ID] = usr
	return ctx.JSON(http.StatusCreated, message("registration submitted, awaiting admin approval"))
}

func (fb *FakeBackend) usersByStatus(status identity.Status) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		fb.mu.RLock()
		defer fb.mu.RUnlock()

		users := make([]identity.Identity, 0)
		for _, usr := range fb.users {
			if usr.Status == status {
				users = append(users, usr.Identity)
			}
		}
		return ctx.JSON(http.StatusOK, users)
	}
}

func (fb *FakeBackend) setUserStatus(ctx echo.Context) error {
	var body struct {
		Status identity.Status `json:"status"`
	}
	if err := ctx.Bind(&body); err != nil || !body.Status.Valid() {
		return ctx.JSON(http.StatusBadRequest, message("invalid status"))
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	usr, ok := fb.users[ctx.Param("id")]
	if !ok {
		return ctx.JSON(http.StatusNotFound, message("user not found"))
	}
	usr.Status = body.Status
	return ctx.JSON(http.StatusOK, message("status updated"))
}

func (fb *FakeBackend) facultyCourses(ctx echo.Context) error {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range fb.courses {
		if crs.FacultyID == ctx.Param("id") {
			courses = append(courses, *crs)
		}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (fb *FakeBackend) createCourse(ctx echo.Context) error {
	var nc course.NewCourse
	if err := ctx.Bind(&nc); err != nil {
		return ctx.JSON(http.StatusBadRequest, message("invalid payload"))
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	crs := &course.Course{
		ID:          uuid.New().String(),
		Title:       nc.Title,
		CourseCode:  nc.CourseCode,
		Description: nc.Description,
		FacultyID:   nc.FacultyID,
	}
	if fac, ok := fb.users[nc.FacultyID]; ok {
		crs.InstructorName = fac.FullName()
	}
	fb.courses[crs.ID] = crs
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "course created", "course": crs})
}

func (fb *FakeBackend) getCourse(ctx echo.Context) error {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	if crs, ok := fb.courses[ctx.Param("id")]; ok {
		return ctx.JSON(http.StatusOK, crs)
	}
	return ctx.JSON(http.StatusNotFound, message("course not found"))
}

func (fb *FakeBackend) postAnnouncement(ctx echo.Context) error {
	var na course.NewAnnouncement
	if err := ctx.Bind(&na); err != nil || na.Text == "" {
		return ctx.JSON(http.StatusBadRequest, message("please enter an announcement"))
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	crs, ok := fb.courses[ctx.Param("id")]
	if !ok {
		return ctx.JSON(http.StatusNotFound, message("course not found"))
	}
	ann := course.Announcement{
		ID:        uuid.New().String(),
		Text:      na.Text,
		CreatedAt: time.Now().UTC(),
	}
	crs.Announcements = append([]course.Announcement{ann}, crs.Announcements...)
	return ctx.JSON(http.StatusCreated, echo.Map{"announcement": ann})
}

func (fb *FakeBackend) enrolledCourses(ctx echo.Context) error {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	courses := make([]course.Course, 0)
	for _, courseID := range fb.enrollments[ctx.Param("id")] {
		if crs, ok := fb.courses[courseID]; ok {
			courses = append(courses, *crs)
		}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (fb *FakeBackend) courseStudents(ctx echo.Context) error {
	fb.mu.RLock()
	defer fb.mu.RUnlock()

	crs, ok := fb.courses[ctx.Param("courseId")]
	if !ok || crs.FacultyID != ctx.Param("facultyId") {
		return ctx.JSON(http.StatusNotFound, message("course not found"))
	}

	students := make([]identity.Identity, 0)
	for studentID, courseIDs := range fb.enrollments {
		for _, courseID := range courseIDs {
			if courseID != crs.ID {
				continue
			}
			if usr, ok := fb.users[studentID]; ok {
				students = append(students, usr.Identity)
			}
		}
	}
	return ctx.JSON(http.StatusOK, students)
}

// Config returns a client configuration pointed at baseURL.
func Config(baseURL string) *core.Config {
	conf := &core.Config{
		Debug:    true,
		TestMode: true,
		Env:      "TEST",
		AppName:  "LearnSpace",
	}
	conf.API.BaseURL = baseURL
	conf.API.Timeout = 5 * time.Second
	return conf
}
