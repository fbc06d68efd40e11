package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/learnspace/learnspace/core"
	"github.com/learnspace/learnspace/core/course"
	"github.com/learnspace/learnspace/core/identity"
)

// APIError is a non-2xx response from the backend, carrying the
// user-facing message from the response body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Client wraps the external LMS REST backend.
type Client struct {
	baseURL string
	rest    rest.Client
	logger  core.Logger
}

func NewClient(conf *core.Config, logger core.Logger) *Client {
	return &Client{
		baseURL: conf.API.BaseURL,
		rest:    rest.Client{HTTPClient: &http.Client{Timeout: conf.API.Timeout}},
		logger:  logger,
	}
}

func (c *Client) send(ctx context.Context, method rest.Method, path string, payload, out interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}

	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrapf(err, "building %s %s request", method, path)
	}

	// ctx must reach the transport: an abandoned attempt has to abort its
	// request, not linger until the client timeout
	httpRes, err := c.rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	resp, err := rest.BuildResponse(httpRes)
	if err != nil {
		return errors.Wrapf(err, "reading %s %s response", method, path)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(resp.Body), out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

// apiError extracts the backend's {"message": ...} error payload.
func apiError(resp *rest.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Login authenticates against POST /login. A non-OK status yields an
// *APIError; the caller is responsible for the approval-status check on
// the returned identity.
func (c *Client) Login(ctx context.Context, creds identity.Credentials) (identity.Identity, error) {
	var res struct {
		User identity.Identity `json:"user"`
	}
	if err := c.send(ctx, rest.Post, "/login", creds, &res); err != nil {
		return identity.Identity{}, err
	}
	return res.User, nil
}

// Register creates a new (pending) account via POST /register.
func (c *Client) Register(ctx context.Context, reg identity.Registration) error {
	return c.send(ctx, rest.Post, "/register", reg, nil)
}

// Admin approval workflow.

func (c *Client) PendingUsers(ctx context.Context) ([]identity.Identity, error) {
	var users []identity.Identity
	err := c.send(ctx, rest.Get, "/users/pending", nil, &users)
	return users, err
}

func (c *Client) ApprovedUsers(ctx context.Context) ([]identity.Identity, error) {
	var users []identity.Identity
	err := c.send(ctx, rest.Get, "/users/approved", nil, &users)
	return users, err
}

func (c *Client) SetUserStatus(ctx context.Context, id string, status identity.Status) error {
	sc := identity.StatusChange{Status: status}
	if err := sc.Validate(); err != nil {
		return err
	}
	return c.send(ctx, rest.Patch, "/users/"+url.PathEscape(id)+"/status", sc, nil)
}

// Courses & enrollment.

func (c *Client) FacultyCourses(ctx context.Context, facultyID string) ([]course.Course, error) {
	var courses []course.Course
	err := c.send(ctx, rest.Get, "/courses/faculty/"+url.PathEscape(facultyID), nil, &courses)
	return courses, err
}

func (c *Client) CreateCourse(ctx context.Context, nc course.NewCourse) (course.Course, error) {
	var res struct {
		Message string        `json:"message"`
		Course  course.Course `json:"course"`
	}
	if err := c.send(ctx, rest.Post, "/courses", nc, &res); err != nil {
		return course.Course{}, err
	}
	return res.Course, nil
}

func (c *Client) Course(ctx context.Context, id string) (course.Course, error) {
	var crs course.Course
	err := c.send(ctx, rest.Get, "/courses/"+url.PathEscape(id), nil, &crs)
	return crs, err
}

func (c *Client) PostAnnouncement(ctx context.Context, courseID string, na course.NewAnnouncement) (course.Announcement, error) {
	var res struct {
		Announcement course.Announcement `json:"announcement"`
	}
	if err := c.send(ctx, rest.Post, "/courses/"+url.PathEscape(courseID)+"/announcement", na, &res); err != nil {
		return course.Announcement{}, err
	}
	return res.Announcement, nil
}

func (c *Client) EnrolledCourses(ctx context.Context, studentID string) ([]course.Course, error) {
	var courses []course.Course
	err := c.send(ctx, rest.Get, "/students/"+url.PathEscape(studentID)+"/enrolled-courses", nil, &courses)
	return courses, err
}

func (c *Client) CourseStudents(ctx context.Context, facultyID, courseID string) ([]identity.Identity, error) {
	var students []identity.Identity
	path := "/faculty/" + url.PathEscape(facultyID) + "/courses/" + url.PathEscape(courseID) + "/students"
	err := c.send(ctx, rest.Get, path, nil, &students)
	return students, err
}
