package course

import (
	"time"

	"github.com/learnspace/learnspace/core"
)

// Course is a course record as returned by the backend.
type Course struct {
	ID             string         `json:"_id"`
	Title          string         `json:"title"`
	CourseCode     string         `json:"courseCode"`
	Description    string         `json:"description"`
	FacultyID      string         `json:"facultyId"`
	InstructorName string         `json:"instructorName,omitempty"`
	Announcements  []Announcement `json:"announcements,omitempty"`
}

type Announcement struct {
	ID        string    `json:"_id,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// NewCourse contains information needed to create a course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	CourseCode  string `json:"courseCode" validate:"required"`
	Description string `json:"description"`
	FacultyID   string `json:"facultyId" validate:"required"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.CourseCode = core.CleanString(nc.CourseCode)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// NewAnnouncement is the payload for posting a course announcement.
type NewAnnouncement struct {
	Text string `json:"text" validate:"required"`
}

func (na *NewAnnouncement) Validate() error {
	na.Text = core.CleanString(na.Text)
	return core.Validate.Struct(na)
}
