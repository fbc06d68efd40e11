package nav

import (
	"sync"

	"github.com/learnspace/learnspace/core/access"
	"github.com/learnspace/learnspace/core/identity"
)

// State is the presenter's navigation state, a pure function of the
// current session.
type State string

const (
	StateAnonymous State = "anonymous"
	StateStudent   State = "student"
	StateFaculty   State = "faculty"

	// StateGeneric is the fall-through for authenticated roles without
	// dedicated menu entries (admin): only the generic dashboard link.
	StateGeneric State = "generic"
)

// Entry is one visible navigation menu item.
type Entry struct {
	Label string
	Path  string
}

// MenuFor builds the menu for the given session state. The mapping over
// Role is closed: adding a role is a compile-time concern here, not a
// runtime string comparison.
func MenuFor(ident identity.Identity, ok bool) (State, []Entry) {
	if !ok {
		return StateAnonymous, []Entry{{Label: "Sign In", Path: access.PathSignIn}}
	}

	switch ident.Role {
	case identity.RoleStudent:
		return StateStudent, []Entry{
			{Label: "Dashboard", Path: access.PathStudentDashboard},
			{Label: "Enrolled Courses", Path: access.PathEnrolledCourses},
		}
	case identity.RoleFaculty:
		return StateFaculty, []Entry{
			{Label: "Dashboard", Path: access.PathFacultyDashboard},
			{Label: "Create Course", Path: access.PathCreateCourse},
			{Label: "Manage Students", Path: access.PathManageStudents},
		}
	case identity.RoleAdmin:
		// no dedicated admin entries; the web navbar points every
		// non-faculty dashboard link at the student dashboard
		return StateGeneric, []Entry{
			{Label: "Dashboard", Path: access.PathStudentDashboard},
		}
	default:
		return StateGeneric, []Entry{
			{Label: "Dashboard", Path: access.PathStudentDashboard},
		}
	}
}

// SessionSource is what the presenter needs from the session store.
type SessionSource interface {
	Read() (identity.Identity, bool)
	Subscribe(fn func(event string)) (unsubscribe func())
}

// Presenter keeps a navigation menu in sync with the session store.
// Every change notification triggers a synchronous re-read and a total
// recompute: each notification yields exactly one state, never a partial
// menu.
type Presenter struct {
	source SessionSource

	mu      sync.Mutex
	state   State
	entries []Entry

	unsubscribe func()
}

func NewPresenter(source SessionSource) *Presenter {
	p := &Presenter{source: source}
	// subscribe before the initial read; a session change landing while the
	// presenter attaches either notifies or is picked up by the refresh below
	p.unsubscribe = source.Subscribe(func(string) { p.refresh() })
	p.refresh()
	return p
}

// Close detaches the presenter from the session store.
func (p *Presenter) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

func (p *Presenter) refresh() {
	state, entries := MenuFor(p.source.Read())

	p.mu.Lock()
	p.state = state
	p.entries = entries
	p.mu.Unlock()
}

func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Menu returns the currently visible entries.
func (p *Presenter) Menu() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]Entry, len(p.entries))
	copy(entries, p.entries)
	return entries
}

// Contains reports whether the menu currently links to path.
func (p *Presenter) Contains(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.Path == path {
			return true
		}
	}
	return false
}
