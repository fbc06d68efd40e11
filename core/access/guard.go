package access

import (
	"strings"

	"github.com/learnspace/learnspace/core/identity"
)

// Application paths.
const (
	PathWelcome              = "/"
	PathSignIn               = "/signin"
	PathSignUp               = "/signup"
	PathHome                 = "/home"
	PathStudentDashboard     = "/student/dashboard"
	PathEnrolledCourses      = "/student/enrolled-courses"
	PathCourseView           = "/course/:courseId"
	PathFacultyDashboard     = "/faculty/dashboard"
	PathCreateCourse         = "/create-course"
	PathManageStudents       = "/manage-students"
	PathFacultyCourseDetails = "/faculty/courses/:courseId"
	PathAdminDashboard       = "/admin/dashboard"
)

// SessionReader is the read-only slice of the session store the guard needs.
type SessionReader interface {
	Read() (identity.Identity, bool)
}

// Decision is the outcome of a guard evaluation: render the view, or
// redirect. It is a plain value so callers decide how to act on it.
type Decision struct {
	Allowed  bool
	Redirect string // target path when not allowed
}

func Allow() Decision { return Decision{Allowed: true} }

func RedirectTo(path string) Decision { return Decision{Redirect: path} }

// Guard gates a protected view on the current session and an allow-list of
// roles. An empty allow-list admits any authenticated identity. Guard is
// pure and total: it never errors and has no side effects beyond the read,
// so it is safe to re-evaluate on every navigation.
//
// An identity with the wrong role redirects to sign-in exactly like a
// missing session; unauthenticated and unauthorized are deliberately
// indistinguishable here.
func Guard(sess SessionReader, allowedRoles ...identity.Role) Decision {
	ident, ok := sess.Read()
	if !ok {
		return RedirectTo(PathSignIn)
	}
	if len(allowedRoles) == 0 {
		return Allow()
	}
	for _, role := range allowedRoles {
		if ident.Role == role {
			return Allow()
		}
	}
	return RedirectTo(PathSignIn)
}

type (
	// Route declares a path and, when protected, the roles admitted to it.
	Route struct {
		Path         string
		Protected    bool
		AllowedRoles []identity.Role
	}

	// Routes resolves concrete paths against the declared route table.
	Routes struct {
		routes []Route
	}
)

// DefaultRoutes returns the application's route table.
func DefaultRoutes() *Routes {
	student := []identity.Role{identity.RoleStudent}
	faculty := []identity.Role{identity.RoleFaculty}
	admin := []identity.Role{identity.RoleAdmin}

	return &Routes{routes: []Route{
		{Path: PathWelcome},
		{Path: PathSignUp},
		{Path: PathSignIn},
		{Path: PathHome},

		// student
		{Path: PathStudentDashboard, Protected: true, AllowedRoles: student},
		{Path: PathEnrolledCourses, Protected: true, AllowedRoles: student},
		{Path: PathCourseView, Protected: true, AllowedRoles: student},

		// faculty
		{Path: PathFacultyDashboard, Protected: true, AllowedRoles: faculty},
		{Path: PathCreateCourse, Protected: true, AllowedRoles: faculty},
		{Path: PathManageStudents, Protected: true, AllowedRoles: faculty},
		{Path: PathFacultyCourseDetails, Protected: true, AllowedRoles: faculty},

		// admin
		{Path: PathAdminDashboard, Protected: true, AllowedRoles: admin},
	}}
}

// Resolve evaluates the guard for path against the current session.
// Public and unregistered paths are allowed; access control only applies
// to declared protected routes.
func (rt *Routes) Resolve(sess SessionReader, path string) Decision {
	for _, route := range rt.routes {
		if !matchPath(route.Path, path) {
			continue
		}
		if !route.Protected {
			return Allow()
		}
		return Guard(sess, route.AllowedRoles...)
	}
	return Allow()
}

// matchPath matches a declared pattern against a concrete path;
// ":param" segments match any single non-empty segment.
func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	pSegs := strings.Split(strings.Trim(pattern, "/"), "/")
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(pSegs) != len(segs) {
		return false
	}
	for i, pSeg := range pSegs {
		if strings.HasPrefix(pSeg, ":") {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if pSeg != segs[i] {
			return false
		}
	}
	return true
}
