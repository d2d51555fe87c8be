// Package router decides which screens a session may reach.
package router

import (
	"github.com/vidyasetu/vidyasetu/internal/client/session"
	"github.com/vidyasetu/vidyasetu/internal/models"
)

// Route names a navigable screen.
type Route string

const (
	Login          Route = "Login"
	ForgotPassword Route = "ForgotPassword"

	AdminHome      Route = "AdminHome"
	CreateTeacher  Route = "CreateTeacher"
	TeacherList    Route = "TeacherList"
	TeacherDetails Route = "TeacherDetails"
	EditTeacher    Route = "EditTeacher"
	AdminProfile   Route = "AdminProfile"
	Broadcast      Route = "Broadcast"

	TeacherHome           Route = "TeacherHome"
	AddStudent            Route = "AddStudent"
	MyStudents            Route = "MyStudents"
	StudentDetail         Route = "StudentDetail"
	TeacherStudentProfile Route = "TeacherStudentProfile"
	TeacherProfile        Route = "TeacherProfile"
	MarkAttendance        Route = "MarkAttendance"
	AttendanceHistory     Route = "AttendanceHistory"
	CollectFee            Route = "CollectFee"
	FeesDashboard         Route = "FeesDashboard"
	ManageNotices         Route = "ManageNotices"
	ContactDeveloper      Route = "ContactDeveloper"
	GiveHomework          Route = "GiveHomework"
	HomeworkHistory       Route = "HomeworkHistory"
	TeacherBroadcast      Route = "TeacherBroadcast"

	StudentHome           Route = "StudentHome"
	MyProfile             Route = "MyProfile"
	MyAttendance          Route = "MyAttendance"
	MyHomework            Route = "MyHomework"
	MyFees                Route = "MyFees"
	MyTeachers            Route = "MyTeachers"
	StudentTeacherDetails Route = "StudentTeacherDetails"
	AllNotices            Route = "AllNotices"
)

var (
	anonymousRoutes = []Route{Login, ForgotPassword}

	adminRoutes = []Route{
		AdminHome, CreateTeacher, TeacherList, TeacherDetails,
		EditTeacher, AdminProfile, Broadcast,
	}

	teacherRoutes = []Route{
		TeacherHome, AddStudent, MyStudents, StudentDetail,
		TeacherStudentProfile, TeacherProfile, MarkAttendance,
		AttendanceHistory, CollectFee, FeesDashboard, ManageNotices,
		ContactDeveloper, GiveHomework, HomeworkHistory, TeacherBroadcast,
	}

	studentRoutes = []Route{
		StudentHome, MyProfile, MyAttendance, MyHomework,
		MyFees, MyTeachers, StudentTeacherDetails, AllNotices,
	}
)

// RouteSet is what the front end may render for a session.
type RouteSet struct {
	// Loading asks for a blocking indicator; Routes is empty.
	Loading bool
	// Routes lists reachable screens, home first.
	Routes []Route
}

// Contains reports whether r is reachable.
func (s RouteSet) Contains(r Route) bool {
	for _, x := range s.Routes {
		if x == r {
			return true
		}
	}
	return false
}

// Home returns the first reachable route, or "" when nothing is reachable.
func (s RouteSet) Home() Route {
	if len(s.Routes) == 0 {
		return ""
	}
	return s.Routes[0]
}

// Empty reports a set with nothing to render.
func (s RouteSet) Empty() bool {
	return !s.Loading && len(s.Routes) == 0
}

// Resolve maps a session to its route set. An authenticated user with an
// unknown role reaches nothing.
func Resolve(s session.Session) RouteSet {
	switch s.State {
	case session.Hydrating:
		return RouteSet{Loading: true}
	case session.Anonymous:
		return RouteSet{Routes: clone(anonymousRoutes)}
	case session.Authenticated:
		if s.User == nil {
			return RouteSet{}
		}
		return RouteSet{Routes: ForRole(s.User.Role)}
	}
	return RouteSet{}
}

// ForRole returns the routes of an authenticated role.
func ForRole(role models.Role) []Route {
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return clone(adminRoutes)
	case models.RoleTeacher:
		return clone(teacherRoutes)
	case models.RoleStudent:
		return clone(studentRoutes)
	}
	return nil
}

func clone(r []Route) []Route {
	out := make([]Route, len(r))
	copy(out, r)
	return out
}
