package echoweb

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/course"
	"github.com/gcl-lms/web/core/user"
)

type teacherHandlers struct {
	*server
}

func registerTeacherRoutes(g *echo.Group, s *server) {
	h := teacherHandlers{s}

	g.GET("/assignments/courses/manage", h.coursesHome)
	g.GET("/courses/manage", h.courses)
	g.GET("/courses/grades", h.grades)
	g.GET("/assignments", h.assignments)
}

func (h teacherHandlers) coursesHome(ctx echo.Context) error {
	return ctx.Redirect(http.StatusSeeOther, "/teacher/courses/manage")
}

// myCourses returns the teacher's courses with their units, topics and tasks.
func (h teacherHandlers) myCourses(ctx echo.Context) ([]course.Course, error) {
	usr, err := h.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	rctx := ctx.Request().Context()
	repo := h.api(ctx).Courses()

	crss, err := repo.QueryCourses(rctx, course.Filter{TeacherID: usr.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying teacher courses")
	}
	for i := range crss {
		full, err := repo.GetCourseContent(rctx, crss[i].ID)
		if err != nil {
			return nil, errors.Wrapf(err, "getting content of course %s", crss[i].ID)
		}
		crss[i].Units = full.Units
	}
	return crss, nil
}

func (h teacherHandlers) courses(ctx echo.Context) error {
	crss, err := h.myCourses(ctx)
	if err != nil {
		return err
	}
	p := h.newPage(ctx, "My courses")
	p.Data = crss
	return ctx.Render(http.StatusOK, "teacher_courses", p)
}

type courseRoster struct {
	Course   course.Course
	Students []user.User
}

func (h teacherHandlers) grades(ctx echo.Context) error {
	usr, err := h.currentUser(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	api := h.api(ctx)

	crss, err := api.Courses().QueryCourses(rctx, course.Filter{TeacherID: usr.ID})
	if err != nil {
		return errors.Wrap(err, "querying teacher courses")
	}
	enrs, err := api.Enrollments().QueryEnrollments(rctx, course.EnrollmentFilter{})
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	students, err := api.Users().QueryUsers(rctx, user.Filter{Role: user.RoleStudent})
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	byID := make(map[core.ID]user.User, len(students))
	for _, s := range students {
		byID[core.NormalizeID(s.ID.String())] = s
	}

	rosters := make([]courseRoster, 0, len(crss))
	for _, crs := range crss {
		roster := courseRoster{Course: crs}
		filter := course.EnrollmentFilter{CourseID: crs.ID}
		for _, enr := range enrs {
			if !filter.Match(enr) {
				continue
			}
			if s, ok := byID[core.NormalizeID(enr.UserID.String())]; ok {
				roster.Students = append(roster.Students, s)
			}
		}
		rosters = append(rosters, roster)
	}

	p := h.newPage(ctx, "Grades")
	p.Data = rosters
	return ctx.Render(http.StatusOK, "teacher_grades", p)
}

// assignment is a task with the names of where it belongs.
type assignment struct {
	Task   course.Task
	Course string
	Topic  string
}

func (h teacherHandlers) assignments(ctx echo.Context) error {
	crss, err := h.myCourses(ctx)
	if err != nil {
		return err
	}
	var list []assignment
	for _, crs := range crss {
		for _, u := range crs.Units {
			for _, t := range u.Topics {
				for _, task := range t.Tasks {
					list = append(list, assignment{Task: task, Course: crs.Name, Topic: t.Name})
				}
			}
		}
	}
	sortAssignments(list)

	p := h.newPage(ctx, "Assignments")
	p.Data = list
	return ctx.Render(http.StatusOK, "assignments", p)
}

// sortAssignments orders by due date, undated last.
func sortAssignments(list []assignment) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].Task.DueDate, list[j].Task.DueDate
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.Before(b.Time)
	})
}
