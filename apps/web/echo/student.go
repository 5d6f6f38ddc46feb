package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/course"
)

const studentCoursesPath = "/student/courses"

const msgNothingToReset = "There is no progress to reset in this course"

type studentHandlers struct {
	*server
}

func registerStudentRoutes(g *echo.Group, s *server) {
	h := studentHandlers{s}

	g.GET("/courses", h.courses)
	g.GET("/courses/:id", h.courseContent)
	g.POST("/courses/:id/tasks/:task/complete", h.completeTask)
	g.POST("/courses/:id/reset", h.resetProgress)
	g.GET("/assignments", h.assignments)
	g.GET("/passed-courses", h.passedCourses)
	g.GET("/more-courses", h.moreCourses)
	g.POST("/more-courses/:id/enroll", h.enroll)
}

// enrolledCourse is a course of the student with their progress in it.
type enrolledCourse struct {
	Course     course.Course
	Enrollment course.Enrollment
	Progress   course.Progress
}

func (h studentHandlers) enrolled(ctx echo.Context) ([]enrolledCourse, error) {
	usr, err := h.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	rctx := ctx.Request().Context()
	api := h.api(ctx)

	enrs, err := api.Enrollments().QueryEnrollments(rctx, course.EnrollmentFilter{UserID: usr.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	if len(enrs) == 0 {
		return nil, nil
	}
	ids := make([]core.ID, 0, len(enrs))
	for _, enr := range enrs {
		ids = append(ids, enr.CourseID)
	}
	crss, err := api.Courses().QueryCourses(rctx, course.Filter{IDs: ids})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrolled courses")
	}

	list := make([]enrolledCourse, 0, len(crss))
	for _, crs := range crss {
		ec := enrolledCourse{Course: crs}
		for _, enr := range enrs {
			if enr.CourseID.Equal(crs.ID) {
				ec.Enrollment = enr
				break
			}
		}
		if ec.Progress, err = api.Enrollments().GetProgress(rctx, crs.ID); err != nil {
			return nil, errors.Wrapf(err, "getting progress of course %s", crs.ID)
		}
		list = append(list, ec)
	}
	return list, nil
}

func (h studentHandlers) courses(ctx echo.Context) error {
	list, err := h.enrolled(ctx)
	if err != nil {
		return err
	}
	p := h.newPage(ctx, "My courses")
	p.Data = list
	return ctx.Render(http.StatusOK, "student_courses", p)
}

func (h studentHandlers) passedCourses(ctx echo.Context) error {
	list, err := h.enrolled(ctx)
	if err != nil {
		return err
	}
	passed := make([]enrolledCourse, 0, len(list))
	for _, ec := range list {
		if ec.Progress.Done() {
			passed = append(passed, ec)
		}
	}
	p := h.newPage(ctx, "Completed courses")
	p.Data = passed
	return ctx.Render(http.StatusOK, "student_courses", p)
}

type courseContentData struct {
	Course   course.Course
	Progress course.Progress
	Done     map[core.ID]bool
}

func (h studentHandlers) courseContent(ctx echo.Context) error {
	id := pathID(ctx, "id")
	rctx := ctx.Request().Context()
	api := h.api(ctx)

	crs, err := api.Courses().GetCourseContent(rctx, id)
	if err != nil {
		return h.notFoundOr(err, course.ErrNotFound, "getting course content")
	}
	progress, err := api.Enrollments().GetProgress(rctx, id)
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}

	p := h.newPage(ctx, crs.Name)
	p.Data = courseContentData{Course: crs, Progress: progress, Done: progress.CompletedTasks()}
	return ctx.Render(http.StatusOK, "student_course", p)
}

func (h studentHandlers) completeTask(ctx echo.Context) error {
	id := pathID(ctx, "id")
	if err := h.api(ctx).Enrollments().CompleteTask(ctx.Request().Context(), id, pathID(ctx, "task")); err != nil {
		return errors.Wrap(err, "completing task")
	}
	setFlash(ctx, flashSuccess, "Task marked as completed")
	return ctx.Redirect(http.StatusSeeOther, studentCoursesPath+"/"+id.String())
}

// resetProgress clears the student's progress in a course. Nothing is sent when there is none.
func (h studentHandlers) resetProgress(ctx echo.Context) error {
	id := pathID(ctx, "id")
	back := studentCoursesPath + "/" + id.String()
	rctx := ctx.Request().Context()
	api := h.api(ctx)

	progress, err := api.Enrollments().GetProgress(rctx, id)
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	if !progress.Started() {
		setFlash(ctx, flashInfo, msgNothingToReset)
		return ctx.Redirect(http.StatusSeeOther, back)
	}

	enrID := progress.EnrollmentID
	if enrID.IsZero() {
		usr, err := h.currentUser(ctx)
		if err != nil {
			return err
		}
		enrs, err := api.Enrollments().QueryEnrollments(rctx, course.EnrollmentFilter{UserID: usr.ID, CourseID: id})
		if err != nil {
			return errors.Wrap(err, "querying enrollments")
		}
		if len(enrs) == 0 {
			return echo.ErrNotFound
		}
		enrID = enrs[0].ID
	}
	if err = api.Enrollments().ResetProgress(rctx, enrID); err != nil {
		return errors.Wrap(err, "resetting progress")
	}
	setFlash(ctx, flashSuccess, "Your progress was reset")
	return ctx.Redirect(http.StatusSeeOther, back)
}

func (h studentHandlers) assignments(ctx echo.Context) error {
	list, err := h.enrolled(ctx)
	if err != nil {
		return err
	}
	var pending []assignment
	for _, ec := range list {
		topics := make(map[core.ID]string)
		for _, u := range ec.Progress.Units {
			for _, t := range u.Topics {
				topics[t.ID] = t.Name
			}
		}
		for _, task := range ec.Progress.PendingTasks() {
			pending = append(pending, assignment{Task: task, Course: ec.Course.Name, Topic: topics[task.TopicID]})
		}
	}
	sortAssignments(pending)

	p := h.newPage(ctx, "Pending assignments")
	p.Data = pending
	return ctx.Render(http.StatusOK, "assignments", p)
}

func (h studentHandlers) moreCourses(ctx echo.Context) error {
	usr, err := h.currentUser(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()
	api := h.api(ctx)

	enrs, err := api.Enrollments().QueryEnrollments(rctx, course.EnrollmentFilter{UserID: usr.ID})
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	crss, err := api.Courses().QueryCourses(rctx, course.Filter{ActiveOnly: true})
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}

	available := make([]course.Course, 0, len(crss))
	for _, crs := range crss {
		filter := course.EnrollmentFilter{CourseID: crs.ID}
		var taken bool
		for _, enr := range enrs {
			if filter.Match(enr) {
				taken = true
				break
			}
		}
		if !taken {
			available = append(available, crs)
		}
	}

	p := h.newPage(ctx, "More courses")
	p.Data = available
	return ctx.Render(http.StatusOK, "student_more", p)
}

func (h studentHandlers) enroll(ctx echo.Context) error {
	usr, err := h.currentUser(ctx)
	if err != nil {
		return err
	}
	if _, err = h.api(ctx).Enrollments().Enroll(ctx.Request().Context(), usr.ID, pathID(ctx, "id")); err != nil {
		return errors.Wrap(err, "enrolling")
	}
	setFlash(ctx, flashSuccess, "You are now enrolled in the course")
	return ctx.Redirect(http.StatusSeeOther, studentCoursesPath)
}
