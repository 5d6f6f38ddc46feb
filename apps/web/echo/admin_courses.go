package echoweb

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/course"
	"github.com/gcl-lms/web/core/user"
)

const (
	coursesPath = "/admin/manage/courses"
	unitsPath   = coursesPath + "/units"
	topicsPath  = coursesPath + "/topics"
	tasksPath   = coursesPath + "/tasks"
)

func registerAdminCourseRoutes(g *echo.Group, h adminHandlers) {
	cg := g.Group("/manage/courses")
	cg.GET("", h.courseQuery)
	cg.GET("/new", h.courseNew)
	cg.POST("", h.courseCreate)
	cg.GET("/:id/edit", h.courseEdit)
	cg.POST("/:id", h.courseUpdate)
	cg.POST("/:id/delete", h.courseDelete)

	cg.GET("/units", h.unitQuery)
	cg.GET("/units/new", h.unitNew)
	cg.POST("/units", h.unitCreate)
	cg.GET("/units/:id/edit", h.unitEdit)
	cg.POST("/units/:id", h.unitUpdate)
	cg.POST("/units/:id/delete", h.unitDelete)

	cg.GET("/topics", h.topicQuery)
	cg.GET("/topics/new", h.topicNew)
	cg.POST("/topics", h.topicCreate)
	cg.GET("/topics/:id/edit", h.topicEdit)
	cg.POST("/topics/:id", h.topicUpdate)
	cg.POST("/topics/:id/delete", h.topicDelete)

	cg.GET("/tasks", h.taskQuery)
	cg.GET("/tasks/new", h.taskNew)
	cg.POST("/tasks", h.taskCreate)
	cg.GET("/tasks/:id/edit", h.taskEdit)
	cg.POST("/tasks/:id", h.taskUpdate)
	cg.POST("/tasks/:id/delete", h.taskDelete)
}

// option is an entry of a form's select box.
type option struct {
	ID    core.ID
	Label string
}

type resourceData struct {
	Action  string
	Edit    bool
	Parent  core.ID  // the selected parent in lists
	Options []option // the possible parents
	Items   interface{}
	Names   map[core.ID]string // display names of the parents
}

func withParent(path, param string, id core.ID) string {
	if id.IsZero() {
		return path
	}
	return path + "?" + url.Values{param: {id.String()}}.Encode()
}

func (h adminHandlers) renderResource(ctx echo.Context, code int, tmpl, title string, form interface{}, flds map[string]string, data resourceData) error {
	p := h.newPage(ctx, title)
	p.Form = form
	p.Errors = flds
	p.Data = data
	return ctx.Render(code, tmpl, p)
}

// Courses

func (h adminHandlers) teacherOptions(ctx echo.Context) ([]option, error) {
	teachers, err := h.api(ctx).Users().QueryUsers(ctx.Request().Context(), user.Filter{Role: user.RoleTeacher})
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	opts := make([]option, 0, len(teachers))
	for _, t := range teachers {
		opts = append(opts, option{ID: t.ID, Label: t.Name})
	}
	return opts, nil
}

func optionNames(opts []option) map[core.ID]string {
	names := make(map[core.ID]string, len(opts))
	for _, o := range opts {
		names[core.NormalizeID(o.ID.String())] = o.Label
	}
	return names
}

func (h adminHandlers) courseQuery(ctx echo.Context) error {
	filter := course.Filter{Search: ctx.QueryParam("q")}
	crss, err := h.api(ctx).Courses().QueryCourses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	opts, err := h.teacherOptions(ctx)
	if err != nil {
		return err
	}
	return h.renderResource(ctx, http.StatusOK, "courses", "Courses", filter, nil,
		resourceData{Items: crss, Names: optionNames(opts)})
}

func (h adminHandlers) courseNew(ctx echo.Context) error {
	opts, err := h.teacherOptions(ctx)
	if err != nil {
		return err
	}
	return h.renderResource(ctx, http.StatusOK, "course_form", "New course", course.CourseForm{Active: true}, nil,
		resourceData{Action: coursesPath, Options: opts})
}

func (h adminHandlers) courseCreate(ctx echo.Context) error {
	var form course.CourseForm
	err := bind(ctx, &form)
	if err == nil {
		err = form.Validate(h.Validate)
	}
	if err == nil {
		_, err = h.api(ctx).Courses().CreateCourse(ctx.Request().Context(), form)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Course created")
		return ctx.Redirect(http.StatusSeeOther, coursesPath)
	}
	return h.courseFormFailed(ctx, err, form, resourceData{Action: coursesPath}, "creating course")
}

func (h adminHandlers) courseEdit(ctx echo.Context) error {
	id := pathID(ctx, "id")
	crs, err := h.api(ctx).Courses().GetCourse(ctx.Request().Context(), id)
	if err != nil {
		return h.notFoundOr(err, course.ErrNotFound, "getting course")
	}
	opts, err := h.teacherOptions(ctx)
	if err != nil {
		return err
	}
	var form course.CourseForm
	form.FromCourse(crs)
	return h.renderResource(ctx, http.StatusOK, "course_form", "Edit course", form, nil,
		resourceData{Action: coursesPath + "/" + id.String(), Edit: true, Options: opts})
}

func (h adminHandlers) courseUpdate(ctx echo.Context) error {
	id := pathID(ctx, "id")
	var form course.CourseForm
	err := bind(ctx, &form)
	if err == nil {
		err = form.Validate(h.Validate)
	}
	if err == nil {
		err = h.api(ctx).Courses().UpdateCourse(ctx.Request().Context(), id, form)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Course updated")
		return ctx.Redirect(http.StatusSeeOther, coursesPath)
	}
	return h.courseFormFailed(ctx, err, form, resourceData{Action: coursesPath + "/" + id.String(), Edit: true}, "updating course")
}

func (h adminHandlers) courseFormFailed(ctx echo.Context, err error, form course.CourseForm, data resourceData, msg string) error {
	flds, ok := h.formErrors(err)
	if !ok {
		return errors.Wrap(err, msg)
	}
	if data.Options, err = h.teacherOptions(ctx); err != nil {
		return err
	}
	title := "New course"
	if data.Edit {
		title = "Edit course"
	}
	return h.renderResource(ctx, http.StatusBadRequest, "course_form", title, form, flds, data)
}

func (h adminHandlers) courseDelete(ctx echo.Context) error {
	if err := h.api(ctx).Courses().DeleteCourse(ctx.Request().Context(), pathID(ctx, "id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	setFlash(ctx, flashSuccess, "Course deleted")
	return ctx.Redirect(http.StatusSeeOther, coursesPath)
}

// Units

func (h adminHandlers) courseOptions(ctx echo.Context) ([]option, error) {
	crss, err := h.api(ctx).Courses().QueryCourses(ctx.Request().Context(), course.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	opts := make([]option, 0, len(crss))
	for _, c := range crss {
		opts = append(opts, option{ID: c.ID, Label: c.Name})
	}
	return opts, nil
}

func (h adminHandlers) unitQuery(ctx echo.Context) error {
	filter := course.UnitFilter{CourseID: queryID(ctx, "curso")}
	units, err := h.api(ctx).Units().QueryUnits(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying units")
	}
	opts, err := h.courseOptions(ctx)
	if err != nil {
		return err
	}
	return h.renderResource(ctx, http.StatusOK, "units", "Units", nil, nil,
		resourceData{Parent: filter.CourseID, Options: opts, Items: units, Names: optionNames(opts)})
}

func (h adminHandlers) unitNew(ctx echo.Context) error {
	opts, err := h.courseOptions(ctx)
	if err != nil {
		return err
	}
	form := course.UnitForm{CourseID: queryID(ctx, "curso")}
	return h.renderResource(ctx, http.StatusOK, "unit_form", "New unit", form, nil,
		resourceData{Action: unitsPath, Options: opts})
}

func (h adminHandlers) unitCreate(ctx echo.Context) error {
	var form course.UnitForm
	err := bind(ctx, &form)
	if err == nil {
		err = form.Validate(h.Validate)
	}
	if err == nil {
		_, err = h.api(ctx).Units().CreateUnit(ctx.Request().Context(), form)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Unit created")
		return ctx.Redirect(http.StatusSeeOther, withParent(unitsPath, "curso", form.CourseID))
	}
	return h.unitFormFailed(ctx, err, form, resourceData{Action: unitsPath}, "creating unit")
}

func (h adminHandlers) unitEdit(ctx echo.Context) error {
	id := pathID(ctx, "id")
	unit, err := h.api(ctx).Units().GetUnit(ctx.Request().Context(), id)
	if err != nil {
		return h.notFoundOr(err, course.ErrNotFound, "getting unit")
	}
	opts, err := h.courseOptions(ctx)
	if err != nil {
		return err
	}
	form := course.UnitForm{Name: unit.Name, CourseID: unit.CourseID, Order: unit.Order}
	return h.renderResource(ctx, http.StatusOK, "unit_form", "Edit unit", form, nil,
		resourceData{Action: unitsPath + "/" + id.String(), Edit: true, Options: opts})
}

func (h adminHandlers) unitUpdate(ctx echo.Context) error {
	id := pathID(ctx, "id")
	var form course.UnitForm
	err := bind(ctx, &form)
	if err == nil {
		err = form.Validate(h.Validate)
	}
	if err == nil {
		err = h.api(ctx).Units().UpdateUnit(ctx.Request().Context(), id, form)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Unit updated")
		return ctx.Redirect(http.StatusSeeOther, withParent(unitsPath, "curso", form.CourseID))
	}
	return h.unitFormFailed(ctx, err, form, resourceData{Action: unitsPath + "/" + id.String(), Edit: true}, "updating unit")
}

func (h adminHandlers) unitFormFailed(ctx echo.Context, err error, form course.UnitForm, data resourceData, msg string) error {
	flds, ok := h.formErrors(err)
	if !ok {
		return errors.Wrap(err, msg)
	}
	if data.Options, err = h.courseOptions(ctx); err != nil {
		return err
	}
	title := "New unit"
	if data.Edit {
		title = "Edit unit"
	}
	return h.renderResource(ctx, http.StatusBadRequest, "unit_form", title, form, flds, data)
}

func (h adminHandlers) unitDelete(ctx echo.Context) error {
	if err := h.api(ctx).Units().DeleteUnit(ctx.Request().Context(), pathID(ctx, "id")); err != nil {
		return errors.Wrap(err, "deleting unit")
	}
	setFlash(ctx, flashSuccess, "Unit deleted")
	return ctx.Redirect(http.StatusSeeOther, withParent(unitsPath, "curso", queryID(ctx, "curso")))
}

// Topics

func (h adminHandlers) unitOptions(ctx echo.Context) ([]option, error) {
	units, err := h.api(ctx).Units().QueryUnits(ctx.Request().Context(), course.UnitFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "querying units")
	}
	opts := make([]option, 0, len(units))
	for _, u := range units {
		opts = append(opts, option{ID: u.ID, Label: u.Name})
	}
	return opts, nil
}

func (h adminHandlers) topicQuery(ctx echo.Context) error {
	filter := course.TopicFilter{UnitID: queryID(ctx, "unidad")}
	topics, err := h.api(ctx).Topics().QueryTopics(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying topics")
	}
	opts, err := h.unitOptions(ctx)
	if err != nil {
		return err
	}
	return h.renderResource(ctx, http.StatusOK, "topics", "Topics", nil, nil,
		resourceData{Parent: filter.UnitID, Options: opts, Items: topics, Names: optionNames(opts)})
}

func (h adminHandlers) topicNew(ctx echo.Context) error {
	opts, err := h.unitOptions(ctx)
	if err != nil {
		return err
	}
	form := course.TopicForm{UnitID: queryID(ctx, "unidad")}
	return h.renderResource(ctx, http.StatusOK, "topic_form", "New topic", form, nil,
		resourceData{Action: topicsPath, Options: opts})
}

func (h adminHandlers) topicCreate(ctx echo.Context) error {
	var form course.TopicForm
	err := bind(ctx, &form)
	if err == nil {
		err = form.Validate(h.Validate)
	}
	if err == nil {
		_, err = h.api(ctx).Topics().CreateTopic(ctx.Request().Context(), form)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Topic created")
		return ctx.Redirect(http.StatusSeeOther, withParent(topicsPath, "unidad", form.UnitID))
	}
	return h.topicFormFailed(ctx, err, form, resourceData{Action: topicsPath}, "creating topic")
}

func (h adminHandlers) topicEdit(ctx echo.Context) error {
	id := pathID(ctx, "id")
	topic, err := h.api(ctx).Topics().GetTopic(ctx.Request().Context(), id)
	if err != nil {
		return h.notFoundOr(err, course.ErrNotFound, "getting topic")
	}
	opts, err := h.unitOptions(ctx)
	if err != nil {
		return err
	}
	form := course.TopicForm{Name: topic.Name, UnitID: topic.UnitID, Description: topic.Description, Order: topic.Order}
	return h.renderResource(ctx, http.StatusOK, "topic_form", "Edit topic", form, nil,
		resourceData{Action: topicsPath + "/" + id.String(), Edit: true, Options: opts})
}

func (h adminHandlers) topicUpdate(ctx echo.Context) error {
	id := pathID(ctx, "id")
	var form course.TopicForm
	err := bind(ctx, &form)
	if err == nil {
		err = form.Validate(h.Validate)
	}
	if err == nil {
		err = h.api(ctx).Topics().UpdateTopic(ctx.Request().Context(), id, form)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Topic updated")
		return ctx.Redirect(http.StatusSeeOther, withParent(topicsPath, "unidad", form.UnitID))
	}
	return h.topicFormFailed(ctx, err, form, resourceData{Action: topicsPath + "/" + id.String(), Edit: true}, "updating topic")
}

func (h adminHandlers) topicFormFailed(ctx echo.Context, err error, form course.TopicForm, data resourceData, msg string) error {
	flds, ok := h.formErrors(err)
	if !ok {
		return errors.Wrap(err, msg)
	}
	if data.Options, err = h.unitOptions(ctx); err != nil {
		return err
	}
	title := "New topic"
	if data.Edit {
		title = "Edit topic"
	}
	return h.renderResource(ctx, http.StatusBadRequest, "topic_form", title, form, flds, data)
}

func (h adminHandlers) topicDelete(ctx echo.Context) error {
	if err := h.api(ctx).Topics().DeleteTopic(ctx.Request().Context(), pathID(ctx, "id")); err != nil {
		return errors.Wrap(err, "deleting topic")
	}
	setFlash(ctx, flashSuccess, "Topic deleted")
	return ctx.Redirect(http.StatusSeeOther, withParent(topicsPath, "unidad", queryID(ctx, "unidad")))
}

// Tasks

func (h adminHandlers) topicOptions(ctx echo.Context) ([]option, error) {
	topics, err := h.api(ctx).Topics().QueryTopics(ctx.Request().Context(), course.TopicFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "querying topics")
	}
	opts := make([]option, 0, len(topics))
	for _, t := range topics {
		opts = append(opts, option{ID: t.ID, Label: t.Name})
	}
	return opts, nil
}

func (h adminHandlers) taskQuery(ctx echo.Context) error {
	filter := course.TaskFilter{TopicID: queryID(ctx, "tema")}
	tasks, err := h.api(ctx).Tasks().QueryTasks(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	opts, err := h.topicOptions(ctx)
	if err != nil {
		return err
	}
	return h.renderResource(ctx, http.StatusOK, "tasks", "Tasks", nil, nil,
		resourceData{Parent: filter.TopicID, Options: opts, Items: tasks, Names: optionNames(opts)})
}

func (h adminHandlers) taskNew(ctx echo.Context) error {
	opts, err := h.topicOptions(ctx)
	if err != nil {
		return err
	}
	form := course.TaskForm{TopicID: queryID(ctx, "tema")}
	return h.renderResource(ctx, http.StatusOK, "task_form", "New task", form, nil,
		resourceData{Action: tasksPath, Options: opts})
}

func (h adminHandlers) taskCreate(ctx echo.Context) error {
	var form course.TaskForm
	err := bind(ctx, &form)
	if err == nil {
		err = form.Validate(h.Validate)
	}
	if err == nil {
		_, err = h.api(ctx).Tasks().CreateTask(ctx.Request().Context(), form)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Task created")
		return ctx.Redirect(http.StatusSeeOther, withParent(tasksPath, "tema", form.TopicID))
	}
	return h.taskFormFailed(ctx, err, form, resourceData{Action: tasksPath}, "creating task")
}

func (h adminHandlers) taskEdit(ctx echo.Context) error {
	id := pathID(ctx, "id")
	task, err := h.api(ctx).Tasks().GetTask(ctx.Request().Context(), id)
	if err != nil {
		return h.notFoundOr(err, course.ErrNotFound, "getting task")
	}
	opts, err := h.topicOptions(ctx)
	if err != nil {
		return err
	}
	form := course.TaskForm{Title: task.Title, Description: task.Description, DueDate: task.DueDate, TopicID: task.TopicID}
	return h.renderResource(ctx, http.StatusOK, "task_form", "Edit task", form, nil,
		resourceData{Action: tasksPath + "/" + id.String(), Edit: true, Options: opts})
}

func (h adminHandlers) taskUpdate(ctx echo.Context) error {
	id := pathID(ctx, "id")
	var form course.TaskForm
	err := bind(ctx, &form)
	if err == nil {
		err = form.Validate(h.Validate)
	}
	if err == nil {
		err = h.api(ctx).Tasks().UpdateTask(ctx.Request().Context(), id, form)
	}
	if err == nil {
		setFlash(ctx, flashSuccess, "Task updated")
		return ctx.Redirect(http.StatusSeeOther, withParent(tasksPath, "tema", form.TopicID))
	}
	return h.taskFormFailed(ctx, err, form, resourceData{Action: tasksPath + "/" + id.String(), Edit: true}, "updating task")
}

func (h adminHandlers) taskFormFailed(ctx echo.Context, err error, form course.TaskForm, data resourceData, msg string) error {
	flds, ok := h.formErrors(err)
	if !ok {
		return errors.Wrap(err, msg)
	}
	if data.Options, err = h.topicOptions(ctx); err != nil {
		return err
	}
	title := "New task"
	if data.Edit {
		title = "Edit task"
	}
	return h.renderResource(ctx, http.StatusBadRequest, "task_form", title, form, flds, data)
}

func (h adminHandlers) taskDelete(ctx echo.Context) error {
	if err := h.api(ctx).Tasks().DeleteTask(ctx.Request().Context(), pathID(ctx, "id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	setFlash(ctx, flashSuccess, "Task deleted")
	return ctx.Redirect(http.StatusSeeOther, withParent(tasksPath, "tema", queryID(ctx, "tema")))
}
