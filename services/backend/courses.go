package backendapi

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/course"
)

type (
	courseRepository struct{ c *Client }
	unitRepository   struct{ c *Client }
	topicRepository  struct{ c *Client }
	taskRepository   struct{ c *Client }
)

var (
	_ course.Repository      = (*courseRepository)(nil)
	_ course.UnitRepository  = (*unitRepository)(nil)
	_ course.TopicRepository = (*topicRepository)(nil)
	_ course.TaskRepository  = (*taskRepository)(nil)
)

func (c *Client) Courses() course.Repository     { return &courseRepository{c: c} }
func (c *Client) Units() course.UnitRepository   { return &unitRepository{c: c} }
func (c *Client) Topics() course.TopicRepository { return &topicRepository{c: c} }
func (c *Client) Tasks() course.TaskRepository   { return &taskRepository{c: c} }

func filterList[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

func idPath(prefix, action string, id core.ID) string {
	return core.JoinPath(prefix, action, id.String())
}

// Courses

func (r *courseRepository) QueryCourses(ctx context.Context, filter course.Filter) ([]course.Course, error) {
	path := "cursos/listar_cursos/"
	if !filter.TeacherID.IsZero() {
		path = idPath("cursos", "profesor", filter.TeacherID)
	}
	var all []course.Course
	if err := r.c.do(ctx, rest.Get, path, nil, &all); err != nil {
		return nil, err
	}
	return filterList(all, filter.Match), nil
}

func (r *courseRepository) GetCourse(ctx context.Context, id core.ID) (course.Course, error) {
	var crs course.Course
	err := r.c.do(ctx, rest.Get, idPath("cursos", "obtener_curso", id), nil, &crs)
	if errors.Is(err, ErrNotFound) {
		return course.Course{}, course.ErrNotFound
	}
	return crs, err
}

func (r *courseRepository) GetCourseContent(ctx context.Context, id core.ID) (course.Course, error) {
	var crs course.Course
	err := r.c.do(ctx, rest.Get, idPath("cursos", "detalle-completo", id), nil, &crs)
	if errors.Is(err, ErrNotFound) {
		return course.Course{}, course.ErrNotFound
	}
	course.SortUnits(crs.Units)
	return crs, err
}

func (r *courseRepository) CreateCourse(ctx context.Context, form course.CourseForm) (core.ID, error) {
	var res created
	err := r.c.do(ctx, rest.Post, "cursos/registrar_curso/", form, &res)
	return res.ID, err
}

func (r *courseRepository) UpdateCourse(ctx context.Context, id core.ID, form course.CourseForm) error {
	return r.c.do(ctx, rest.Put, idPath("cursos", "actualizar_curso", id), form, nil)
}

func (r *courseRepository) DeleteCourse(ctx context.Context, id core.ID) error {
	return r.c.do(ctx, rest.Delete, idPath("cursos", "eliminar_curso", id), nil, nil)
}

// Units

func (r *unitRepository) QueryUnits(ctx context.Context, filter course.UnitFilter) ([]course.Unit, error) {
	var all []course.Unit
	if err := r.c.do(ctx, rest.Get, "unidades/", nil, &all); err != nil {
		return nil, err
	}
	units := filterList(all, filter.Match)
	course.SortUnits(units)
	return units, nil
}

func (r *unitRepository) GetUnit(ctx context.Context, id core.ID) (course.Unit, error) {
	var unit course.Unit
	err := r.c.do(ctx, rest.Get, idPath("unidades", "obtener", id), nil, &unit)
	if errors.Is(err, ErrNotFound) {
		return course.Unit{}, course.ErrNotFound
	}
	return unit, err
}

func (r *unitRepository) CreateUnit(ctx context.Context, form course.UnitForm) (core.ID, error) {
	var res created
	err := r.c.do(ctx, rest.Post, "unidades/registrar/", form, &res)
	return res.ID, err
}

func (r *unitRepository) UpdateUnit(ctx context.Context, id core.ID, form course.UnitForm) error {
	return r.c.do(ctx, rest.Put, idPath("unidades", "actualizar", id), form, nil)
}

func (r *unitRepository) DeleteUnit(ctx context.Context, id core.ID) error {
	return r.c.do(ctx, rest.Delete, idPath("unidades", "eliminar", id), nil, nil)
}

// Topics

func (r *topicRepository) QueryTopics(ctx context.Context, filter course.TopicFilter) ([]course.Topic, error) {
	path := "temas/"
	if !filter.UnitID.IsZero() {
		path = idPath("temas", "unidad", filter.UnitID)
	}
	var all []course.Topic
	if err := r.c.do(ctx, rest.Get, path, nil, &all); err != nil {
		return nil, err
	}
	return filterList(all, filter.Match), nil
}

func (r *topicRepository) GetTopic(ctx context.Context, id core.ID) (course.Topic, error) {
	var topic course.Topic
	err := r.c.do(ctx, rest.Get, idPath("temas", "obtener", id), nil, &topic)
	if errors.Is(err, ErrNotFound) {
		return course.Topic{}, course.ErrNotFound
	}
	return topic, err
}

func (r *topicRepository) CreateTopic(ctx context.Context, form course.TopicForm) (core.ID, error) {
	var res created
	err := r.c.do(ctx, rest.Post, "temas/registrar/", form, &res)
	return res.ID, err
}

func (r *topicRepository) UpdateTopic(ctx context.Context, id core.ID, form course.TopicForm) error {
	return r.c.do(ctx, rest.Put, idPath("temas", "actualizar", id), form, nil)
}

func (r *topicRepository) DeleteTopic(ctx context.Context, id core.ID) error {
	return r.c.do(ctx, rest.Delete, idPath("temas", "eliminar", id), nil, nil)
}

// Tasks

func (r *taskRepository) QueryTasks(ctx context.Context, filter course.TaskFilter) ([]course.Task, error) {
	path := "tareas/"
	if !filter.TopicID.IsZero() {
		path = idPath("tareas", "tema", filter.TopicID)
	}
	var all []course.Task
	if err := r.c.do(ctx, rest.Get, path, nil, &all); err != nil {
		return nil, err
	}
	return filterList(all, filter.Match), nil
}

func (r *taskRepository) GetTask(ctx context.Context, id core.ID) (course.Task, error) {
	var task course.Task
	err := r.c.do(ctx, rest.Get, idPath("tareas", "obtener", id), nil, &task)
	if errors.Is(err, ErrNotFound) {
		return course.Task{}, course.ErrNotFound
	}
	return task, err
}

func (r *taskRepository) CreateTask(ctx context.Context, form course.TaskForm) (core.ID, error) {
	var res created
	err := r.c.do(ctx, rest.Post, "tareas/registrar/", form, &res)
	return res.ID, err
}

func (r *taskRepository) UpdateTask(ctx context.Context, id core.ID, form course.TaskForm) error {
	return r.c.do(ctx, rest.Put, idPath("tareas", "actualizar", id), form, nil)
}

func (r *taskRepository) DeleteTask(ctx context.Context, id core.ID) error {
	return r.c.do(ctx, rest.Delete, idPath("tareas", "eliminar", id), nil, nil)
}
