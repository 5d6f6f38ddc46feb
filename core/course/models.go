package course

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/gcl-lms/web/core"
)

var ErrNotFound = errors.New("course not found")

type (
	Course struct {
		ID          core.ID   `json:"id"`
		Name        string    `json:"nombre"`
		Description string    `json:"descripcion"`
		TeacherID   core.ID   `json:"profesor"`
		StartDate   core.Date `json:"fecha_inicio"`
		EndDate     core.Date `json:"fecha_fin"`
		Active      bool      `json:"estado"`
		ImageURL    string    `json:"imagen_url,omitempty"`
		Units       []Unit    `json:"unidades,omitempty"`
	}

	Unit struct {
		ID       core.ID `json:"id"`
		Name     string  `json:"nombre"`
		CourseID core.ID `json:"curso"`
		Order    int     `json:"orden"`
		Topics   []Topic `json:"temas,omitempty"`
	}

	Topic struct {
		ID          core.ID `json:"id"`
		Name        string  `json:"nombre"`
		UnitID      core.ID `json:"unidad"`
		Description string  `json:"descripcion"`
		Order       int     `json:"orden"`
		Tasks       []Task  `json:"tareas,omitempty"`
	}

	Task struct {
		ID          core.ID   `json:"id"`
		Title       string    `json:"titulo"`
		Description string    `json:"descripcion"`
		DueDate     core.Date `json:"fecha_entrega"`
		TopicID     core.ID   `json:"tema"`
		Completed   bool      `json:"completada,omitempty"`
	}

	Enrollment struct {
		ID         core.ID   `json:"id"`
		UserID     core.ID   `json:"id_usuario"`
		CourseID   core.ID   `json:"id_curso"`
		EnrolledAt core.Date `json:"fecha_inscripcion"`
	}
)

// SortUnits orders units and their topics by their `orden` field.
func SortUnits(units []Unit) {
	sort.SliceStable(units, func(i, j int) bool { return units[i].Order < units[j].Order })
	for i := range units {
		topics := units[i].Topics
		sort.SliceStable(topics, func(a, b int) bool { return topics[a].Order < topics[b].Order })
	}
}

// Forms

// CourseForm creates or updates a Course.
type CourseForm struct {
	Name        string    `json:"nombre" form:"nombre" validate:"required,notblank,max=100"`
	Description string    `json:"descripcion" form:"descripcion" validate:"required,notblank"`
	TeacherID   core.ID   `json:"profesor" form:"profesor" validate:"required"`
	StartDate   core.Date `json:"fecha_inicio" form:"fecha_inicio"`
	EndDate     core.Date `json:"fecha_fin" form:"fecha_fin"`
	Active      bool      `json:"estado" form:"estado"`
	ImageURL    string    `json:"imagen_url,omitempty" form:"imagen_url" validate:"omitempty,url"`
}

func (cf *CourseForm) Validate(validate *validator.Validate) error {
	cf.Name = core.CleanString(cf.Name)
	cf.Description = core.CleanString(cf.Description)
	cf.TeacherID = core.NormalizeID(string(cf.TeacherID))
	cf.ImageURL = core.CleanString(cf.ImageURL)
	if err := validate.Struct(cf); err != nil {
		return err
	}

	var flds []core.FieldError
	if cf.StartDate.IsZero() {
		flds = append(flds, core.FieldError{Field: "fecha_inicio", Error: "this field is required"})
	}
	if cf.EndDate.IsZero() {
		flds = append(flds, core.FieldError{Field: "fecha_fin", Error: "this field is required"})
	}
	if len(flds) == 0 && cf.EndDate.Before(cf.StartDate.Time) {
		flds = append(flds, core.FieldError{Field: "fecha_fin", Error: "the end date cannot be before the start date"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid dates"), flds...)
	}
	return nil
}

// FromCourse pre-fills the form for editing.
func (cf *CourseForm) FromCourse(c Course) {
	*cf = CourseForm{
		Name:        c.Name,
		Description: c.Description,
		TeacherID:   c.TeacherID,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Active:      c.Active,
		ImageURL:    c.ImageURL,
	}
}

type UnitForm struct {
	Name     string  `json:"nombre" form:"nombre" validate:"required,notblank,max=100"`
	CourseID core.ID `json:"curso" form:"curso" validate:"required"`
	Order    int     `json:"orden" form:"orden" validate:"min=0"`
}

func (uf *UnitForm) Validate(validate *validator.Validate) error {
	uf.Name = core.CleanString(uf.Name)
	uf.CourseID = core.NormalizeID(string(uf.CourseID))
	return validate.Struct(uf)
}

type TopicForm struct {
	Name        string  `json:"nombre" form:"nombre" validate:"required,notblank,max=100"`
	UnitID      core.ID `json:"unidad" form:"unidad" validate:"required"`
	Description string  `json:"descripcion" form:"descripcion"`
	Order       int     `json:"orden" form:"orden" validate:"min=0"`
}

func (tf *TopicForm) Validate(validate *validator.Validate) error {
	tf.Name = core.CleanString(tf.Name)
	tf.Description = core.CleanString(tf.Description)
	tf.UnitID = core.NormalizeID(string(tf.UnitID))
	return validate.Struct(tf)
}

type TaskForm struct {
	Title       string    `json:"titulo" form:"titulo" validate:"required,notblank,max=100"`
	Description string    `json:"descripcion" form:"descripcion"`
	DueDate     core.Date `json:"fecha_entrega" form:"fecha_entrega"`
	TopicID     core.ID   `json:"tema" form:"tema" validate:"required"`
}

func (tf *TaskForm) Validate(validate *validator.Validate) error {
	tf.Title = core.CleanString(tf.Title)
	tf.Description = core.CleanString(tf.Description)
	tf.TopicID = core.NormalizeID(string(tf.TopicID))
	if err := validate.Struct(tf); err != nil {
		return err
	}
	if tf.DueDate.IsZero() {
		return core.NewValidationError(
			errors.New("invalid due date"),
			core.FieldError{Field: "fecha_entrega", Error: "this field is required"},
		)
	}
	return nil
}

// Filters

// Filter narrows a course listing. Zero values match everything.
type Filter struct {
	TeacherID  core.ID
	ActiveOnly bool
	Search     string
	IDs        []core.ID // only these courses; nil means no restriction
}

func (f Filter) Match(c Course) bool {
	if !f.TeacherID.IsZero() && !f.TeacherID.Equal(c.TeacherID) {
		return false
	}
	if f.ActiveOnly && !c.Active {
		return false
	}
	if f.IDs != nil && !containsID(f.IDs, c.ID) {
		return false
	}
	if q := core.CleanString(f.Search, true /* lower */); q != "" {
		if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Description), q) {
			return false
		}
	}
	return true
}

type UnitFilter struct {
	CourseID core.ID
}

func (f UnitFilter) Match(u Unit) bool {
	return f.CourseID.IsZero() || f.CourseID.Equal(u.CourseID)
}

type TopicFilter struct {
	UnitID core.ID
}

func (f TopicFilter) Match(t Topic) bool {
	return f.UnitID.IsZero() || f.UnitID.Equal(t.UnitID)
}

type TaskFilter struct {
	TopicID  core.ID
	TopicIDs []core.ID // any of these topics; nil means no restriction
}

func (f TaskFilter) Match(t Task) bool {
	if !f.TopicID.IsZero() && !f.TopicID.Equal(t.TopicID) {
		return false
	}
	return f.TopicIDs == nil || containsID(f.TopicIDs, t.TopicID)
}

type EnrollmentFilter struct {
	UserID   core.ID
	CourseID core.ID
}

func (f EnrollmentFilter) Match(e Enrollment) bool {
	if !f.UserID.IsZero() && !f.UserID.Equal(e.UserID) {
		return false
	}
	return f.CourseID.IsZero() || f.CourseID.Equal(e.CourseID)
}

func containsID(ids []core.ID, id core.ID) bool {
	for _, other := range ids {
		if other.Equal(id) {
			return true
		}
	}
	return false
}

// Repositories

type Repository interface {
	QueryCourses(ctx context.Context, filter Filter) ([]Course, error)
	GetCourse(ctx context.Context, id core.ID) (Course, error)
	// GetCourseContent returns the course with its units, topics and tasks.
	GetCourseContent(ctx context.Context, id core.ID) (Course, error)
	CreateCourse(ctx context.Context, form CourseForm) (core.ID, error)
	UpdateCourse(ctx context.Context, id core.ID, form CourseForm) error
	DeleteCourse(ctx context.Context, id core.ID) error
}

type UnitRepository interface {
	QueryUnits(ctx context.Context, filter UnitFilter) ([]Unit, error)
	GetUnit(ctx context.Context, id core.ID) (Unit, error)
	CreateUnit(ctx context.Context, form UnitForm) (core.ID, error)
	UpdateUnit(ctx context.Context, id core.ID, form UnitForm) error
	DeleteUnit(ctx context.Context, id core.ID) error
}

type TopicRepository interface {
	QueryTopics(ctx context.Context, filter TopicFilter) ([]Topic, error)
	GetTopic(ctx context.Context, id core.ID) (Topic, error)
	CreateTopic(ctx context.Context, form TopicForm) (core.ID, error)
	UpdateTopic(ctx context.Context, id core.ID, form TopicForm) error
	DeleteTopic(ctx context.Context, id core.ID) error
}

type TaskRepository interface {
	QueryTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	GetTask(ctx context.Context, id core.ID) (Task, error)
	CreateTask(ctx context.Context, form TaskForm) (core.ID, error)
	UpdateTask(ctx context.Context, id core.ID, form TaskForm) error
	DeleteTask(ctx context.Context, id core.ID) error
}

type EnrollmentRepository interface {
	QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
	Enroll(ctx context.Context, userID, courseID core.ID) (core.ID, error)
	GetProgress(ctx context.Context, courseID core.ID) (Progress, error)
	CompleteTask(ctx context.Context, courseID, taskID core.ID) error
	ResetProgress(ctx context.Context, enrollmentID core.ID) error
}
