package backendapi

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/course"
)

type enrollmentRepository struct {
	c *Client
}

var _ course.EnrollmentRepository = (*enrollmentRepository)(nil)

func (c *Client) Enrollments() course.EnrollmentRepository {
	return &enrollmentRepository{c: c}
}

func (r *enrollmentRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	var all []course.Enrollment
	if err := r.c.do(ctx, rest.Get, "inscripciones/", nil, &all); err != nil {
		return nil, err
	}
	return filterList(all, filter.Match), nil
}

func (r *enrollmentRepository) Enroll(ctx context.Context, userID, courseID core.ID) (core.ID, error) {
	var res created
	in := struct {
		UserID     core.ID   `json:"id_usuario"`
		CourseID   core.ID   `json:"id_curso"`
		EnrolledAt core.Date `json:"fecha_inscripcion"`
	}{userID, courseID, core.Date{Time: r.c.now()}}
	err := r.c.do(ctx, rest.Post, "inscripciones/registrar/", in, &res)
	return res.ID, err
}

func (r *enrollmentRepository) GetProgress(ctx context.Context, courseID core.ID) (course.Progress, error) {
	var p course.Progress
	if err := r.c.do(ctx, rest.Get, idPath("inscripciones", "estado-tareas", courseID), nil, &p); err != nil {
		return course.Progress{}, err
	}
	if p.CourseID.IsZero() {
		p.CourseID = courseID
	}
	course.SortUnits(p.Units)
	return p, nil
}

func (r *enrollmentRepository) CompleteTask(ctx context.Context, courseID, taskID core.ID) error {
	in := map[string]core.ID{"tarea_id": taskID, "curso_id": courseID}
	return r.c.do(ctx, rest.Post, "inscripciones/marcar-tarea-completada/", in, nil)
}

func (r *enrollmentRepository) ResetProgress(ctx context.Context, enrollmentID core.ID) error {
	return r.c.do(ctx, rest.Post, idPath("inscripciones", "reiniciar-progreso", enrollmentID), struct{}{}, nil)
}
