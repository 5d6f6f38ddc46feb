package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/gcl-lms/web/apps/web/echo"
	"github.com/gcl-lms/web/tests"
)

const (
	enrollmentsJSON = `[
		{"id": 9, "id_usuario": 7, "id_curso": 1, "fecha_inscripcion": "2024-03-02"},
		{"id": 10, "id_usuario": 8, "id_curso": 2, "fecha_inscripcion": "2024-03-02"}
	]`
	coursesJSON = `[
		{"id": 1, "nombre": "Go 101", "profesor": 1, "estado": true},
		{"id": 2, "nombre": "Django", "profesor": 3, "estado": true},
		{"id": 3, "nombre": "Legacy Pascal", "profesor": 3, "estado": false}
	]`
	contentJSON = `{"id": 1, "nombre": "Go 101", "profesor": 1, "unidades": [
		{"id": 4, "nombre": "Basics", "curso": 1, "orden": 1, "temas": [
			{"id": 10, "nombre": "Syntax", "unidad": 4, "orden": 1, "tareas": [
				{"id": 20, "titulo": "Hello", "tema": 10, "fecha_entrega": "2024-03-10"},
				{"id": 21, "titulo": "Loops", "tema": 10, "fecha_entrega": "2024-03-05"}
			]}
		]}
	]}`
	progressJSON = `{"porcentaje_completado": "50.0", "unidades": [
		{"id": 4, "nombre": "Basics", "orden": 1, "temas": [
			{"id": 10, "nombre": "Syntax", "orden": 1, "tareas": [
				{"id": 20, "titulo": "Hello", "tema": 10, "completada": true, "fecha_entrega": "2024-03-10"},
				{"id": 21, "titulo": "Loops", "tema": 10, "completada": false, "fecha_entrega": "2024-03-05"}
			]}
		]}
	]}`
)

func studentCookies(t *testing.T) []*http.Cookie {
	return sessionCookies(testutil.MintToken(t, 7, "sue", "estudiante"), testutil.MintRefreshToken(t, 7))
}

func studentBackend(t *testing.T) (Server, *fakeBackend) {
	app, backend := setup(t)
	backend.on("GET /inscripciones/", http.StatusOK, enrollmentsJSON)
	backend.on("GET /cursos/listar_cursos/", http.StatusOK, coursesJSON)
	backend.on("GET /cursos/detalle-completo/1/", http.StatusOK, contentJSON)
	backend.on("GET /inscripciones/estado-tareas/1/", http.StatusOK, progressJSON)
	backend.on("POST /inscripciones/marcar-tarea-completada/", http.StatusOK, `{}`)
	backend.on("POST /inscripciones/reiniciar-progreso/9/", http.StatusOK, `{}`)
	backend.on("POST /inscripciones/registrar/", http.StatusCreated, `{"mensaje": "ok", "id": 11}`)
	return app, backend
}

func Test_student_pages(t *testing.T) {
	app, _ := studentBackend(t)
	cookies := studentCookies(t)

	tests := []httpTest{
		{
			name: "my courses", path: "/student/courses", cookies: cookies,
			wantCode: http.StatusOK, wantBody: []string{"Go 101", "width: 50%", "Enrolled Mar 2, 2024"},
		},
		{
			name: "completed courses", path: "/student/passed-courses", cookies: cookies,
			wantCode: http.StatusOK, wantBody: []string{"No courses here yet"},
		},
		{
			name: "course content", path: "/student/courses/1", cookies: cookies,
			wantCode: http.StatusOK,
			wantBody: []string{"Basics", "Syntax", "Completed", `action="/student/courses/1/tasks/21/complete"`, `action="/student/courses/1/reset"`},
		},
		{
			name: "pending assignments", path: "/student/assignments", cookies: cookies,
			wantCode: http.StatusOK, wantBody: []string{"Loops", "Go 101"},
		},
		{
			name: "more courses", path: "/student/more-courses", cookies: cookies,
			wantCode: http.StatusOK, wantBody: []string{"Django", `action="/student/more-courses/2/enroll"`},
		},
		{name: "unknown course", path: "/student/courses/99", cookies: cookies, wantCode: http.StatusNotFound},
	}
	runHTTPTests(t, app, tests)

	t.Run("course lists only hold the right courses", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/student/courses", nil, cookies...)
		app.ServeHTTP(rec, req)
		assert.NotContains(t, rec.Body.String(), "Django")

		req, rec = newRequest(http.MethodGet, "/student/more-courses", nil, cookies...)
		app.ServeHTTP(rec, req)
		assert.NotContains(t, rec.Body.String(), "Go 101")
		assert.NotContains(t, rec.Body.String(), "Legacy Pascal")

		req, rec = newRequest(http.MethodGet, "/student/assignments", nil, cookies...)
		app.ServeHTTP(rec, req)
		assert.NotContains(t, rec.Body.String(), "Hello")
	})
}

func Test_student_actions(t *testing.T) {
	app, backend := studentBackend(t)
	cookies := studentCookies(t)

	tests := []httpTest{
		{
			name: "complete task", method: http.MethodPost, path: "/student/courses/1/tasks/21/complete", cookies: cookies,
			wantCode: http.StatusSeeOther, wantLocation: "/student/courses/1",
		},
		{
			name: "reset progress", method: http.MethodPost, path: "/student/courses/1/reset", cookies: cookies,
			wantCode: http.StatusSeeOther, wantLocation: "/student/courses/1",
		},
		{
			name: "enroll", method: http.MethodPost, path: "/student/more-courses/2/enroll", cookies: cookies,
			wantCode: http.StatusSeeOther, wantLocation: "/student/courses",
		},
	}
	runHTTPTests(t, app, tests)

	completed := backend.callsTo("POST /inscripciones/marcar-tarea-completada/")
	require.Len(t, completed, 1)
	assert.JSONEq(t, `{"tarea_id": 21, "curso_id": 1}`, completed[0].body)

	assert.Len(t, backend.callsTo("POST /inscripciones/reiniciar-progreso/9/"), 1)

	enrolled := backend.callsTo("POST /inscripciones/registrar/")
	require.Len(t, enrolled, 1)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(enrolled[0].body), &body))
	assert.EqualValues(t, 7, body["id_usuario"])
	assert.EqualValues(t, 2, body["id_curso"])
	assert.NotEmpty(t, body["fecha_inscripcion"])
}

func Test_student_resetWithoutProgress(t *testing.T) {
	app, backend := studentBackend(t)
	backend.on("GET /inscripciones/estado-tareas/1/", http.StatusOK, `{"porcentaje_completado": "0.0", "unidades": []}`)
	cookies := studentCookies(t)

	req, rec := newRequest(http.MethodPost, "/student/courses/1/reset", nil, cookies...)
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/student/courses/1", rec.Header().Get("Location"))
	assert.Empty(t, backend.callsTo("POST /inscripciones/reiniciar-progreso/9/"))
	assert.Empty(t, backend.callsTo("GET /inscripciones/"))

	page := follow(t, app, rec, cookies...)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "There is no progress to reset in this course")
	assert.Contains(t, page.Body.String(), "alert-info")
}

func Test_teacher_pages(t *testing.T) {
	app, backend := setup(t)
	backend.on("GET /cursos/profesor/1/", http.StatusOK, `[{"id": 1, "nombre": "Go 101", "profesor": 1, "estado": true}]`)
	backend.on("GET /cursos/detalle-completo/1/", http.StatusOK, contentJSON)
	backend.on("GET /inscripciones/", http.StatusOK, enrollmentsJSON)
	backend.on("GET /usuarios/", http.StatusOK, `[
		{"id": 7, "username": "sue", "nombre_completo": "Sue Mbuyi", "email": "sue@test.cd", "rol": "estudiante"},
		{"id": 8, "username": "max", "nombre_completo": "Max Kabila", "email": "max@test.cd", "rol": "student"}
	]`)
	cookies := sessionCookies(testutil.MintToken(t, 1, "tom", "profesor"), testutil.MintRefreshToken(t, 1))

	tests := []httpTest{
		{
			name: "courses home", path: "/teacher/assignments/courses/manage", cookies: cookies,
			wantCode: http.StatusSeeOther, wantLocation: "/teacher/courses/manage",
		},
		{
			name: "my courses", path: "/teacher/courses/manage", cookies: cookies,
			wantCode: http.StatusOK, wantBody: []string{"Go 101", "Basics", "Syntax", "Hello", "Loops"},
		},
		{
			name: "grades", path: "/teacher/courses/grades", cookies: cookies,
			wantCode: http.StatusOK, wantBody: []string{"Go 101", "Sue Mbuyi"},
		},
		{name: "student pages are off limits", path: "/student/courses", cookies: cookies, wantCode: http.StatusSeeOther, wantLocation: "/dashboard"},
	}
	runHTTPTests(t, app, tests)

	t.Run("grades only list enrolled students", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/teacher/courses/grades", nil, cookies...)
		app.ServeHTTP(rec, req)
		assert.NotContains(t, rec.Body.String(), "Max Kabila")
	})

	t.Run("assignments are sorted by due date", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/teacher/assignments", nil, cookies...)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		loops, hello := strings.Index(body, "Loops"), strings.Index(body, "Hello")
		require.True(t, loops >= 0 && hello >= 0)
		assert.Less(t, loops, hello)
	})
}
