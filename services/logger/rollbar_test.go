package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/gcl-lms/web/core"
	"github.com/gcl-lms/web/core/session"
	"github.com/gcl-lms/web/core/user"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	l := NewRollbarLogger(log.New(buf, "TEST : ", 0), &core.Config{Env: "TEST", Build: "test"})
	l.Enable(false)
	return l
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	usr := session.AuthenticatedUser{ID: "7", Username: "ana", Role: user.RoleStudent}
	l.Error("loading course", errors.New("backend down"), map[string]interface{}{"course": 3}, usr)

	out := buf.String()
	assert.Contains(t, out, "TEST : loading course")
	assert.Contains(t, out, "backend down")
	assert.Contains(t, out, "map[course:3]")
	assert.Contains(t, out, "user: ana")
}

func TestRollbarLogger_prepare(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	first := session.AuthenticatedUser{ID: "1", Username: "one"}
	second := session.AuthenticatedUser{ID: "2", Username: "two"}
	err := errors.New("boom")

	rArgs, pArgs := l.prepare("msg", []interface{}{err, first, second})
	assert.Equal(t, []interface{}{"msg", err}, rArgs)
	assert.Equal(t, []interface{}{err, "user: one", "user: two"}, pArgs)
}
