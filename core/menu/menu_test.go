package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForRole(t *testing.T) {
	tests := []struct {
		role      string
		wantLen   int
		wantFirst string
	}{
		{role: "admin", wantLen: 4, wantFirst: "/dashboard"},
		{role: "teacher", wantLen: 2, wantFirst: "/teacher/assignments/courses/manage"},
		{role: "profesor", wantLen: 2, wantFirst: "/teacher/assignments/courses/manage"},
		{role: "student", wantLen: 4, wantFirst: "/student/courses"},
		{role: "Estudiante", wantLen: 4, wantFirst: "/student/courses"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got := ForRole(tt.role)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantFirst, got[0].URL)
			// pure: same input, same structure
			assert.Equal(t, got, ForRole(tt.role))
		})
	}
}

func TestForRole_unknown(t *testing.T) {
	for _, role := range []string{"", "usuario", "root"} {
		got := ForRole(role)
		assert.NotNil(t, got, role)
		assert.Empty(t, got, role)
	}
}

func TestForRole_copies(t *testing.T) {
	first := ForRole("admin")
	first[1].SubPages[0].URL = "/hacked"
	first[0].Label = "changed"

	second := ForRole("admin")
	assert.Equal(t, "/admin/manage/users/teachers", second[1].SubPages[0].URL)
	assert.Equal(t, "Home", second[0].Label)
}

func TestItem_Active(t *testing.T) {
	it := Item{URL: "/admin/manage/courses/"}
	assert.True(t, it.Active("/admin/manage/courses"))
	assert.True(t, it.Active("/admin/manage/courses/units"))
	assert.False(t, it.Active("/admin/manage/coursesx"))
	assert.False(t, Item{URL: "/dashboard"}.Active("/"))
}
