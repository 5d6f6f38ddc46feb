// Package menu resolves the navigation menu of each role.
package menu

import (
	"strings"

	"github.com/gcl-lms/web/core/user"
)

type Item struct {
	Label    string
	URL      string
	SubPages []Item
}

// Active reports whether path is the item's page or one of its sub pages.
func (it Item) Active(path string) bool {
	url := strings.TrimRight(it.URL, "/")
	if url == "" {
		return path == "/"
	}
	path = strings.TrimRight(path, "/")
	return path == url || strings.HasPrefix(path, url+"/")
}

var menus = map[user.Role][]Item{
	user.RoleAdmin: {
		{Label: "Home", URL: "/dashboard"},
		{
			Label: "Users",
			URL:   "/admin/manage/users",
			SubPages: []Item{
				{Label: "Teachers", URL: "/admin/manage/users/teachers"},
				{Label: "Students", URL: "/admin/manage/users/students"},
				{Label: "Admins", URL: "/admin/manage/users/admins"},
			},
		},
		{
			Label: "Course Materials",
			URL:   "/admin/manage/courses",
			SubPages: []Item{
				{Label: "Courses", URL: "/admin/manage/courses/"},
				{Label: "Units", URL: "/admin/manage/courses/units"},
				{Label: "Topics", URL: "/admin/manage/courses/topics"},
				{Label: "Tasks", URL: "/admin/manage/courses/tasks"},
			},
		},
		{Label: "Profile", URL: "/admin/manage/profile"},
	},
	user.RoleTeacher: {
		{
			Label: "My Courses",
			URL:   "/teacher/assignments/courses/manage",
			SubPages: []Item{
				{Label: "Manage", URL: "/teacher/courses/manage"},
				{Label: "Grades", URL: "/teacher/courses/grades"},
			},
		},
		{Label: "Assignments", URL: "/teacher/assignments"},
	},
	user.RoleStudent: {
		{Label: "My Courses", URL: "/student/courses"},
		{Label: "Pending Assignments", URL: "/student/assignments"},
		{Label: "Completed Courses", URL: "/student/passed-courses"},
		{Label: "More Courses", URL: "/student/more-courses"},
	},
}

// ForRole returns the menu of a role, in any of its spellings.
// The result is a fresh copy; an unknown role yields an empty menu.
func ForRole(role string) []Item {
	r, ok := user.ParseRole(role)
	if !ok {
		return []Item{}
	}
	return copyItems(menus[r])
}

func copyItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{Label: it.Label, URL: it.URL}
		if it.SubPages != nil {
			out[i].SubPages = copyItems(it.SubPages)
		}
	}
	return out
}
