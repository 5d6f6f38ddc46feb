package course

import "github.com/gcl-lms/web/core"

// Progress is a student's completion state of one course.
type Progress struct {
	CourseID     core.ID      `json:"curso_id,omitempty"`
	EnrollmentID core.ID      `json:"inscripcion_id,omitempty"`
	Percent      core.Percent `json:"porcentaje_completado"`
	Units        []Unit       `json:"unidades"`
}

// Done reports whether every task of the course was completed.
func (p Progress) Done() bool {
	return p.Percent.Rounded() >= 100
}

// Started reports whether any progress was recorded.
func (p Progress) Started() bool {
	return p.Percent > 0
}

// CompletedTasks returns the IDs of the completed tasks.
func (p Progress) CompletedTasks() map[core.ID]bool {
	done := make(map[core.ID]bool)
	for _, u := range p.Units {
		for _, t := range u.Topics {
			for _, task := range t.Tasks {
				if task.Completed {
					done[task.ID] = true
				}
			}
		}
	}
	return done
}

// UnitPercent is the rounded share of completed tasks in the unit, 0 when it has none or is unknown.
func (p Progress) UnitPercent(unitID core.ID) int {
	for _, u := range p.Units {
		if u.ID.Equal(unitID) {
			var total, done int
			for _, t := range u.Topics {
				total += len(t.Tasks)
				done += countCompleted(t.Tasks)
			}
			return percent(done, total)
		}
	}
	return 0
}

// TopicPercent is the rounded share of completed tasks in the topic, 0 when it has none or is unknown.
func (p Progress) TopicPercent(topicID core.ID) int {
	for _, u := range p.Units {
		for _, t := range u.Topics {
			if t.ID.Equal(topicID) {
				return percent(countCompleted(t.Tasks), len(t.Tasks))
			}
		}
	}
	return 0
}

// PendingTasks returns the tasks that are not completed yet, in course order.
func (p Progress) PendingTasks() []Task {
	var pending []Task
	for _, u := range p.Units {
		for _, t := range u.Topics {
			for _, task := range t.Tasks {
				if !task.Completed {
					pending = append(pending, task)
				}
			}
		}
	}
	return pending
}

func countCompleted(tasks []Task) int {
	var n int
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return (done*100 + total/2) / total
}
