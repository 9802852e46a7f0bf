// Package order derives the displayed sequence of entity IDs from a canonical
// collection. The display order is client-local only: it is user-rearrangeable
// but resets to canonical order whenever the underlying data or filter
// changes, and nothing about it is persisted.
package order

import "taskdeck/internal/models"

// Controller maintains one list view's display order
type Controller struct {
	ids []string
}

// Sync replaces the display order with the canonical sequence, discarding any
// manual arrangement.
func (c *Controller) Sync(ids []string) {
	c.ids = make([]string, len(ids))
	copy(c.ids, ids)
}

// IDs returns a copy of the current display order
func (c *Controller) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of tracked IDs
func (c *Controller) Len() int {
	return len(c.ids)
}

// At returns the ID at a display position
func (c *Controller) At(i int) (string, bool) {
	if i < 0 || i >= len(c.ids) {
		return "", false
	}
	return c.ids[i], true
}

// Move removes sourceID from its position and reinserts it at targetID's
// position, keeping the relative order of every other element. When the two
// are equal or either is untracked (a drop outside any item) nothing changes.
func (c *Controller) Move(sourceID, targetID string) bool {
	if sourceID == targetID {
		return false
	}
	from := c.indexOf(sourceID)
	to := c.indexOf(targetID)
	if from < 0 || to < 0 {
		return false
	}

	id := c.ids[from]
	c.ids = append(c.ids[:from], c.ids[from+1:]...)
	c.ids = append(c.ids[:to], append([]string{id}, c.ids[to:]...)...)
	return true
}

func (c *Controller) indexOf(id string) int {
	for i, v := range c.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// FilterTasksByProject selects tasks whose projectId exactly matches.
// An empty projectID selects all tasks.
func FilterTasksByProject(tasks []models.Task, projectID string) []models.Task {
	if projectID == "" {
		return tasks
	}
	var out []models.Task
	for _, t := range tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

// TaskIDs maps tasks to their IDs in the given order
func TaskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// ProjectIDs maps projects to their IDs in the given order
func ProjectIDs(projects []models.Project) []string {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}
