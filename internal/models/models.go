package models

import (
	"math"
	"time"
)

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Priority applies to both tasks and projects
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// Task represents a single task as the server stores it.
// Field names match the wire format of the remote API.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     string     `json:"dueDate,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
}

// Project represents a task management project
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority"`
	Color       string        `json:"color,omitempty"`
	StartDate   string        `json:"startDate"`
	EndDate     string        `json:"endDate"`
}

// User is the authenticated account profile returned by the API
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DateLayout is the calendar date format used for due, start, and end dates
const DateLayout = "2006-01-02"

// DueState classifies how close a date is to the current day
type DueState int

const (
	DueNone DueState = iota
	DueReminder
	DueToday
)

// DueStatus classifies endDate relative to now using a ceiling whole-day
// difference: ends today is DueToday, ends tomorrow is DueReminder, anything
// else (past dates included) is DueNone. Empty or unparsable dates are DueNone.
func DueStatus(endDate string, now time.Time) DueState {
	if endDate == "" {
		return DueNone
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return DueNone
	}
	days := int(math.Ceil(end.Sub(now).Hours() / 24))
	switch days {
	case 0:
		return DueToday
	case 1:
		return DueReminder
	}
	return DueNone
}
