package courses

import (
	"time"

	"course-studio/internal/domain/courses"
	"course-studio/internal/platform/apierr"
)

type CourseDTO struct {
	ID       uint             `json:"id"`
	Title    string           `json:"title"`
	Slug     string           `json:"slug"`
	Overview string           `json:"overview"`
	Subject  *courses.Subject `json:"subject,omitempty"`
	Modules  int64            `json:"total_modules"`
	Created  time.Time        `json:"created"`
}

func NewCourseDTO(c courses.Course, modules int64) CourseDTO {
	return CourseDTO{
		ID:       c.ID,
		Title:    c.Title,
		Slug:     c.Slug,
		Overview: c.Overview,
		Subject:  c.Subject,
		Modules:  modules,
		Created:  c.CreatedAt,
	}
}

// ModuleRow is one row of the bulk module editor. Rows without an id are new
// modules; Delete marks an existing one for removal.
type ModuleRow struct {
	ID          *uint              `json:"id,omitempty"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Delete      bool               `json:"delete,omitempty"`
	Errors      apierr.FieldErrors `json:"errors,omitempty"`
}

func rowFromModule(m courses.Module) ModuleRow {
	id := m.ID
	return ModuleRow{ID: &id, Title: m.Title, Description: m.Description}
}
