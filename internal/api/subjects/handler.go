package subjects

import (
	"net/http"

	"course-studio/internal/domain/courses"
	"course-studio/internal/platform/logger"
	"course-studio/internal/platform/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SubjectDTO struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Courses int64  `json:"total_courses"`
}

type Handler struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewHandler(db *gorm.DB, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{DB: db, Log: log}
}

// List returns every subject ordered by title with its course count.
func (h *Handler) List(c *gin.Context) {
	rows, err := List(h.DB.WithContext(c.Request.Context()))
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// List is shared with the course form, which offers subjects as choices.
func List(db *gorm.DB) ([]SubjectDTO, error) {
	rows := []SubjectDTO{}
	err := db.Model(&courses.Subject{}).
		Select("subjects.id, subjects.title, subjects.slug, COUNT(courses.id) AS courses").
		Joins("LEFT JOIN courses ON courses.subject_id = subjects.id").
		Group("subjects.id, subjects.title, subjects.slug").
		Order("subjects.title").
		Scan(&rows).Error
	return rows, err
}
