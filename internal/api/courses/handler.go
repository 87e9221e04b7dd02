package courses

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	subjectsapi "course-studio/internal/api/subjects"
	"course-studio/internal/domain/access"
	"course-studio/internal/domain/courses"
	"course-studio/internal/infra/storage"
	"course-studio/internal/platform/apierr"
	"course-studio/internal/platform/logger"
	"course-studio/internal/platform/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	msgRequired   = "This field is required."
	msgChoice     = "Select a valid choice. That choice is not one of the available choices."
	msgSlugFormat = "Enter a valid slug consisting of lowercase letters, numbers or hyphens."
	msgSlugTaken  = "Course with this slug already exists."
)

type Handler struct {
	DB    *gorm.DB
	Store storage.Store
	Log   *logger.Logger
}

func NewHandler(db *gorm.DB, store storage.Store, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{DB: db, Store: store, Log: log}
}

type CourseForm struct {
	SubjectID uint   `json:"subject_id" binding:"required"`
	Title     string `json:"title" binding:"required,max=200"`
	Slug      string `json:"slug" binding:"max=200"`
	Overview  string `json:"overview" binding:"required"`
}

// clean normalises the form and checks what the database must agree with.
// exceptID skips the course being edited in the slug uniqueness check.
func (f *CourseForm) clean(db *gorm.DB, exceptID uint) (apierr.FieldErrors, error) {
	errs := apierr.FieldErrors{}
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Overview = strings.TrimSpace(f.Overview)

	if f.Title == "" {
		errs.Add("title", msgRequired)
	}
	if f.Overview == "" {
		errs.Add("overview", msgRequired)
	}
	if f.Slug == "" {
		f.Slug = courses.MakeSlug(f.Title)
	}
	if !courses.ValidSlug(f.Slug) || courses.ReservedCourseSlug(f.Slug) {
		errs.Add("slug", msgSlugFormat)
	}

	var n int64
	if err := db.Model(&courses.Subject{}).Where("id = ?", f.SubjectID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		errs.Add("subject_id", msgChoice)
	}

	if _, bad := errs["slug"]; !bad {
		q := db.Model(&courses.Course{}).Where("slug = ?", f.Slug)
		if exceptID != 0 {
			q = q.Where("id <> ?", exceptID)
		}
		if err := q.Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			errs.Add("slug", msgSlugTaken)
		}
	}
	return errs, nil
}

// bindCourse reads and validates a course form. ok is false when a response
// has already been written.
func (h *Handler) bindCourse(c *gin.Context, db *gorm.DB, exceptID uint) (*CourseForm, bool) {
	var form CourseForm
	errs := apierr.FieldErrors{}
	if err := c.ShouldBindJSON(&form); err != nil {
		fields, ok := response.BindErrors(err)
		if !ok {
			response.Error(c, h.Log, apierr.BadRequest("malformed course payload"))
			return nil, false
		}
		for k, v := range fields {
			errs.Add(k, v)
		}
	}
	more, err := form.clean(db, exceptID)
	if err != nil {
		response.Error(c, h.Log, err)
		return nil, false
	}
	for k, v := range more {
		errs.Add(k, v)
	}
	if !errs.Empty() {
		response.Invalid(c, errs)
		return nil, false
	}
	return &form, true
}

func moduleCounts(db *gorm.DB, courseIDs []uint) (map[uint]int64, error) {
	out := map[uint]int64{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CourseID uint
		Total    int64
	}
	err := db.Model(&courses.Module{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.CourseID] = r.Total
	}
	return out, nil
}

// Mine lists the requester's courses, newest first.
func (h *Handler) Mine(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	p := access.For(c.GetUint("user_id"))

	var list []courses.Course
	if err := p.Courses(db).Preload("Subject").Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}
	ids := make([]uint, 0, len(list))
	for _, course := range list {
		ids = append(ids, course.ID)
	}
	counts, err := moduleCounts(db, ids)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	out := make([]CourseDTO, 0, len(list))
	for _, course := range list {
		out = append(out, NewCourseDTO(course, counts[course.ID]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Create(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	p := access.For(c.GetUint("user_id"))

	if c.Request.Method == http.MethodGet {
		subjects, err := subjectsapi.List(db)
		if err != nil {
			response.Error(c, h.Log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"form": CourseForm{}, "subjects": subjects})
		return
	}

	form, ok := h.bindCourse(c, db, 0)
	if !ok {
		return
	}
	course := courses.Course{
		SubjectID: form.SubjectID,
		Title:     form.Title,
		Slug:      form.Slug,
		Overview:  form.Overview,
	}
	p.Stamp(&course)
	if err := db.Create(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Invalid(c, apierr.FieldErrors{"slug": msgSlugTaken})
			return
		}
		response.Error(c, h.Log, err)
		return
	}

	h.Log.Info("course created", "user_id", p.UserID, "course_id", course.ID, "slug", course.Slug)
	c.JSON(http.StatusCreated, gin.H{"id": course.ID, "slug": course.Slug})
}

func (h *Handler) Edit(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	p := access.For(c.GetUint("user_id"))

	course, err := p.CourseBySlug(db, c.Param("course"))
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	if c.Request.Method == http.MethodGet {
		subjects, err := subjectsapi.List(db)
		if err != nil {
			response.Error(c, h.Log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"course": NewCourseDTO(*course, 0),
			"form": CourseForm{
				SubjectID: course.SubjectID,
				Title:     course.Title,
				Slug:      course.Slug,
				Overview:  course.Overview,
			},
			"subjects": subjects,
		})
		return
	}

	form, ok := h.bindCourse(c, db, course.ID)
	if !ok {
		return
	}
	course.SubjectID = form.SubjectID
	course.Title = form.Title
	course.Slug = form.Slug
	course.Overview = form.Overview
	course.Subject = nil
	if err := db.Save(course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Invalid(c, apierr.FieldErrors{"slug": msgSlugTaken})
			return
		}
		response.Error(c, h.Log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "course": NewCourseDTO(*course, 0)})
}

func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.DB.WithContext(ctx)
	p := access.For(c.GetUint("user_id"))

	course, err := p.CourseBySlug(db, c.Param("course"))
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	var keys []string
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		keys, err = courses.PurgeCourse(tx, course.ID)
		return err
	})
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	h.discard(ctx, keys)

	h.Log.Info("course deleted", "user_id", p.UserID, "course_id", course.ID)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func validTitle(title string) bool {
	return utf8.RuneCountInString(title) <= 200
}

func (h *Handler) discard(ctx context.Context, keys []string) {
	if h.Store == nil || len(keys) == 0 {
		return
	}
	if err := storage.DeleteAll(context.WithoutCancel(ctx), h.Store, keys); err != nil {
		h.Log.Warn("blob cleanup failed", "keys", keys, "error", err)
	}
}
