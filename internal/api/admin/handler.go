package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"course-studio/internal/domain/courses"
	"course-studio/internal/domain/items"
	"course-studio/internal/domain/users"
	"course-studio/internal/platform/apierr"
	"course-studio/internal/platform/logger"
	"course-studio/internal/platform/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminUser struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Courses int64  `json:"courses"`
	Created string `json:"created_at"`
}

type AdminStats struct {
	TotalUsers      int64            `json:"total_users"`
	UsersPerRole    map[string]int64 `json:"users_per_role"`
	TotalCourses    int64            `json:"total_courses"`
	TotalModules    int64            `json:"total_modules"`
	ContentsPerType map[string]int64 `json:"contents_per_type"`
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

func (h *Handler) AdminDashboard(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	stats := AdminStats{
		UsersPerRole:    map[string]int64{},
		ContentsPerType: map[string]int64{},
	}

	type groupCount struct {
		Name  string
		Count int64
	}

	var roles []groupCount
	if err := db.Model(&users.User{}).Select("role AS name, COUNT(*) AS count").Group("role").Scan(&roles).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}
	for _, r := range roles {
		stats.UsersPerRole[r.Name] = r.Count
		stats.TotalUsers += r.Count
	}

	if err := db.Model(&courses.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}
	if err := db.Model(&courses.Module{}).Count(&stats.TotalModules).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}

	var kinds []groupCount
	if err := db.Model(&courses.Content{}).Select("item_type AS name, COUNT(*) AS count").Group("item_type").Scan(&kinds).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}
	for _, k := range items.Kinds() {
		stats.ContentsPerType[string(k)] = 0
	}
	for _, k := range kinds {
		stats.ContentsPerType[k.Name] = k.Count
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListAllUsers(c *gin.Context) {
	var rows []AdminUser
	err := h.DB.WithContext(c.Request.Context()).
		Model(&users.User{}).
		Select("users.id, users.name, users.email, users.role, users.created_at AS created, COUNT(courses.id) AS courses").
		Joins("LEFT JOIN courses ON courses.owner_id = users.id").
		Group("users.id, users.name, users.email, users.role, users.created_at").
		Order("users.id").
		Scan(&rows).Error
	if err != nil {
		h.Log.Error("list users failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	if rows == nil {
		rows = []AdminUser{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) GetUserDetails(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, h.Log, apierr.NotFound("user"))
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var user users.User
	if err := db.First(&user, uint(userID)).Error; err != nil {
		response.Error(c, h.Log, apierr.FromDB(err, "user"))
		return
	}

	var owned []courses.Course
	if err := db.Preload("Subject").Where("owner_id = ?", user.ID).Order("created_at DESC").Find(&owned).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": AdminUser{
			ID:      user.ID,
			Name:    user.Name,
			Email:   user.Email,
			Role:    user.Role,
			Courses: int64(len(owned)),
			Created: user.CreatedAt.Format("2006-01-02 15:04"),
		},
		"courses": owned,
	})
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, h.Log, apierr.NotFound("user"))
		return
	}

	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	role := strings.ToLower(strings.TrimSpace(body.Role))
	if !users.IsKnownRole(role) {
		response.Invalid(c, apierr.FieldErrors{"role": "Select a valid choice."})
		return
	}
	if uint(userID) == c.GetUint("user_id") && role != users.RoleAdmin {
		response.Invalid(c, apierr.FieldErrors{"role": "You cannot remove your own admin role."})
		return
	}

	res := h.DB.WithContext(c.Request.Context()).
		Model(&users.User{}).
		Where("id = ?", uint(userID)).
		Update("role", role)
	if res.Error != nil {
		response.Error(c, h.Log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		response.Error(c, h.Log, apierr.NotFound("user"))
		return
	}

	h.Log.Info("user role changed", "user_id", userID, "role", role, "by", c.GetUint("user_id"))
	c.JSON(http.StatusOK, gin.H{"valid": true, "id": userID, "role": role})
}

type subjectForm struct {
	Title string `json:"title" binding:"required,max=200"`
	Slug  string `json:"slug" binding:"max=200"`
}

func (f *subjectForm) clean() apierr.FieldErrors {
	errs := apierr.FieldErrors{}
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	if f.Title == "" {
		errs.Add("title", "This field is required.")
	}
	if f.Slug == "" {
		f.Slug = courses.MakeSlug(f.Title)
	}
	if !courses.ValidSlug(f.Slug) {
		errs.Add("slug", "Enter a valid slug consisting of lowercase letters, numbers or hyphens.")
	}
	return errs
}

func (h *Handler) bindSubject(c *gin.Context) (*subjectForm, bool) {
	var form subjectForm
	if err := c.ShouldBindJSON(&form); err != nil {
		if fields, ok := response.BindErrors(err); ok {
			response.Invalid(c, fields)
			return nil, false
		}
		response.Error(c, h.Log, apierr.BadRequest("invalid subject payload"))
		return nil, false
	}
	if errs := form.clean(); !errs.Empty() {
		response.Invalid(c, errs)
		return nil, false
	}
	return &form, true
}

func (h *Handler) slugTaken(db *gorm.DB, slug string, exceptID uint) (bool, error) {
	var n int64
	q := db.Model(&courses.Subject{}).Where("slug = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (h *Handler) CreateSubject(c *gin.Context) {
	form, ok := h.bindSubject(c)
	if !ok {
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	taken, err := h.slugTaken(db, form.Slug, 0)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	if taken {
		response.Invalid(c, apierr.FieldErrors{"slug": "Subject with this slug already exists."})
		return
	}

	subject := courses.Subject{Title: form.Title, Slug: form.Slug}
	if err := db.Create(&subject).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

func (h *Handler) UpdateSubject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, h.Log, apierr.NotFound("subject"))
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var subject courses.Subject
	if err := db.First(&subject, uint(id)).Error; err != nil {
		response.Error(c, h.Log, apierr.FromDB(err, "subject"))
		return
	}

	form, ok := h.bindSubject(c)
	if !ok {
		return
	}
	taken, err := h.slugTaken(db, form.Slug, subject.ID)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	if taken {
		response.Invalid(c, apierr.FieldErrors{"slug": "Subject with this slug already exists."})
		return
	}

	subject.Title = form.Title
	subject.Slug = form.Slug
	if err := db.Save(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Invalid(c, apierr.FieldErrors{"slug": "Subject with this slug already exists."})
			return
		}
		response.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}
