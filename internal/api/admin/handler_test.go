package admin_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	adminapi "course-studio/internal/api/admin"
	subjectsapi "course-studio/internal/api/subjects"
	"course-studio/internal/domain/courses"
	"course-studio/internal/domain/items"
	"course-studio/internal/domain/users"
	"course-studio/internal/platform/logger"
	"course-studio/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(db *gorm.DB, admin users.User) *gin.Engine {
	h := adminapi.NewHandler(db, logger.Nop())
	s := subjectsapi.NewHandler(db, logger.Nop())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", admin.ID) })
	r.GET("/admin/dashboard", h.AdminDashboard)
	r.GET("/admin/users", h.ListAllUsers)
	r.GET("/admin/user/:id", h.GetUserDetails)
	r.PUT("/admin/user/:id/role", h.UpdateUserRole)
	r.POST("/admin/subjects", h.CreateSubject)
	r.PUT("/admin/subjects/:id", h.UpdateSubject)
	r.GET("/subjects", s.List)
	return r
}

func send(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubjects_CreateUpdateList(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "Root", users.RoleAdmin)
	r := newRouter(db, admin)

	w := send(r, http.MethodPost, "/admin/subjects", gin.H{"title": "Data Science"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created courses.Subject
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Slug != "data-science" {
		t.Errorf("slug = %q", created.Slug)
	}

	w = send(r, http.MethodPost, "/admin/subjects", gin.H{"title": "Data science again", "slug": "data-science"})
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"valid":false`)) {
		t.Errorf("duplicate slug: %d %s", w.Code, w.Body.String())
	}

	w = send(r, http.MethodPut, fmt.Sprintf("/admin/subjects/%d", created.ID), gin.H{"title": "Art", "slug": "art"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodPut, "/admin/subjects/999", gin.H{"title": "X"}); w.Code != http.StatusNotFound {
		t.Errorf("update missing: status = %d", w.Code)
	}

	testutil.CreateSubject(t, db, "Biology")
	testutil.CreateCourse(t, db, admin, created, "Painting", "painting")

	w = send(r, http.MethodGet, "/subjects", nil)
	var list []subjectsapi.SubjectDTO
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 2 || list[0].Title != "Art" || list[0].Courses != 1 || list[1].Courses != 0 {
		t.Errorf("subjects = %+v", list)
	}
}

func TestUsersAndDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "Root", users.RoleAdmin)
	instructor := testutil.CreateUser(t, db, "Ines", users.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Math")
	course := testutil.CreateCourse(t, db, instructor, subject, "Algebra", "algebra")
	module := testutil.CreateModule(t, db, course, "M1", 0)
	text := items.Text{Base: items.Base{OwnerID: instructor.ID, Title: "T"}, Content: "c"}
	db.Create(&text)
	db.Create(&courses.Content{ModuleID: module.ID, ItemType: items.KindText, ItemID: text.ID})
	r := newRouter(db, admin)

	w := send(r, http.MethodGet, "/admin/users", nil)
	var list []adminapi.AdminUser
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 2 || list[1].Email != "ines@example.com" || list[1].Courses != 1 {
		t.Errorf("users = %+v", list)
	}

	w = send(r, http.MethodGet, "/admin/dashboard", nil)
	var stats adminapi.AdminStats
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.TotalUsers != 2 || stats.TotalCourses != 1 || stats.ContentsPerType["text"] != 1 || stats.ContentsPerType["video"] != 0 {
		t.Errorf("stats = %+v", stats)
	}

	if w := send(r, http.MethodGet, fmt.Sprintf("/admin/user/%d", instructor.ID), nil); w.Code != http.StatusOK {
		t.Errorf("user details: %d", w.Code)
	}
	if w := send(r, http.MethodGet, "/admin/user/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing user: %d", w.Code)
	}

	w = send(r, http.MethodPut, fmt.Sprintf("/admin/user/%d/role", instructor.ID), gin.H{"role": "student"})
	if w.Code != http.StatusOK {
		t.Fatalf("role change: %d %s", w.Code, w.Body.String())
	}
	var got users.User
	db.First(&got, instructor.ID)
	if got.Role != users.RoleStudent {
		t.Errorf("role = %q", got.Role)
	}

	w = send(r, http.MethodPut, fmt.Sprintf("/admin/user/%d/role", admin.ID), gin.H{"role": "instructor"})
	if !bytes.Contains(w.Body.Bytes(), []byte(`"valid":false`)) {
		t.Errorf("self demotion accepted: %s", w.Body.String())
	}
	w = send(r, http.MethodPut, fmt.Sprintf("/admin/user/%d/role", instructor.ID), gin.H{"role": "superuser"})
	if !bytes.Contains(w.Body.Bytes(), []byte(`"valid":false`)) {
		t.Errorf("unknown role accepted: %s", w.Body.String())
	}
}
