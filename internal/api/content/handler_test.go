package content_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"course-studio/internal/api/content"
	"course-studio/internal/domain/courses"
	"course-studio/internal/domain/items"
	"course-studio/internal/domain/users"
	"course-studio/internal/infra/storage"
	"course-studio/internal/platform/logger"
	"course-studio/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type fixture struct {
	db     *gorm.DB
	router *gin.Engine
	root   string
	owner  users.User
	other  users.User
	course courses.Course
	module courses.Module
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	root := t.TempDir()
	store, err := storage.NewLocalStore(root, "/media")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	h := content.NewHandler(db, store, logger.Nop(), 1<<20)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id, err := strconv.ParseUint(c.GetHeader("X-User"), 10, 64); err == nil {
			c.Set("user_id", uint(id))
		}
		c.Next()
	})
	r.GET("/courses/module/:module_id/", h.List)
	r.GET("/courses/module/:module_id/content/:type/create/", h.Create)
	r.POST("/courses/module/:module_id/content/:type/create/", h.Create)
	r.GET("/courses/module/:module_id/content/:type/:id/", h.Update)
	r.POST("/courses/module/:module_id/content/:type/:id/", h.Update)
	r.POST("/courses/content/:id/delete/", h.Delete)
	r.POST("/courses/content/order/", h.Reorder)

	owner := testutil.CreateUser(t, db, "Owner", users.RoleInstructor)
	other := testutil.CreateUser(t, db, "Other", users.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Math")
	course := testutil.CreateCourse(t, db, owner, subject, "Algebra", "algebra")
	module := testutil.CreateModule(t, db, course, "Basics", 0)

	return &fixture{db: db, router: r, root: root, owner: owner, other: other, course: course, module: module}
}

func (f *fixture) contentPath(format string, args ...interface{}) string {
	return fmt.Sprintf("/courses/module/%d/content/", f.module.ID) + fmt.Sprintf(format, args...)
}

func (f *fixture) do(t *testing.T, user users.User, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-User", strconv.FormatUint(uint64(user.ID), 10))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) postJSON(t *testing.T, user users.User, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return f.do(t, user, http.MethodPost, path, bytes.NewReader(buf), "application/json")
}

func (f *fixture) postMultipart(t *testing.T, user users.User, path string, fields map[string]string, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return f.do(t, user, http.MethodPost, path, &body, mw.FormDataContentType())
}

type formResult struct {
	Valid   bool               `json:"valid"`
	Errors  map[string]string  `json:"errors"`
	Content content.ContentDTO `json:"content"`
	Item    content.ItemDTO    `json:"item"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func (f *fixture) createText(t *testing.T, title, body string) content.ContentDTO {
	t.Helper()
	w := f.postJSON(t, f.owner, f.contentPath("text/create/"), map[string]string{"title": title, "content": body})
	if w.Code != http.StatusCreated {
		t.Fatalf("create text: status %d body %s", w.Code, w.Body.String())
	}
	var res formResult
	decode(t, w, &res)
	return res.Content
}

func (f *fixture) countRows(t *testing.T) int64 {
	t.Helper()
	n := testutil.Count(t, f.db, &courses.Content{})
	for _, m := range items.Models() {
		n += testutil.Count(t, f.db, m)
	}
	return n
}

func TestCreate_TextAppendsToModule(t *testing.T) {
	f := newFixture(t)

	first := f.createText(t, "Welcome", "<p>Hello</p><script>alert(1)</script>")
	second := f.createText(t, "Next steps", "Read chapter one.")

	if first.Order != 0 || second.Order != 1 {
		t.Errorf("orders = %d, %d; want 0, 1", first.Order, second.Order)
	}
	if first.Type != items.KindText || first.ModuleID != f.module.ID {
		t.Errorf("content = %+v", first)
	}
	if first.Item.Content != "<p>Hello</p>" {
		t.Errorf("text body not sanitised: %q", first.Item.Content)
	}

	var text items.Text
	if err := f.db.First(&text, first.Item.ID).Error; err != nil {
		t.Fatalf("load text: %v", err)
	}
	if text.OwnerID != f.owner.ID {
		t.Errorf("owner = %d, want %d", text.OwnerID, f.owner.ID)
	}
}

func TestCreate_GetReturnsEmptyForm(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, f.owner, http.MethodGet, f.contentPath("video/create/"), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res struct {
		Type string            `json:"type"`
		Form map[string]string `json:"form"`
	}
	decode(t, w, &res)
	if res.Type != "video" {
		t.Errorf("type = %q", res.Type)
	}
	if _, ok := res.Form["url"]; !ok {
		t.Errorf("video form has no url field: %v", res.Form)
	}
}

func TestCreate_UnknownTypeIsBadRequest(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"quiz", "Text", "user"} {
		w := f.postJSON(t, f.owner, f.contentPath("%s/create/", name), map[string]string{"title": "x", "content": "y"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("type %q: status = %d, want 400", name, w.Code)
		}
	}
	if n := f.countRows(t); n != 0 {
		t.Errorf("%d rows written for unknown types", n)
	}
}

func TestCreate_ForeignModuleIsNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.postJSON(t, f.other, f.contentPath("text/create/"), map[string]string{"title": "x", "content": "y"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	w = f.postJSON(t, f.other, f.contentPath("quiz/create/"), map[string]string{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown type on foreign module: status = %d, want 404", w.Code)
	}
	w = f.postJSON(t, f.owner, "/courses/module/9999/content/text/create/", map[string]string{"title": "x", "content": "y"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing module: status = %d, want 404", w.Code)
	}
	if n := f.countRows(t); n != 0 {
		t.Errorf("%d rows written", n)
	}
}

func TestCreate_InvalidFormRendersErrors(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		body  map[string]string
		field string
		msg   string
	}{
		{"text without title", "text", map[string]string{"content": "body"}, "title", "This field is required."},
		{"blank text", "text", map[string]string{"title": "T", "content": "   "}, "content", "This field is required."},
		{"ftp video", "video", map[string]string{"title": "T", "url": "ftp://example.com/v.mp4"}, "url", "Enter a valid URL."},
		{"script video", "video", map[string]string{"title": "T", "url": "javascript:alert(1)"}, "url", "Enter a valid URL."},
		{"long title", "text", map[string]string{"title": strings.Repeat("a", 251), "content": "x"}, "title", "Ensure this value has at most 250 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.postJSON(t, f.owner, f.contentPath("%s/create/", tt.kind), tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			var res formResult
			decode(t, w, &res)
			if res.Valid {
				t.Fatal("valid = true")
			}
			if res.Errors[tt.field] != tt.msg {
				t.Errorf("errors[%s] = %q, want %q (all: %v)", tt.field, res.Errors[tt.field], tt.msg, res.Errors)
			}
			if n := f.countRows(t); n != 0 {
				t.Errorf("%d rows written", n)
			}
		})
	}
}

func TestCreate_FileUpload(t *testing.T) {
	f := newFixture(t)

	w := f.postMultipart(t, f.owner, f.contentPath("file/create/"), map[string]string{"title": "Syllabus"}, "Syllabus.PDF", []byte("%PDF-1.4 fake"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	var res formResult
	decode(t, w, &res)

	key := res.Content.Item.File
	if !strings.HasPrefix(key, "files/") || !strings.HasSuffix(key, ".pdf") {
		t.Errorf("blob key = %q", key)
	}
	if res.Content.Item.FileURL != "/media/"+key {
		t.Errorf("file url = %q", res.Content.Item.FileURL)
	}
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(key)))
	if err != nil || string(data) != "%PDF-1.4 fake" {
		t.Errorf("stored blob = %q, %v", data, err)
	}
}

func TestCreate_UploadValidation(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		filename string
		data     []byte
		msg      string
	}{
		{"missing file", "file", "", nil, "This field is required."},
		{"not an image", "image", "notes.png", []byte("just some text"), "Upload a valid image. The file you uploaded was either not an image or a corrupted image."},
		{"too large", "file", "big.bin", bytes.Repeat([]byte("x"), 1<<20+1), "Ensure this file is no larger than 1 MB."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.postMultipart(t, f.owner, f.contentPath("%s/create/", tt.kind), map[string]string{"title": "T"}, tt.filename, tt.data)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d body %s", w.Code, w.Body.String())
			}
			var res formResult
			decode(t, w, &res)
			if res.Valid || res.Errors["file"] != tt.msg {
				t.Errorf("result = %+v", res)
			}
			if n := f.countRows(t); n != 0 {
				t.Errorf("%d rows written", n)
			}
			entries, _ := os.ReadDir(f.root)
			if len(entries) != 0 {
				t.Errorf("blob store not empty after rejected upload")
			}
		})
	}

	f := newFixture(t)
	w := f.postMultipart(t, f.owner, f.contentPath("image/create/"), map[string]string{"title": "Pixel"}, "pixel.png", pngBytes)
	if w.Code != http.StatusCreated {
		t.Fatalf("png upload: status = %d body %s", w.Code, w.Body.String())
	}
}

func TestUpdate_ChangesItemKeepsOwner(t *testing.T) {
	f := newFixture(t)
	created := f.createText(t, "Old", "body")
	path := f.contentPath("text/%d/", created.Item.ID)

	w := f.do(t, f.owner, http.MethodGet, path, nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"title":"Old"`) {
		t.Fatalf("GET update form: %d %s", w.Code, w.Body.String())
	}

	w = f.postJSON(t, f.owner, path, map[string]string{"title": "New", "content": "changed"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	var text items.Text
	f.db.First(&text, created.Item.ID)
	if text.Title != "New" || text.Content != "changed" || text.OwnerID != f.owner.ID {
		t.Errorf("after update: %+v", text)
	}
}

func TestUpdate_ForeignOrMismatchedIsNotFound(t *testing.T) {
	f := newFixture(t)
	created := f.createText(t, "Mine", "body")

	w := f.postJSON(t, f.other, f.contentPath("text/%d/", created.Item.ID), map[string]string{"title": "Hijacked", "content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("other user: status = %d, want 404", w.Code)
	}
	w = f.postJSON(t, f.owner, f.contentPath("video/%d/", created.Item.ID), map[string]string{"title": "T", "url": "https://example.com"})
	if w.Code != http.StatusNotFound {
		t.Errorf("wrong type: status = %d, want 404", w.Code)
	}

	var text items.Text
	f.db.First(&text, created.Item.ID)
	if text.Title != "Mine" {
		t.Errorf("title changed to %q", text.Title)
	}
}

func TestUpdate_ReplacesUpload(t *testing.T) {
	f := newFixture(t)

	w := f.postMultipart(t, f.owner, f.contentPath("file/create/"), map[string]string{"title": "Notes"}, "v1.txt", []byte("one"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created formResult
	decode(t, w, &created)
	oldKey := created.Content.Item.File
	path := f.contentPath("file/%d/", created.Content.Item.ID)

	w = f.postMultipart(t, f.owner, path, map[string]string{"title": "Notes v1"}, "", nil)
	var kept formResult
	decode(t, w, &kept)
	if !kept.Valid || kept.Item.File != oldKey || kept.Item.Title != "Notes v1" {
		t.Fatalf("update without file: %+v", kept)
	}

	w = f.postMultipart(t, f.owner, path, map[string]string{"title": "Notes v2"}, "v2.txt", []byte("two"))
	var replaced formResult
	decode(t, w, &replaced)
	if !replaced.Valid || replaced.Item.File == oldKey {
		t.Fatalf("update with file: %+v", replaced)
	}
	if _, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(oldKey))); !os.IsNotExist(err) {
		t.Errorf("old blob still present: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(replaced.Item.File)))
	if string(data) != "two" {
		t.Errorf("new blob = %q", data)
	}
}

func TestDelete_RemovesItemContentAndBlob(t *testing.T) {
	f := newFixture(t)
	w := f.postMultipart(t, f.owner, f.contentPath("file/create/"), map[string]string{"title": "Handout"}, "handout.txt", []byte("hi"))
	var created formResult
	decode(t, w, &created)
	path := fmt.Sprintf("/courses/content/%d/delete/", created.Content.ID)

	w = f.do(t, f.other, http.MethodPost, path, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("other user: status = %d, want 404", w.Code)
	}
	if n := testutil.Count(t, f.db, &courses.Content{}); n != 1 {
		t.Fatalf("content rows after foreign delete = %d", n)
	}

	w = f.do(t, f.owner, http.MethodPost, path, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	if n := f.countRows(t); n != 0 {
		t.Errorf("%d rows left after delete", n)
	}
	if _, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(created.Content.Item.File))); !os.IsNotExist(err) {
		t.Errorf("blob still present: %v", err)
	}
}

func TestList_OrdersAndSkipsDangling(t *testing.T) {
	f := newFixture(t)
	a := f.createText(t, "A", "a")
	b := f.createText(t, "B", "b")

	dangling := courses.Content{ModuleID: f.module.ID, ItemType: items.KindVideo, ItemID: 9999, SortIndex: 5}
	if err := f.db.Create(&dangling).Error; err != nil {
		t.Fatalf("create dangling: %v", err)
	}
	f.db.Model(&courses.Content{}).Where("id = ?", a.ID).Update("sort_index", 3)

	path := fmt.Sprintf("/courses/module/%d/", f.module.ID)
	w := f.do(t, f.owner, http.MethodGet, path, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	var res struct {
		Contents []content.ContentDTO `json:"contents"`
	}
	decode(t, w, &res)
	if len(res.Contents) != 2 {
		t.Fatalf("contents = %+v", res.Contents)
	}
	if res.Contents[0].ID != b.ID || res.Contents[1].ID != a.ID {
		t.Errorf("order = [%d %d], want [%d %d]", res.Contents[0].ID, res.Contents[1].ID, b.ID, a.ID)
	}

	w = f.do(t, f.other, http.MethodGet, path, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("other user: status = %d, want 404", w.Code)
	}
}

func TestReorder_TouchesOnlyOwnedRows(t *testing.T) {
	f := newFixture(t)
	a := f.createText(t, "A", "a")
	b := f.createText(t, "B", "b")

	subject := testutil.CreateSubject(t, f.db, "History")
	theirCourse := testutil.CreateCourse(t, f.db, f.other, subject, "Rome", "rome")
	theirModule := testutil.CreateModule(t, f.db, theirCourse, "Empire", 0)
	theirs := courses.Content{ModuleID: theirModule.ID, ItemType: items.KindText, ItemID: 4242, SortIndex: 0}
	f.db.Create(&theirs)

	body := map[string]int{
		strconv.Itoa(int(a.ID)):      1,
		strconv.Itoa(int(b.ID)):      0,
		strconv.Itoa(int(theirs.ID)): 7,
		"99999":                      2,
	}
	w := f.postJSON(t, f.owner, "/courses/content/order/", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	var res struct {
		Updated int `json:"updated"`
	}
	decode(t, w, &res)
	if res.Updated != 2 {
		t.Errorf("updated = %d, want 2", res.Updated)
	}

	var gotTheirs, gotA, gotB courses.Content
	f.db.First(&gotTheirs, theirs.ID)
	if gotTheirs.SortIndex != 0 {
		t.Errorf("foreign content reordered to %d", gotTheirs.SortIndex)
	}
	f.db.First(&gotA, a.ID)
	if gotA.SortIndex != 1 {
		t.Errorf("a.order = %d, want 1", gotA.SortIndex)
	}
	f.db.First(&gotB, b.ID)
	if gotB.SortIndex != 0 {
		t.Errorf("b.order = %d, want 0", gotB.SortIndex)
	}

	w = f.postJSON(t, f.owner, "/courses/content/order/", map[string]int{"abc": 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", w.Code)
	}
}
