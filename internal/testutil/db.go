// Package testutil builds migrated in-memory databases and seed rows for
// package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"course-studio/database"
	"course-studio/internal/domain/courses"
	"course-studio/internal/domain/users"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewDB returns a fresh sqlite database migrated with the production schema.
// Foreign keys are enforced so cascades behave like PostgreSQL.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))

	db, err := database.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, name, role string) users.User {
	t.Helper()
	u := users.User{Name: name, Email: strings.ToLower(name) + "@example.com", Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func CreateSubject(t *testing.T, db *gorm.DB, title string) courses.Subject {
	t.Helper()
	s := courses.Subject{Title: title, Slug: courses.MakeSlug(title)}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create subject %s: %v", title, err)
	}
	return s
}

func CreateCourse(t *testing.T, db *gorm.DB, owner users.User, subject courses.Subject, title, slug string) courses.Course {
	t.Helper()
	c := courses.Course{OwnerID: owner.ID, SubjectID: subject.ID, Title: title, Slug: slug, Overview: title + " overview"}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create course %s: %v", title, err)
	}
	return c
}

func CreateModule(t *testing.T, db *gorm.DB, course courses.Course, title string, order int) courses.Module {
	t.Helper()
	m := courses.Module{CourseID: course.ID, Title: title, SortIndex: order}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("create module %s: %v", title, err)
	}
	return m
}

// Count returns the row count of model's table.
func Count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
