package access

import (
	"course-studio/internal/domain/courses"
	"course-studio/internal/domain/items"
	"course-studio/internal/platform/apierr"

	"gorm.io/gorm"
)

// Policy narrows every query to what one user owns. Ownership of modules and
// contents is resolved through their course.
type Policy struct {
	UserID uint
}

func For(userID uint) Policy {
	return Policy{UserID: userID}
}

// Scopes. Each returns a fresh condition set, so they compose with other
// scopes and with db.Model/Find/First.

func (p Policy) OwnsCourse(db *gorm.DB) *gorm.DB {
	return db.Where("courses.owner_id = ?", p.UserID)
}

func (p Policy) OwnsModule(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN courses ON courses.id = modules.course_id").
		Where("courses.owner_id = ?", p.UserID)
}

func (p Policy) OwnsContent(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN modules ON modules.id = contents.module_id").
		Joins("JOIN courses ON courses.id = modules.course_id").
		Where("courses.owner_id = ?", p.UserID)
}

func (p Policy) OwnsItem(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", p.UserID)
}

// Query helpers for listings.

func (p Policy) Courses(db *gorm.DB) *gorm.DB {
	return db.Model(&courses.Course{}).Scopes(p.OwnsCourse)
}

func (p Policy) Modules(db *gorm.DB) *gorm.DB {
	return db.Model(&courses.Module{}).Scopes(p.OwnsModule)
}

func (p Policy) Contents(db *gorm.DB) *gorm.DB {
	return db.Model(&courses.Content{}).Scopes(p.OwnsContent)
}

// Re-fetches. A row that is missing or owned by someone else yields
// apierr.NotFound either way.

func (p Policy) Course(db *gorm.DB, id uint) (*courses.Course, error) {
	var c courses.Course
	if err := db.Scopes(p.OwnsCourse).First(&c, "courses.id = ?", id).Error; err != nil {
		return nil, apierr.FromDB(err, "course")
	}
	return &c, nil
}

func (p Policy) CourseBySlug(db *gorm.DB, slug string) (*courses.Course, error) {
	var c courses.Course
	if err := db.Scopes(p.OwnsCourse).First(&c, "courses.slug = ?", slug).Error; err != nil {
		return nil, apierr.FromDB(err, "course")
	}
	return &c, nil
}

func (p Policy) Module(db *gorm.DB, id uint) (*courses.Module, error) {
	var m courses.Module
	if err := db.Scopes(p.OwnsModule).Select("modules.*").First(&m, "modules.id = ?", id).Error; err != nil {
		return nil, apierr.FromDB(err, "module")
	}
	return &m, nil
}

func (p Policy) Content(db *gorm.DB, id uint) (*courses.Content, error) {
	var c courses.Content
	if err := db.Scopes(p.OwnsContent).Select("contents.*").First(&c, "contents.id = ?", id).Error; err != nil {
		return nil, apierr.FromDB(err, "content")
	}
	return &c, nil
}

func (p Policy) Item(db *gorm.DB, kind items.Kind, id uint) (items.Item, error) {
	it, err := items.Resolve(db.Scopes(p.OwnsItem), kind, id)
	if err != nil {
		return nil, apierr.FromDB(err, "item")
	}
	return it, nil
}

// Stamp sets the owner of a new row from the requester. Request payloads
// never carry an owner.
func (p Policy) Stamp(row interface{}) {
	switch v := row.(type) {
	case *courses.Course:
		v.OwnerID = p.UserID
	case items.Item:
		items.BaseOf(v).OwnerID = p.UserID
	}
}
