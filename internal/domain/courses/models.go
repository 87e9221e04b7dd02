package courses

import (
	"time"

	"course-studio/internal/domain/items"
	"course-studio/internal/domain/users"
)

type Subject struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:200;not null" json:"title"`
	Slug  string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
}

type Course struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OwnerID uint        `gorm:"not null;index" json:"-"`
	Owner   *users.User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`

	SubjectID uint     `gorm:"not null;index" json:"subject_id"`
	Subject   *Subject `gorm:"constraint:OnDelete:CASCADE;" json:"subject,omitempty"`

	Title    string `gorm:"size:200;not null" json:"title"`
	Slug     string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Overview string `gorm:"type:text;not null" json:"overview"`

	Modules []Module `gorm:"constraint:OnDelete:CASCADE;" json:"modules,omitempty"`

	CreatedAt time.Time `json:"created"`
}

// Module has no owner of its own; authorization goes through Course.OwnerID.
type Module struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CourseID    uint   `gorm:"not null;index:idx_modules_course_sort,priority:1" json:"course_id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	SortIndex   int    `gorm:"not null;default:0;index:idx_modules_course_sort,priority:2" json:"order"`

	Contents []Content `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// Content links a module to exactly one item of one of the registered kinds.
// ItemType is also checked by the database so a bad discriminator cannot be
// written even by code that skips the registry.
type Content struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ModuleID  uint       `gorm:"not null;index:idx_contents_module_sort,priority:1" json:"module_id"`
	ItemType  items.Kind `gorm:"type:varchar(10);not null;uniqueIndex:idx_contents_item,priority:1;check:chk_contents_item_type,item_type IN ('text','video','image','file')" json:"type"`
	ItemID    uint       `gorm:"not null;uniqueIndex:idx_contents_item,priority:2" json:"item_id"`
	SortIndex int        `gorm:"not null;default:0;index:idx_contents_module_sort,priority:2" json:"order"`

	CreatedAt time.Time `json:"created"`
}

func (c Content) Ref() items.Ref {
	return items.Ref{Kind: c.ItemType, ID: c.ItemID}
}

// Models lists the hierarchy tables in dependency order for migrations.
func Models() []interface{} {
	return []interface{}{&Subject{}, &Course{}, &Module{}, &Content{}}
}
