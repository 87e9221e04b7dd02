package items

import "time"

// Base holds the columns every content item carries.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"-"`
	Title     string    `gorm:"size:250;not null" json:"title"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

func (b *Base) common() *Base { return b }

// Item is implemented only by *Text, *Video, *Image and *File. The
// unexported method keeps the set closed.
type Item interface {
	Kind() Kind
	common() *Base
}

// BaseOf exposes the shared columns of any item.
func BaseOf(it Item) *Base { return it.common() }

type Text struct {
	Base
	Content string `gorm:"type:text;not null" json:"content"`
}

type Video struct {
	Base
	URL string `gorm:"column:url;size:200;not null" json:"url"`
}

// Image and File keep the blob key, not the bytes.
type Image struct {
	Base
	File string `gorm:"column:file;size:255;not null" json:"file"`
}

type File struct {
	Base
	File string `gorm:"column:file;size:255;not null" json:"file"`
}

func (*Text) Kind() Kind  { return KindText }
func (*Video) Kind() Kind { return KindVideo }
func (*Image) Kind() Kind { return KindImage }
func (*File) Kind() Kind  { return KindFile }

func (Text) TableName() string  { return "texts" }
func (Video) TableName() string { return "videos" }
func (Image) TableName() string { return "images" }
func (File) TableName() string  { return "files" }

// BlobKey returns the stored blob key for upload-backed items, "" otherwise.
func BlobKey(it Item) string {
	switch v := it.(type) {
	case *Image:
		return v.File
	case *File:
		return v.File
	}
	return ""
}

// SetBlobKey points an upload-backed item at a new blob. Other kinds are
// left alone.
func SetBlobKey(it Item, key string) {
	switch v := it.(type) {
	case *Image:
		v.File = key
	case *File:
		v.File = key
	}
}

// Models lists the item tables for migrations.
func Models() []interface{} {
	return []interface{}{&Text{}, &Video{}, &Image{}, &File{}}
}
