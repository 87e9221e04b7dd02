package items

import (
	"fmt"

	"gorm.io/gorm"
)

// Ref is the (discriminator, id) pair a content row stores.
type Ref struct {
	Kind Kind
	ID   uint
}

// Resolve loads one item as its concrete type. db may carry scopes (owner
// filters); a miss surfaces as gorm.ErrRecordNotFound.
func Resolve(db *gorm.DB, kind Kind, id uint) (Item, error) {
	it := newItem(kind)
	if it == nil {
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
	if err := db.First(it, id).Error; err != nil {
		return nil, err
	}
	return it, nil
}

// ResolveMany loads all referenced items with one query per kind. Refs that
// do not resolve are simply absent from the result.
func ResolveMany(db *gorm.DB, refs []Ref) (map[Ref]Item, error) {
	byKind := map[Kind][]uint{}
	for _, r := range refs {
		byKind[r.Kind] = append(byKind[r.Kind], r.ID)
	}

	out := make(map[Ref]Item, len(refs))
	for kind, ids := range byKind {
		var (
			loaded []Item
			err    error
		)
		switch kind {
		case KindText:
			loaded, err = loadAll[Text](db, ids)
		case KindVideo:
			loaded, err = loadAll[Video](db, ids)
		case KindImage:
			loaded, err = loadAll[Image](db, ids)
		case KindFile:
			loaded, err = loadAll[File](db, ids)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, it := range loaded {
			out[Ref{Kind: kind, ID: BaseOf(it).ID}] = it
		}
	}
	return out, nil
}

func loadAll[T any, PT interface {
	*T
	Item
}](db *gorm.DB, ids []uint) ([]Item, error) {
	var rows []T
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(rows))
	for i := range rows {
		out = append(out, PT(&rows[i]))
	}
	return out, nil
}

// DeleteMany removes the items of one kind with the given ids.
func DeleteMany(db *gorm.DB, kind Kind, ids []uint) error {
	it := newItem(kind)
	if it == nil {
		return fmt.Errorf("unknown item kind %q", kind)
	}
	if len(ids) == 0 {
		return nil
	}
	return db.Where("id IN ?", ids).Delete(it).Error
}
