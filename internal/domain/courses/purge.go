package courses

import (
	"course-studio/internal/domain/items"

	"gorm.io/gorm"
)

// PurgeContents deletes the given content rows together with the items they
// reference and returns the blob keys those items held. Item rows go first so
// no item is left without its content link. Must run inside a transaction.
func PurgeContents(tx *gorm.DB, rows []Content) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	refs := make([]items.Ref, 0, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.Ref())
		ids = append(ids, row.ID)
	}

	loaded, err := items.ResolveMany(tx, refs)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, it := range loaded {
		if key := items.BlobKey(it); key != "" {
			keys = append(keys, key)
		}
	}

	byKind := map[items.Kind][]uint{}
	for _, r := range refs {
		byKind[r.Kind] = append(byKind[r.Kind], r.ID)
	}
	for _, kind := range items.Kinds() {
		if err := items.DeleteMany(tx, kind, byKind[kind]); err != nil {
			return nil, err
		}
	}

	if err := tx.Where("id IN ?", ids).Delete(&Content{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// PurgeModules deletes modules with all of their contents and items.
func PurgeModules(tx *gorm.DB, moduleIDs []uint) ([]string, error) {
	if len(moduleIDs) == 0 {
		return nil, nil
	}
	var rows []Content
	if err := tx.Where("module_id IN ?", moduleIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	keys, err := PurgeContents(tx, rows)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", moduleIDs).Delete(&Module{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// PurgeCourse deletes a course and everything below it.
func PurgeCourse(tx *gorm.DB, courseID uint) ([]string, error) {
	var moduleIDs []uint
	if err := tx.Model(&Module{}).Where("course_id = ?", courseID).Pluck("id", &moduleIDs).Error; err != nil {
		return nil, err
	}
	keys, err := PurgeModules(tx, moduleIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Delete(&Course{}, courseID).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
