package courses

import (
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// ParsePositions converts a drag-and-drop payload {"<id>": position} into
// typed ids.
func ParsePositions(raw map[string]int) (map[uint]int, error) {
	out := make(map[uint]int, len(raw))
	for k, pos := range raw {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid id %q", k)
		}
		if pos < 0 {
			return nil, fmt.Errorf("invalid position %d for id %s", pos, k)
		}
		out[uint(id)] = pos
	}
	return out, nil
}

// ApplyOrder writes sort_index for every id in positions that is also listed
// in allowed. It returns how many rows were updated.
func ApplyOrder(tx *gorm.DB, model interface{}, allowed []uint, positions map[uint]int) (int, error) {
	n := 0
	for _, id := range allowed {
		pos, ok := positions[id]
		if !ok {
			continue
		}
		if err := tx.Model(model).Where("id = ?", id).Update("sort_index", pos).Error; err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// NextContentOrder is the position a new content row takes at the end of
// its module.
func NextContentOrder(tx *gorm.DB, moduleID uint) (int, error) {
	var next int
	err := tx.Model(&Content{}).
		Where("module_id = ?", moduleID).
		Select("COALESCE(MAX(sort_index) + 1, 0)").
		Scan(&next).Error
	return next, err
}
