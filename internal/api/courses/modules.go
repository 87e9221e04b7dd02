package courses

import (
	"net/http"
	"strings"

	"course-studio/internal/domain/access"
	"course-studio/internal/domain/courses"
	"course-studio/internal/platform/apierr"
	"course-studio/internal/platform/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ExtraRows is how many blank rows the editor offers for new modules.
const ExtraRows = 2

type moduleBatch struct {
	Modules []ModuleRow `json:"modules"`
}

// Modules is the bulk module editor of one course. GET lists the current
// modules; POST validates every row and writes all of them or none.
func (h *Handler) Modules(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.DB.WithContext(ctx)
	p := access.For(c.GetUint("user_id"))

	id, ok := paramID(c, "course")
	if !ok {
		response.Error(c, h.Log, apierr.NotFound("course"))
		return
	}
	course, err := p.Course(db, id)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	existing, err := courseModules(db, course.ID)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	if c.Request.Method == http.MethodGet {
		rows := make([]ModuleRow, 0, len(existing))
		for _, m := range existing {
			rows = append(rows, rowFromModule(m))
		}
		c.JSON(http.StatusOK, gin.H{
			"course":  NewCourseDTO(*course, int64(len(existing))),
			"modules": rows,
			"extra":   ExtraRows,
		})
		return
	}

	var batch moduleBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		response.Error(c, h.Log, apierr.BadRequest("malformed module payload"))
		return
	}

	plan, valid := planBatch(batch.Modules, existing)
	if !valid {
		c.JSON(http.StatusOK, gin.H{"valid": false, "rows": batch.Modules})
		return
	}

	var keys []string
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		keys, err = applyBatch(tx, course.ID, plan)
		return err
	})
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	h.discard(ctx, keys)

	saved, err := courseModules(db, course.ID)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	h.Log.Info("modules saved", "user_id", p.UserID, "course_id", course.ID,
		"deleted", len(plan.deletes), "kept", len(plan.keep))
	c.JSON(http.StatusOK, gin.H{"valid": true, "modules": saved})
}

func courseModules(db *gorm.DB, courseID uint) ([]courses.Module, error) {
	var list []courses.Module
	err := db.Where("course_id = ?", courseID).Order("sort_index, id").Find(&list).Error
	return list, err
}

type batchPlan struct {
	deletes []uint
	// keep holds surviving and new rows in submission order.
	keep []ModuleRow
	// untouched are existing modules the submission did not mention.
	untouched []uint
}

// planBatch validates rows in place, attaching per-row errors, and works out
// what to write. Untouched blank rows are dropped.
func planBatch(rows []ModuleRow, existing []courses.Module) (batchPlan, bool) {
	known := make(map[uint]bool, len(existing))
	for _, m := range existing {
		known[m.ID] = true
	}
	seen := map[uint]bool{}

	var plan batchPlan
	valid := true
	for i := range rows {
		row := &rows[i]
		row.Title = strings.TrimSpace(row.Title)
		row.Description = strings.TrimSpace(row.Description)
		row.Errors = nil

		if row.ID == nil {
			if row.Delete || (row.Title == "" && row.Description == "") {
				continue
			}
		}

		errs := apierr.FieldErrors{}
		if row.ID != nil {
			switch {
			case !known[*row.ID]:
				errs.Add("id", msgChoice)
			case seen[*row.ID]:
				errs.Add("id", "Please correct the duplicate data for id, which must be unique.")
			}
			seen[*row.ID] = true
		}

		if !row.Delete {
			switch {
			case row.Title == "":
				errs.Add("title", msgRequired)
			case !validTitle(row.Title):
				errs.Add("title", "Ensure this value has at most 200 characters.")
			}
		}

		if !errs.Empty() {
			row.Errors = errs
			valid = false
			continue
		}
		if row.Delete {
			plan.deletes = append(plan.deletes, *row.ID)
			continue
		}
		plan.keep = append(plan.keep, *row)
	}

	for _, m := range existing {
		if !seen[m.ID] {
			plan.untouched = append(plan.untouched, m.ID)
		}
	}
	return plan, valid
}

// applyBatch writes a validated plan. Submitted rows take positions in the
// order they were sent; modules left out of the submission follow them in
// their previous order.
func applyBatch(tx *gorm.DB, courseID uint, plan batchPlan) ([]string, error) {
	keys, err := courses.PurgeModules(tx, plan.deletes)
	if err != nil {
		return nil, err
	}

	pos := 0
	for _, row := range plan.keep {
		if row.ID != nil {
			err := tx.Model(&courses.Module{}).
				Where("id = ? AND course_id = ?", *row.ID, courseID).
				Updates(map[string]interface{}{
					"title":       row.Title,
					"description": row.Description,
					"sort_index":  pos,
				}).Error
			if err != nil {
				return nil, err
			}
		} else {
			m := courses.Module{CourseID: courseID, Title: row.Title, Description: row.Description, SortIndex: pos}
			if err := tx.Create(&m).Error; err != nil {
				return nil, err
			}
		}
		pos++
	}

	for _, id := range plan.untouched {
		if err := tx.Model(&courses.Module{}).Where("id = ?", id).Update("sort_index", pos).Error; err != nil {
			return nil, err
		}
		pos++
	}
	return keys, nil
}

// Reorder applies {"<module id>": position} to modules the requester owns.
func (h *Handler) Reorder(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	p := access.For(c.GetUint("user_id"))

	var raw map[string]int
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.Error(c, h.Log, apierr.BadRequest("invalid order payload"))
		return
	}
	positions, err := courses.ParsePositions(raw)
	if err != nil {
		response.Error(c, h.Log, apierr.BadRequest("%v", err))
		return
	}
	if len(positions) == 0 {
		c.JSON(http.StatusOK, gin.H{"saved": true, "updated": 0})
		return
	}
	ids := make([]uint, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}

	var updated int
	err = db.Transaction(func(tx *gorm.DB) error {
		var allowed []uint
		if err := p.Modules(tx).Where("modules.id IN ?", ids).Pluck("modules.id", &allowed).Error; err != nil {
			return err
		}
		updated, err = courses.ApplyOrder(tx, &courses.Module{}, allowed, positions)
		return err
	})
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "updated": updated})
}
