package content

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"course-studio/internal/domain/access"
	"course-studio/internal/domain/courses"
	"course-studio/internal/domain/items"
	"course-studio/internal/infra/storage"
	"course-studio/internal/platform/apierr"
	"course-studio/internal/platform/logger"
	"course-studio/internal/platform/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB        *gorm.DB
	Store     storage.Store
	Log       *logger.Logger
	MaxUpload int64
}

func NewHandler(db *gorm.DB, store storage.Store, log *logger.Logger, maxUpload int64) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{DB: db, Store: store, Log: log, MaxUpload: maxUpload}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// target resolves the module and content type a create/update route points
// at. Ownership is checked before the type so a foreign module never leaks
// whether a type name is valid.
func (h *Handler) target(c *gin.Context, db *gorm.DB, p access.Policy) (*courses.Module, items.Schema, error) {
	moduleID, ok := paramID(c, "module_id")
	if !ok {
		return nil, items.Schema{}, apierr.NotFound("module")
	}
	module, err := p.Module(db, moduleID)
	if err != nil {
		return nil, items.Schema{}, err
	}
	schema, ok := items.Lookup(c.Param("type"))
	if !ok {
		return nil, items.Schema{}, apierr.BadRequest("unknown content type %q", c.Param("type"))
	}
	return module, schema, nil
}

func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.DB.WithContext(ctx)
	p := access.For(c.GetUint("user_id"))

	module, schema, err := h.target(c, db, p)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	form := newForm(schema.Kind, h.MaxUpload)
	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{"module": module, "type": schema.Kind, "form": form})
		return
	}

	errs, err := bindForm(c, form, true)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	if !errs.Empty() {
		response.Invalid(c, errs)
		return
	}

	it := schema.New()
	form.apply(it)
	p.Stamp(it)

	key, err := h.storeUpload(ctx, schema, form)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	if key != "" {
		items.SetBlobKey(it, key)
	}

	var row courses.Content
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(it).Error; err != nil {
			return err
		}
		next, err := courses.NextContentOrder(tx, module.ID)
		if err != nil {
			return err
		}
		row = courses.Content{
			ModuleID:  module.ID,
			ItemType:  schema.Kind,
			ItemID:    items.BaseOf(it).ID,
			SortIndex: next,
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		h.discard(ctx, key)
		response.Error(c, h.Log, err)
		return
	}

	h.Log.Info("content created", "user_id", p.UserID, "module_id", module.ID, "type", schema.Kind, "content_id", row.ID)
	c.JSON(http.StatusCreated, gin.H{"valid": true, "content": NewContentDTO(row, it, h.Store)})
}

func (h *Handler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.DB.WithContext(ctx)
	p := access.For(c.GetUint("user_id"))

	module, schema, err := h.target(c, db, p)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		response.Error(c, h.Log, apierr.NotFound("item"))
		return
	}
	it, err := p.Item(db, schema.Kind, id)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{
			"module": module,
			"type":   schema.Kind,
			"item":   NewItemDTO(it, h.Store),
			"form":   formFrom(it, h.MaxUpload),
		})
		return
	}

	form := newForm(schema.Kind, h.MaxUpload)
	errs, err := bindForm(c, form, false)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	if !errs.Empty() {
		response.Invalid(c, errs)
		return
	}

	oldKey := items.BlobKey(it)
	form.apply(it)

	newKey, err := h.storeUpload(ctx, schema, form)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	if newKey != "" {
		items.SetBlobKey(it, newKey)
	}

	if err := db.Save(it).Error; err != nil {
		h.discard(ctx, newKey)
		response.Error(c, h.Log, err)
		return
	}
	if newKey != "" {
		h.discard(ctx, oldKey)
	}

	h.Log.Info("content updated", "user_id", p.UserID, "type", schema.Kind, "item_id", id)
	c.JSON(http.StatusOK, gin.H{"valid": true, "item": NewItemDTO(it, h.Store)})
}

func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.DB.WithContext(ctx)
	p := access.For(c.GetUint("user_id"))

	id, ok := paramID(c, "id")
	if !ok {
		response.Error(c, h.Log, apierr.NotFound("content"))
		return
	}
	row, err := p.Content(db, id)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	var keys []string
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		keys, err = courses.PurgeContents(tx, []courses.Content{*row})
		return err
	})
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	h.discard(ctx, keys...)

	h.Log.Info("content deleted", "user_id", p.UserID, "content_id", row.ID, "type", row.ItemType, "item_id", row.ItemID)
	c.JSON(http.StatusOK, gin.H{"deleted": true, "module_id": row.ModuleID})
}

// List shows a module with its contents in stored order. A content row whose
// item is gone is logged and left out.
func (h *Handler) List(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	p := access.For(c.GetUint("user_id"))

	moduleID, ok := paramID(c, "module_id")
	if !ok {
		response.Error(c, h.Log, apierr.NotFound("module"))
		return
	}
	module, err := p.Module(db, moduleID)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	course, err := p.Course(db, module.CourseID)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	var rows []courses.Content
	if err := db.Where("module_id = ?", module.ID).Order("sort_index, id").Find(&rows).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}
	refs := make([]items.Ref, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.Ref())
	}
	resolved, err := items.ResolveMany(db, refs)
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}

	out := make([]ContentDTO, 0, len(rows))
	for _, row := range rows {
		it, ok := resolved[row.Ref()]
		if !ok {
			h.Log.Warn("dangling content reference", "content_id", row.ID, "type", row.ItemType, "item_id", row.ItemID)
			continue
		}
		out = append(out, NewContentDTO(row, it, h.Store))
	}

	c.JSON(http.StatusOK, gin.H{"course": course, "module": module, "contents": out})
}

// Reorder applies {"<content id>": position}. Ids the requester does not own
// are ignored.
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
		if err := p.Contents(tx).Where("contents.id IN ?", ids).Pluck("contents.id", &allowed).Error; err != nil {
			return err
		}
		updated, err = courses.ApplyOrder(tx, &courses.Content{}, allowed, positions)
		return err
	})
	if err != nil {
		response.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "updated": updated})
}

// storeUpload streams the form's file to the blob store and returns its key,
// or "" when the form carries no file.
func (h *Handler) storeUpload(ctx context.Context, schema items.Schema, form itemForm) (string, error) {
	up, ok := form.(uploadForm)
	if !ok || up.upload() == nil || !schema.Uploads {
		return "", nil
	}
	fh := up.upload()
	file, err := fh.Open()
	if err != nil {
		return "", apierr.BadRequest("cannot read upload")
	}
	defer file.Close()

	key := storage.NewKey(schema.Table, fh.Filename)
	if err := h.Store.Put(ctx, key, file); err != nil {
		return "", apierr.Internal(fmt.Errorf("store %s: %w", key, err))
	}
	return key, nil
}

// discard removes blobs once the rows no longer point at them. Failures only
// leave an unreferenced blob behind, so they are logged.
func (h *Handler) discard(ctx context.Context, keys ...string) {
	if h.Store == nil {
		return
	}
	if err := storage.DeleteAll(context.WithoutCancel(ctx), h.Store, keys); err != nil {
		h.Log.Warn("blob cleanup failed", "keys", keys, "error", err)
	}
}
