package content

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"course-studio/internal/domain/items"
	"course-studio/internal/platform/apierr"
	"course-studio/internal/platform/response"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

const (
	msgRequired = "This field is required."
	msgImage    = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

var ugc = bluemonday.UGCPolicy()

// itemForm is the editable part of one content type. Each type validates
// itself; owner and ids never come from the form.
type itemForm interface {
	validate(creating bool) apierr.FieldErrors
	apply(it items.Item)
}

// uploadForm is implemented by forms that carry a file part.
type uploadForm interface {
	itemForm
	upload() *multipart.FileHeader
	setUpload(fh *multipart.FileHeader)
}

type TextForm struct {
	Title   string `form:"title" json:"title" binding:"required,max=250"`
	Content string `form:"content" json:"content" binding:"required"`
}

type VideoForm struct {
	Title string `form:"title" json:"title" binding:"required,max=250"`
	URL   string `form:"url" json:"url" binding:"required,max=200,http_url"`
}

// UploadForm serves both images and files.
type UploadForm struct {
	Title string `form:"title" json:"title" binding:"required,max=250"`
	File  string `form:"-" json:"file"`

	kind     items.Kind
	maxBytes int64
	header   *multipart.FileHeader
}

func newForm(kind items.Kind, maxBytes int64) itemForm {
	switch kind {
	case items.KindText:
		return &TextForm{}
	case items.KindVideo:
		return &VideoForm{}
	case items.KindImage, items.KindFile:
		return &UploadForm{kind: kind, maxBytes: maxBytes}
	}
	return nil
}

// formFrom fills a form with an item's current values.
func formFrom(it items.Item, maxBytes int64) itemForm {
	switch v := it.(type) {
	case *items.Text:
		return &TextForm{Title: v.Title, Content: v.Content}
	case *items.Video:
		return &VideoForm{Title: v.Title, URL: v.URL}
	case *items.Image:
		return &UploadForm{Title: v.Title, File: v.File, kind: items.KindImage, maxBytes: maxBytes}
	case *items.File:
		return &UploadForm{Title: v.Title, File: v.File, kind: items.KindFile, maxBytes: maxBytes}
	}
	return nil
}

func cleanTitle(title *string, errs apierr.FieldErrors) {
	*title = strings.TrimSpace(*title)
	if *title == "" {
		errs.Add("title", msgRequired)
	}
}

func (f *TextForm) validate(bool) apierr.FieldErrors {
	errs := apierr.FieldErrors{}
	cleanTitle(&f.Title, errs)
	f.Content = strings.TrimSpace(ugc.Sanitize(f.Content))
	if f.Content == "" {
		errs.Add("content", msgRequired)
	}
	return errs
}

func (f *TextForm) apply(it items.Item) {
	if t, ok := it.(*items.Text); ok {
		t.Title = f.Title
		t.Content = f.Content
	}
}

func (f *VideoForm) validate(bool) apierr.FieldErrors {
	errs := apierr.FieldErrors{}
	cleanTitle(&f.Title, errs)
	f.URL = strings.TrimSpace(f.URL)
	if f.URL == "" {
		errs.Add("url", msgRequired)
	}
	return errs
}

func (f *VideoForm) apply(it items.Item) {
	if v, ok := it.(*items.Video); ok {
		v.Title = f.Title
		v.URL = f.URL
	}
}

// validate requires a file on create only; on update a missing file keeps
// the stored one.
func (f *UploadForm) validate(creating bool) apierr.FieldErrors {
	errs := apierr.FieldErrors{}
	cleanTitle(&f.Title, errs)

	if f.header == nil {
		if creating {
			errs.Add("file", msgRequired)
		}
		return errs
	}
	if f.header.Size == 0 {
		errs.Add("file", "The submitted file is empty.")
		return errs
	}
	if f.maxBytes > 0 && f.header.Size > f.maxBytes {
		errs.Add("file", fmt.Sprintf("Ensure this file is no larger than %d MB.", f.maxBytes>>20))
		return errs
	}
	if f.kind == items.KindImage && !isImage(f.header) {
		errs.Add("file", msgImage)
	}
	return errs
}

func (f *UploadForm) apply(it items.Item) {
	items.BaseOf(it).Title = f.Title
}

func (f *UploadForm) upload() *multipart.FileHeader { return f.header }

func (f *UploadForm) setUpload(fh *multipart.FileHeader) { f.header = fh }

func isImage(fh *multipart.FileHeader) bool {
	file, err := fh.Open()
	if err != nil {
		return false
	}
	defer file.Close()
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt.String(), "image/")
}

// bindForm reads the request into form and runs its validator. A non-nil
// error means the body could not be read at all.
func bindForm(c *gin.Context, form itemForm, creating bool) (apierr.FieldErrors, error) {
	errs := apierr.FieldErrors{}
	if err := c.ShouldBind(form); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apierr.TooLarge(fmt.Errorf("request body exceeds %d bytes", tooBig.Limit))
		}
		fields, ok := response.BindErrors(err)
		if !ok {
			return nil, apierr.BadRequest("malformed content payload")
		}
		for k, v := range fields {
			errs.Add(k, v)
		}
	}
	if up, ok := form.(uploadForm); ok {
		if fh, err := c.FormFile("file"); err == nil {
			up.setUpload(fh)
		}
	}
	for k, v := range form.validate(creating) {
		errs.Add(k, v)
	}
	return errs, nil
}
