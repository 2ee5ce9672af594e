package controller

import (
	"io"
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dto"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

// multipart overhead allowed on top of the file itself
const formOverheadBytes = 1 << 20

// limitBody cap the request body for multipart endpoints
func (h *Blog) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+formOverheadBytes)
}

// readUpload read the file of field, nil if the field is absent
func (h *Blog) readUpload(c *gin.Context, field string) (*dto.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, model.NewUserError(model.ErrInvalidArgument, "%s is too large", field)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		default:
			return nil, model.NewUserError(model.ErrInvalidArgument, "invalid multipart form")
		}
	}
	if fh.Size > h.cfg.MaxUploadBytes {
		return nil, model.NewUserError(model.ErrInvalidArgument, "%s is too large", field)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", field)
	}
	defer f.Close() // nolint: errcheck

	data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", field)
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		return nil, model.NewUserError(model.ErrInvalidArgument, "%s is too large", field)
	}

	return &dto.Upload{Filename: fh.Filename, Data: data}, nil
}

// optionalForm value of a form field, nil if the field is absent
func optionalForm(c *gin.Context, field string) *string {
	if v, ok := c.GetPostForm(field); ok {
		return &v
	}

	return nil
}
