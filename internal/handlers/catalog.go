package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"harmonia/api/internal/media/sniffer"
	"harmonia/api/internal/service"
)

const maxMediaBytes = 50 << 20

type categoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=1000"`
}

func (h HandlerSet) ListCategories(c *gin.Context) {
	categories, err := h.svc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": mapSlice(categories, toCategoryResponse)})
}

func (h HandlerSet) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.svc.Catalog.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": toCategoryResponse(category)})
}

func (h HandlerSet) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.svc.Catalog.UpdateCategory(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": toCategoryResponse(category)})
}

func (h HandlerSet) DeleteCategory(c *gin.Context) {
	if err := h.svc.Catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func (h HandlerSet) ListInstruments(c *gin.Context) {
	instruments, err := h.svc.Catalog.ListInstruments(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instruments": mapSlice(instruments, toInstrumentResponse)})
}

func (h HandlerSet) GetInstrument(c *gin.Context) {
	instrument, err := h.svc.Catalog.GetInstrument(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instrument": toInstrumentResponse(instrument)})
}

func (h HandlerSet) CreateInstrument(c *gin.Context) {
	input, err := instrumentForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	instrument, err := h.svc.Catalog.CreateInstrument(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"instrument": toInstrumentResponse(instrument)})
}

func (h HandlerSet) UpdateInstrument(c *gin.Context) {
	input, err := instrumentForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	instrument, err := h.svc.Catalog.UpdateInstrument(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instrument": toInstrumentResponse(instrument)})
}

func (h HandlerSet) DeleteInstrument(c *gin.Context) {
	if err := h.svc.Catalog.DeleteInstrument(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Instrument deleted"})
}

// instrumentForm reads the multipart instrument form. Files are optional here;
// the service decides which are required.
func instrumentForm(c *gin.Context) (service.InstrumentInput, error) {
	if _, err := c.MultipartForm(); err != nil {
		return service.InstrumentInput{}, &service.ValidationError{
			Fields: map[string]string{"body": "expected multipart/form-data"},
		}
	}

	input := service.InstrumentInput{
		Name:                 c.PostForm("name"),
		Description:          c.PostForm("description"),
		HistoricalBackground: c.PostForm("historicalBackground"),
	}

	if raw, ok := c.GetPostFormArray("categories"); ok {
		ids, err := parseCategories(raw)
		if err != nil {
			return service.InstrumentInput{}, &service.ValidationError{
				Fields: map[string]string{"categories": "must be a JSON array or comma separated list of ids"},
			}
		}
		input.CategoryIDs = ids
	}

	fields := map[string]string{}
	for _, f := range []struct {
		name string
		dst  **service.MediaUpload
	}{
		{"image", &input.Image},
		{"video", &input.Video},
		{"audio", &input.Audio},
	} {
		upload, err := formUpload(c, f.name)
		if err != nil {
			fields[f.name] = err.Error()
			continue
		}
		*f.dst = upload
	}
	if len(fields) > 0 {
		return service.InstrumentInput{}, &service.ValidationError{Fields: fields}
	}
	return input, nil
}

func parseCategories(raw []string) ([]string, error) {
	if len(raw) == 1 {
		v := strings.TrimSpace(raw[0])
		if strings.HasPrefix(v, "[") {
			var ids []string
			if err := json.Unmarshal([]byte(v), &ids); err != nil {
				return nil, err
			}
			return ids, nil
		}
		if v == "" {
			return []string{}, nil
		}
		return strings.Split(v, ","), nil
	}
	return raw, nil
}

var errFileTooLarge = fmt.Errorf("file exceeds %d MiB", maxMediaBytes>>20)

// formUpload returns nil, nil when the field is absent.
func formUpload(c *gin.Context, field string) (*service.MediaUpload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("unreadable file")
	}
	if header.Size > maxMediaBytes {
		return nil, errFileTooLarge
	}

	data, err := readUpload(header)
	if err != nil {
		return nil, err
	}
	return &service.MediaUpload{
		Data:         data,
		DeclaredType: sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
	}, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, errors.New("unreadable file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxMediaBytes+1))
	if err != nil {
		return nil, errors.New("unreadable file")
	}
	if len(data) > maxMediaBytes {
		return nil, errFileTooLarge
	}
	return data, nil
}
