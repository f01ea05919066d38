package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/WillSuttie/MvcBean/app/api"
	"github.com/WillSuttie/MvcBean/app/beans"
	"github.com/WillSuttie/MvcBean/app/images"
	"github.com/WillSuttie/MvcBean/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/shopspring/decimal"
)

const (
	maxUploadSize  = 10 << 20
	// maxRequestSize leaves room for the text fields next to the image.
	maxRequestSize = maxUploadSize + 1<<20
)

var errUploadTooLarge = errors.New("upload too large")

type Bean struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	SaleDate     string  `json:"saleDate"`
	Aroma        string  `json:"aroma"`
	ColourHex    string  `json:"colourHex"`
	PricePer100g float64 `json:"pricePer100g"`
	ImagePath    string  `json:"imagePath"`
}

type Response struct {
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
	Beans      []Bean `json:"beans"`
}

type ValidationResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

type BeanService interface {
	List(ctx context.Context, page, pageSize int) (*beans.Page, error)
	GetByID(ctx context.Context, id uint) (*models.Bean, error)
	Save(ctx context.Context, candidate *models.Bean, upload *images.Upload, isNew bool) (*models.Bean, error)
	RemoveImage(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	AverageColour(ctx context.Context, id uint) (string, error)
}

type CatalogHandler struct {
	beans    BeanService
	pageSize int
}

func NewCatalogHandler(s BeanService, pageSize int) *CatalogHandler {
	if pageSize < 1 {
		pageSize = beans.DefaultPageSize
	}
	return &CatalogHandler{
		beans:    s,
		pageSize: pageSize,
	}
}

// Routes returns the admin bean routes, to be mounted behind auth.RequireAdmin.
func (h *CatalogHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.HandleGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/remove-image", h.HandleRemoveImage)
	r.Get("/{id}/average-colour", h.HandleAverageColour)
	return r
}

func toBean(b *models.Bean) Bean {
	return Bean{
		ID:           b.ID,
		Name:         b.Name,
		SaleDate:     b.SaleDate.String(),
		Aroma:        b.Aroma,
		ColourHex:    b.ColourHex,
		PricePer100g: b.PricePer100g.InexactFloat64(),
		ImagePath:    b.ImagePath,
	}
}

func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := 1
	pageSize := h.pageSize

	if pStr := r.URL.Query().Get("page"); pStr != "" {
		if p, err := strconv.Atoi(pStr); err == nil && p >= 1 {
			page = p
		}
	}

	if sStr := r.URL.Query().Get("pageSize"); sStr != "" {
		if s, err := strconv.Atoi(sStr); err == nil {
			if s < 1 {
				pageSize = 1
			} else if s > beans.MaxPageSize {
				pageSize = beans.MaxPageSize
			} else {
				pageSize = s
			}
		}
	}

	res, err := h.beans.List(r.Context(), page, pageSize)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to list beans")
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve beans")
		return
	}

	items := make([]Bean, len(res.Beans))
	for i := range res.Beans {
		items[i] = toBean(&res.Beans[i])
	}

	api.OKResponse(w, http.StatusOK, Response{
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
		Beans:      items,
	})
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := beanID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusNotFound, "Bean not found")
		return
	}

	bean, err := h.beans.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to retrieve bean")
		return
	}

	api.OKResponse(w, http.StatusOK, toBean(bean))
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	candidate, upload, err := parseBeanForm(w, r)
	if err != nil {
		h.writeError(w, r, err, "Invalid form data")
		return
	}

	saved, err := h.beans.Save(r.Context(), candidate, upload, true)
	if err != nil {
		h.writeError(w, r, err, "Failed to save bean")
		return
	}

	api.OKResponse(w, http.StatusCreated, toBean(saved))
}

func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := beanID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusNotFound, "Bean not found")
		return
	}

	candidate, upload, err := parseBeanForm(w, r)
	if err != nil {
		h.writeError(w, r, err, "Invalid form data")
		return
	}
	candidate.ID = id

	saved, err := h.beans.Save(r.Context(), candidate, upload, false)
	if err != nil {
		h.writeError(w, r, err, "Failed to save bean")
		return
	}

	api.OKResponse(w, http.StatusOK, toBean(saved))
}

func (h *CatalogHandler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	id, ok := beanID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusBadRequest, "Failed to remove image.")
		return
	}

	removed, err := h.beans.RemoveImage(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to remove image.")
		return
	}
	if !removed {
		hlog.FromRequest(r).Warn().Uint("beanID", id).Msg("Failed to remove image")
		api.ErrorResponse(w, http.StatusBadRequest, "Failed to remove image.")
		return
	}

	api.OKResponse(w, http.StatusOK, map[string]bool{"removed": true})
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := beanID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusNotFound, "Bean not found")
		return
	}

	deleted, err := h.beans.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "Failed to delete bean")
		return
	}
	if !deleted {
		api.ErrorResponse(w, http.StatusNotFound, "Bean not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) HandleAverageColour(w http.ResponseWriter, r *http.Request) {
	id, ok := beanID(r)
	if !ok {
		api.ErrorResponse(w, http.StatusNotFound, "Bean not found")
		return
	}

	hex, err := h.beans.AverageColour(r.Context(), id)
	if err != nil {
		if errors.Is(err, images.ErrImageNotFound) {
			api.ErrorResponse(w, http.StatusNotFound, "Image not found")
			return
		}
		h.writeError(w, r, err, "Failed to compute average colour")
		return
	}

	api.OKResponse(w, http.StatusOK, map[string]string{"colourHex": hex})
}

// writeError maps store errors onto status codes. Anything that is not a
// validation or not-found error is logged and reported with fallback.
func (h *CatalogHandler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validationErr *beans.ValidationError
	switch {
	case errors.As(err, &validationErr):
		api.OKResponse(w, http.StatusBadRequest, ValidationResponse{
			Error: validationErr.Message,
			Kind:  validationErr.Kind.String(),
			Field: validationErr.Field,
		})
	case errors.Is(err, errUploadTooLarge):
		api.ErrorResponse(w, http.StatusRequestEntityTooLarge, "The image must not exceed 10 MB.")
	case errors.Is(err, beans.ErrNotFound):
		api.ErrorResponse(w, http.StatusNotFound, "Bean not found")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg(fallback)
		api.ErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}

func beanID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseBeanForm reads a bean and an optional image from a multipart or
// urlencoded form. Malformed dates and prices are reported as validation
// errors.
func parseBeanForm(w http.ResponseWriter, r *http.Request) (*models.Bean, *images.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, errUploadTooLarge
		}
		return nil, nil, &beans.ValidationError{
			Kind:    beans.InvalidFormat,
			Message: "Invalid form data.",
		}
	}

	bean := &models.Bean{
		Name:      r.FormValue("name"),
		Aroma:     r.FormValue("aroma"),
		ColourHex: r.FormValue("colourHex"),
	}

	if s := strings.TrimSpace(r.FormValue("saleDate")); s != "" {
		date, err := models.ParseDate(s)
		if err != nil {
			return nil, nil, &beans.ValidationError{
				Kind:    beans.InvalidFormat,
				Field:   "saleDate",
				Message: "The Sale Date must be in yyyy-MM-dd format.",
			}
		}
		bean.SaleDate = date
	}

	if s := strings.TrimSpace(r.FormValue("price")); s != "" {
		price, err := CleanPrice(s)
		if err != nil {
			return nil, nil, &beans.ValidationError{
				Kind:    beans.InvalidFormat,
				Field:   "pricePer100g",
				Message: "Invalid price format.",
			}
		}
		bean.PricePer100g = price
	}

	bean.Normalize()

	upload, err := readUpload(r)
	if err != nil {
		return nil, nil, err
	}

	return bean, upload, nil
}

func readUpload(r *http.Request) (*images.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadSize {
		return nil, errUploadTooLarge
	}

	return &images.Upload{Filename: header.Filename, Data: data}, nil
}

// CleanPrice parses a price typed by a user, dropping currency symbols and
// thousands separators, and rounds it to two decimal places.
func CleanPrice(input string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("£", "", "$", "", ",", "").Replace(strings.TrimSpace(input))
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Round(models.PriceScale), nil
}
