package featured

import (
	"context"
	"errors"
	"net/http"

	"github.com/WillSuttie/MvcBean/app/api"
	"github.com/WillSuttie/MvcBean/app/beans"
	"github.com/WillSuttie/MvcBean/models"
	"github.com/rs/zerolog/hlog"
)

type BeanOfTheDayResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	ColourHex    string  `json:"colourHex"`
	Aroma        string  `json:"aroma"`
	PricePer100g float64 `json:"pricePer100g"`
	SaleDate     string  `json:"saleDate"`
	Image        string  `json:"image"`
}

type TodayProvider interface {
	Today(ctx context.Context) (*models.Bean, error)
}

type FeaturedHandler struct {
	beans TodayProvider
}

func NewFeaturedHandler(p TodayProvider) *FeaturedHandler {
	return &FeaturedHandler{beans: p}
}

func (h *FeaturedHandler) HandleBeanOfTheDay(w http.ResponseWriter, r *http.Request) {
	bean, err := h.beans.Today(r.Context())
	if err != nil {
		if errors.Is(err, beans.ErrNotFound) {
			api.ErrorResponse(w, http.StatusNotFound, "No beans available for today's date.")
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to fetch bean of the day")
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch bean of the day")
		return
	}

	imagePath := bean.ImagePath
	if imagePath == "" {
		imagePath = models.PlaceholderImagePath
	}

	api.OKResponse(w, http.StatusOK, BeanOfTheDayResponse{
		ID:           bean.ID,
		Name:         bean.Name,
		ColourHex:    bean.ColourHex,
		Aroma:        bean.Aroma,
		PricePer100g: bean.PricePer100g.InexactFloat64(),
		SaleDate:     bean.SaleDate.String(),
		Image:        absoluteURL(r, imagePath),
	})
}

// absoluteURL resolves p against the scheme and host the request arrived on.
func absoluteURL(r *http.Request, p string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + p
}
