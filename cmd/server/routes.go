package main

import (
	"net/http"
	"time"

	"github.com/WillSuttie/MvcBean/app/auth"
	"github.com/WillSuttie/MvcBean/app/beans"
	"github.com/WillSuttie/MvcBean/app/catalog"
	"github.com/WillSuttie/MvcBean/app/featured"
	"github.com/WillSuttie/MvcBean/app/images"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type routerDeps struct {
	logger        zerolog.Logger
	store         *beans.Store
	authenticator auth.Authenticator
	imagesDir     string
	pageSize      int
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(deps.logger))
	r.Use(hlog.RequestIDHandler("requestID", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/api/beans/today", featured.NewFeaturedHandler(deps.store).HandleBeanOfTheDay)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin(deps.authenticator))
		r.Mount("/admin/beans", catalog.NewCatalogHandler(deps.store, deps.pageSize).Routes())
	})

	r.Handle(images.PublicPrefix+"*", http.StripPrefix(images.PublicPrefix, http.FileServer(http.Dir(deps.imagesDir))))

	return r
}
