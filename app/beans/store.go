package beans

import (
	"context"
	"errors"
	"time"

	"github.com/WillSuttie/MvcBean/app/images"
	"github.com/WillSuttie/MvcBean/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is one page of beans ordered by name.
type Page struct {
	Beans      []models.Bean
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// Store keeps bean records and their image files consistent. It is the
// only component that writes or removes image files.
type Store struct {
	repo      *models.BeansRepository
	storage   images.Storage
	validator *Validator
	tracer    trace.Tracer
	metrics   *storeMetrics
	now       func() time.Time
}

func NewStore(repo *models.BeansRepository, storage images.Storage, validator *Validator) *Store {
	return &Store{
		repo:      repo,
		storage:   storage,
		validator: validator,
		tracer:    otel.Tracer(instrumentationName),
		metrics:   newStoreMetrics(otel.GetMeterProvider()),
		now:       time.Now,
	}
}

// Validate checks candidate against the beans already scheduled on its sale
// date without changing anything.
func (s *Store) Validate(ctx context.Context, candidate *models.Bean) error {
	bean := *candidate
	bean.Normalize()

	existing, err := s.repo.FindBySaleDate(ctx, bean.SaleDate)
	if err != nil {
		return &StorageError{Op: "load beans for sale date", Err: err}
	}
	return s.validator.Validate(&bean, existing, bean.ID)
}

// Save validates and persists candidate together with an optional image.
// A new image is written before the record is committed and the image it
// replaces is removed only after the commit, so a stored record never
// points at a file that was not written.
func (s *Store) Save(ctx context.Context, candidate *models.Bean, upload *images.Upload, isNew bool) (saved *models.Bean, err error) {
	ctx, span := s.startSpan(ctx, "save", attribute.Bool("bean.new", isNew))
	defer func() { s.endOperation(ctx, span, "save", err) }()

	bean := *candidate
	bean.Normalize()

	// Image paths are only ever set by the store.
	var previousImage string
	if isNew {
		bean.ID = 0
		bean.ImagePath = ""
	} else {
		stored, err := s.repo.GetByID(ctx, bean.ID)
		if err != nil {
			if errors.Is(err, models.ErrBeanNotFound) {
				return nil, ErrNotFound
			}
			return nil, &StorageError{Op: "load bean", Err: err}
		}
		previousImage = stored.ImagePath
		bean.ImagePath = stored.ImagePath
	}

	existing, err := s.repo.FindBySaleDate(ctx, bean.SaleDate)
	if err != nil {
		return nil, &StorageError{Op: "load beans for sale date", Err: err}
	}
	checked := bean
	if !upload.Empty() {
		checked.ImagePath = upload.Filename
	}
	if err := s.validator.Validate(&checked, existing, bean.ID); err != nil {
		return nil, err
	}

	var written string
	switch {
	case !upload.Empty():
		name, err := images.StorageName(bean.SaleDate, upload.Filename)
		if err != nil {
			return nil, invalidImageType()
		}
		if name, err = s.unclaimedName(ctx, name, bean.ID); err != nil {
			return nil, err
		}
		if err := s.storage.Write(ctx, name, upload.Data); err != nil {
			return nil, &StorageError{Op: "write image", Err: err}
		}
		s.recordImageSize(ctx, len(upload.Data))
		written = images.PublicPath(name)
		bean.ImagePath = written
	case !bean.HasCustomImage():
		bean.ImagePath = models.PlaceholderImagePath
	}

	if isNew {
		err = s.repo.Create(ctx, &bean)
	} else {
		err = s.repo.Update(ctx, &bean)
	}
	if err != nil {
		if written != "" && written != previousImage {
			s.removeImageFile(ctx, written)
		}
		if errors.Is(err, models.ErrBeanNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "save bean", Err: err}
	}

	if written != "" && previousImage != written {
		s.removeImageFile(ctx, previousImage)
	}

	log.Ctx(ctx).Info().
		Uint("beanID", bean.ID).
		Str("name", bean.Name).
		Str("saleDate", bean.SaleDate.String()).
		Bool("new", isNew).
		Msg("Saved bean")

	return &bean, nil
}

// RemoveImage resets the bean's image to the placeholder and removes the
// old file. It returns false when the bean does not exist or has no custom
// image.
func (s *Store) RemoveImage(ctx context.Context, id uint) (removed bool, err error) {
	ctx, span := s.startSpan(ctx, "remove_image", attribute.Int64("bean.id", int64(id)))
	defer func() { s.endOperation(ctx, span, "remove_image", err) }()

	bean, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrBeanNotFound) {
			return false, nil
		}
		return false, &StorageError{Op: "load bean", Err: err}
	}

	if !bean.HasCustomImage() {
		return false, nil
	}

	oldImage := bean.ImagePath
	bean.ImagePath = models.PlaceholderImagePath
	if err := s.repo.Update(ctx, bean); err != nil {
		if errors.Is(err, models.ErrBeanNotFound) {
			return false, nil
		}
		return false, &StorageError{Op: "reset bean image", Err: err}
	}

	s.removeImageFile(ctx, oldImage)
	return true, nil
}

// Delete removes the bean and reclaims its image file. The image reset and
// the record removal share one transaction; the file is only removed once
// that transaction has committed.
func (s *Store) Delete(ctx context.Context, id uint) (deleted bool, err error) {
	ctx, span := s.startSpan(ctx, "delete", attribute.Int64("bean.id", int64(id)))
	defer func() { s.endOperation(ctx, span, "delete", err) }()

	bean, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrBeanNotFound) {
			return false, nil
		}
		return false, &StorageError{Op: "load bean", Err: err}
	}

	oldImage := bean.ImagePath
	err = s.repo.Transaction(ctx, func(tx *models.BeansRepository) error {
		if bean.HasCustomImage() {
			bean.ImagePath = models.PlaceholderImagePath
			if err := tx.Update(ctx, bean); err != nil {
				return err
			}
		}
		return tx.Delete(ctx, bean.ID)
	})
	if err != nil {
		if errors.Is(err, models.ErrBeanNotFound) {
			return false, nil
		}
		return false, &StorageError{Op: "delete bean", Err: err}
	}

	s.removeImageFile(ctx, oldImage)

	log.Ctx(ctx).Info().Uint("beanID", id).Msg("Deleted bean")
	return true, nil
}

func (s *Store) GetByID(ctx context.Context, id uint) (*models.Bean, error) {
	bean, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrBeanNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "load bean", Err: err}
	}
	return bean, nil
}

func (s *Store) GetBySaleDate(ctx context.Context, date models.Date) (*models.Bean, error) {
	bean, err := s.repo.GetBySaleDate(ctx, date)
	if err != nil {
		if errors.Is(err, models.ErrBeanNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "load bean by sale date", Err: err}
	}
	return bean, nil
}

// Today returns the bean on sale today in local time.
func (s *Store) Today(ctx context.Context) (*models.Bean, error) {
	return s.GetBySaleDate(ctx, models.DateOf(s.now()))
}

// List returns the requested page of beans ordered by name. Page numbers
// start at 1; out-of-range page sizes fall back to the defaults.
func (s *Store) List(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	} else if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	beans, total, err := s.repo.GetPaginated(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, &StorageError{Op: "list beans", Err: err}
	}

	return &Page{
		Beans:      beans,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

// AverageColour returns the mean colour of the bean's image as #RRGGBB.
// A record whose image file has gone missing yields images.ErrImageNotFound.
func (s *Store) AverageColour(ctx context.Context, id uint) (string, error) {
	bean, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	imagePath := bean.ImagePath
	if imagePath == "" {
		imagePath = models.PlaceholderImagePath
	}

	data, err := s.storage.Read(ctx, images.NameFromPublicPath(imagePath))
	if err != nil {
		return "", err
	}

	return images.AverageColourHex(data)
}

// unclaimedName returns name, or a suffixed variant of it, such that no bean
// other than ownerID references the resulting file. A bean keeps its old
// file name when its sale date moves, so a later bean on that date can
// derive the same name.
func (s *Store) unclaimedName(ctx context.Context, name string, ownerID uint) (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		inUse, err := s.repo.ImagePathInUse(ctx, images.PublicPath(name), ownerID)
		if err != nil {
			return "", &StorageError{Op: "check image name", Err: err}
		}
		if !inUse {
			return name, nil
		}
		name = images.UniqueStorageName(name)
	}
	return "", &StorageError{Op: "check image name", Err: errors.New("no free image name")}
}

// removeImageFile deletes the file behind a public image path. Failures are
// logged and otherwise ignored; the placeholder is never removed.
func (s *Store) removeImageFile(ctx context.Context, publicPath string) {
	if publicPath == "" || publicPath == models.PlaceholderImagePath {
		return
	}

	if err := s.storage.Delete(ctx, images.NameFromPublicPath(publicPath)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("path", publicPath).Msg("Failed to remove image file")
	}
}
