package models

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type BeansRepository struct {
	db *gorm.DB
}

var (
	// ErrBeanNotFound is returned when a bean is not found.
	ErrBeanNotFound = errors.New("bean not found")

	// ErrDuplicateSaleDate is returned when the unique index on sale_date rejects a write.
	ErrDuplicateSaleDate = errors.New("another bean is already on sale on that date")
)

// uniqueViolation is the postgres SQLSTATE for unique_violation.
const uniqueViolation = pq.ErrorCode("23505")

func NewBeansRepository(db *gorm.DB) *BeansRepository {
	return &BeansRepository{
		db: db,
	}
}

// Transaction runs fn against a repository bound to a single database
// transaction. The transaction commits when fn returns nil and rolls back
// otherwise.
func (r *BeansRepository) Transaction(ctx context.Context, fn func(tx *BeansRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BeansRepository{db: tx})
	})
}

func (r *BeansRepository) GetByID(ctx context.Context, id uint) (*Bean, error) {
	var bean Bean
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&bean).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBeanNotFound
		}
		return nil, err
	}
	return &bean, nil
}

func (r *BeansRepository) GetBySaleDate(ctx context.Context, date Date) (*Bean, error) {
	var bean Bean
	if err := r.db.WithContext(ctx).
		Where("sale_date = ?", date).
		First(&bean).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBeanNotFound
		}
		return nil, err
	}
	return &bean, nil
}

// FindBySaleDate returns every bean scheduled on date. With the unique
// index in place this is at most one row.
func (r *BeansRepository) FindBySaleDate(ctx context.Context, date Date) ([]Bean, error) {
	var beans []Bean
	if err := r.db.WithContext(ctx).
		Where("sale_date = ?", date).
		Find(&beans).Error; err != nil {
		return nil, err
	}
	return beans, nil
}

// ImagePathInUse reports whether a bean other than excludeID references
// imagePath.
func (r *BeansRepository) ImagePathInUse(ctx context.Context, imagePath string, excludeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&Bean{}).
		Where("image_path = ? AND id <> ?", imagePath, excludeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetPaginated returns one page of beans ordered by name along with the
// total number of beans.
func (r *BeansRepository) GetPaginated(ctx context.Context, offset, limit int) ([]Bean, int64, error) {
	var beans []Bean
	var total int64

	query := r.db.WithContext(ctx).Model(&Bean{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("name ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&beans).Error; err != nil {
		return nil, 0, err
	}

	return beans, total, nil
}

func (r *BeansRepository) Create(ctx context.Context, bean *Bean) error {
	return translateWriteError(r.db.WithContext(ctx).Create(bean).Error)
}

// Update replaces every column of the bean identified by bean.ID.
func (r *BeansRepository) Update(ctx context.Context, bean *Bean) error {
	res := r.db.WithContext(ctx).
		Model(&Bean{}).
		Where("id = ?", bean.ID).
		Select("*").
		Omit("id").
		Updates(bean)
	if err := translateWriteError(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrBeanNotFound
	}
	return nil
}

func (r *BeansRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Bean{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBeanNotFound
	}
	return nil
}

func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSaleDate
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateSaleDate
	}
	return err
}
