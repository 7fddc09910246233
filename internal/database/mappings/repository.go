// Package mappings stores short link mappings in SQLite through GORM.
//
// All timestamps are written and compared in UTC: the sqlite driver stores
// times as text, so mixed offsets would break ordering.
package mappings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/shortlinks/internal/entities"
	"github.com/mrlokans/shortlinks/internal/links"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert creates m. An existing row at the same path yields links.ErrDuplicatePath.
func (r *Repository) Insert(ctx context.Context, m *entities.Mapping) error {
	normalize(m)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := pathExists(tx, m.Path)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %q", links.ErrDuplicatePath, m.Path)
		}
		return translate(tx.Create(m).Error, m.Path)
	})
}

// Get returns the mapping at path or links.ErrNotFound.
func (r *Repository) Get(ctx context.Context, path string) (*entities.Mapping, error) {
	var m entities.Mapping
	err := r.db.WithContext(ctx).Where("path = ?", path).First(&m).Error
	if err != nil {
		return nil, translate(err, path)
	}
	return &m, nil
}

// Replace overwrites the row at originalPath with m in a single UPDATE.
// created_at is left untouched, so a rename keeps the original creation time.
func (r *Repository) Replace(ctx context.Context, originalPath string, m *entities.Mapping) error {
	normalize(m)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := pathExists(tx, originalPath)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %q", links.ErrNotFound, originalPath)
		}

		if m.Path != originalPath {
			taken, err := pathExists(tx, m.Path)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: %q", links.ErrDuplicatePath, m.Path)
			}
		}

		// A map is used so nil pointers are written as NULL.
		result := tx.Model(&entities.Mapping{}).
			Where("path = ?", originalPath).
			Updates(map[string]interface{}{
				"path":        m.Path,
				"target":      m.Target,
				"name":        m.Name,
				"expiry":      m.Expiry,
				"enabled":     m.Enabled,
				"qrCodeData1": m.QRCodeData1,
				"qrCodeData2": m.QRCodeData2,
				"qrOrder":     m.QROrder,
			})
		if result.Error != nil {
			return translate(result.Error, m.Path)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %q", links.ErrNotFound, originalPath)
		}
		return nil
	})
}

// Delete removes the mapping at path. A missing row is not an error.
func (r *Repository) Delete(ctx context.Context, path string) error {
	return r.db.WithContext(ctx).Where("path = ?", path).Delete(&entities.Mapping{}).Error
}

// ListPage returns one page ordered by creation time, newest first, and the
// total number of rows outside exclude.
func (r *Repository) ListPage(ctx context.Context, exclude links.Exclusion, limit, offset int) ([]entities.Mapping, int64, error) {
	var items []entities.Mapping
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.Mapping{})
	if len(exclude.Paths) > 0 {
		query = query.Where("path NOT IN ?", exclude.Paths)
	}
	for _, prefix := range exclude.Prefixes {
		query = query.Where(`path NOT LIKE ? ESCAPE '\'`, likePrefix(prefix))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Mapping{}, 0, nil
	}

	err := query.Order("created_at DESC").Order("path ASC").
		Limit(limit).Offset(offset).
		Find(&items).Error
	return items, total, err
}

// FindEnabledExpiringBefore returns enabled mappings with an expiry at or
// before until, soonest first.
func (r *Repository) FindEnabledExpiringBefore(ctx context.Context, until time.Time) ([]entities.Mapping, error) {
	var items []entities.Mapping
	err := r.db.WithContext(ctx).
		Where("enabled = ? AND expiry IS NOT NULL AND expiry <= ?", true, until.UTC()).
		Order("expiry ASC").Order("path ASC").
		Find(&items).Error
	return items, err
}

// FindExpiredPaths returns up to limit paths whose expiry lies strictly
// before the given instant, regardless of the enabled flag.
func (r *Repository) FindExpiredPaths(ctx context.Context, before time.Time, limit int) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&entities.Mapping{}).
		Where("expiry IS NOT NULL AND expiry < ?", before.UTC()).
		Order("expiry ASC").
		Limit(limit).
		Pluck("path", &paths).Error
	return paths, err
}

// DeletePaths removes the given mappings and reports how many rows went away.
func (r *Repository) DeletePaths(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("path IN ?", paths).Delete(&entities.Mapping{})
	return result.RowsAffected, result.Error
}

// Count returns the number of stored mappings, reserved names included.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entities.Mapping{}).Count(&total).Error
	return total, err
}

func pathExists(tx *gorm.DB, path string) (bool, error) {
	var n int64
	if err := tx.Model(&entities.Mapping{}).Where("path = ?", path).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func normalize(m *entities.Mapping) {
	if m.Expiry != nil {
		utc := m.Expiry.UTC()
		m.Expiry = &utc
	}
	if !m.CreatedAt.IsZero() {
		m.CreatedAt = m.CreatedAt.UTC()
	}
}

func translate(err error, path string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %q", links.ErrNotFound, path)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %q", links.ErrDuplicatePath, path)
	default:
		return err
	}
}

var _ links.Store = (*Repository)(nil)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePrefix builds a LIKE pattern matching values that start with prefix.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
