// Package identity allots the monotonically increasing public ids handed out
// to users and posts. Document ids stay UUIDs; public ids exist so the API can
// expose small numeric identifiers.
package identity

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/Deepakgauttam/twitter-clone/internal/models"
)

// settingsVer keys the single counter row.
const settingsVer = "1.0"

// Registry hands out public ids from the internal_settings counter row.
//
// Allotments run inside the caller's transaction so an aborted transition
// never burns a visible id gap in committed state. The mutex serializes
// concurrent allotments in this process; the registry assumes a single writer
// deployment (see DESIGN.md).
type Registry struct {
	mu sync.Mutex
}

// New returns a Registry.
func New() *Registry {
	return &Registry{}
}

// NextUserID allots the next public user id within tx.
func (r *Registry) NextUserID(tx *gorm.DB) (int64, error) {
	return r.next(tx, "current_user_id")
}

// NextPostID allots the next public post id within tx.
func (r *Registry) NextPostID(tx *gorm.DB) (int64, error) {
	return r.next(tx, "current_post_id")
}

func (r *Registry) next(tx *gorm.DB, column string) (int64, error) {
	if column != "current_user_id" && column != "current_post_id" {
		return 0, fmt.Errorf("unknown counter column %q", column)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var setting models.InternalSetting
	if err := tx.Where(models.InternalSetting{Ver: settingsVer}).
		FirstOrCreate(&setting).Error; err != nil {
		return 0, fmt.Errorf("failed to load id counter: %w", err)
	}

	// Atomic increment: the row lock serializes concurrent transactions, so
	// read-modify-write lost updates cannot occur.
	if err := tx.Model(&models.InternalSetting{}).
		Where("ver = ?", settingsVer).
		Update(column, gorm.Expr(column+" + 1")).Error; err != nil {
		return 0, fmt.Errorf("failed to advance id counter: %w", err)
	}

	var next int64
	if err := tx.Model(&models.InternalSetting{}).
		Where("ver = ?", settingsVer).
		Select(column).
		Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("failed to read id counter: %w", err)
	}

	return next, nil
}
