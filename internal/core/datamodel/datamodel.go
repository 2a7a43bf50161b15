// Package datamodel holds shared persistence value types embedded by the
// entity models. Audit and soft-delete columns are composed in as struct
// fields rather than inherited, so an entity either carries them or not.
package datamodel

import "time"

// AuditInfo records when and by whom a row was created and last changed.
type AuditInfo struct {
	CreatedAt time.Time `gorm:"column:created_at;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()" json:"updated_at"`
	CreatedBy *string   `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy *string   `gorm:"column:updated_by" json:"updated_by,omitempty"`
}

// SoftDeleteInfo marks a row as hidden without physically removing it.
// A nil DeletedAt means the row is live.
type SoftDeleteInfo struct {
	DeletedAt *time.Time `gorm:"column:deleted_at;index" json:"-"`
	DeletedBy *string    `gorm:"column:deleted_by" json:"-"`
}

// IsDeleted reports whether the row is soft-deleted.
func (s SoftDeleteInfo) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted stamps the soft-delete columns.
func (s *SoftDeleteInfo) MarkDeleted(now time.Time, actorID string) {
	s.DeletedAt = &now
	if actorID != "" {
		s.DeletedBy = &actorID
	}
}

// ClearDeleted restores a soft-deleted row.
func (s *SoftDeleteInfo) ClearDeleted() {
	s.DeletedAt = nil
	s.DeletedBy = nil
}
