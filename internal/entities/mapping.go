package entities

import "time"

// Mapping is a short path pointing at a target URL. The QR columns keep the
// camelCase names of the pre-existing schema so upgraded databases retain
// their data.
type Mapping struct {
	Path        string     `gorm:"primaryKey;size:255" json:"path"`
	Target      string     `gorm:"type:text;not null" json:"target"`
	Name        *string    `gorm:"type:text" json:"name"`
	Expiry      *time.Time `gorm:"index:idx_mappings_expiry;index:idx_mappings_enabled_expiry,priority:2" json:"expiry"`
	Enabled     bool       `gorm:"not null;index:idx_mappings_enabled_expiry,priority:1" json:"enabled"`
	QRCodeData1 *string    `gorm:"column:qrCodeData1;type:text" json:"qrCodeData1"`
	QRCodeData2 *string    `gorm:"column:qrCodeData2;type:text" json:"qrCodeData2"`
	QROrder     *string    `gorm:"column:qrOrder;type:text" json:"qrOrder"`
	CreatedAt   time.Time  `gorm:"index:idx_mappings_created_at;<-:create" json:"createdAt"`
}

func (Mapping) TableName() string {
	return "mappings"
}

// HasExpiry reports whether the mapping carries an expiry date.
func (m *Mapping) HasExpiry() bool {
	return m.Expiry != nil
}
