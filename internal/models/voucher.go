package models

import "time"

// Voucher is a single-use access code, optionally scoped to one network.
type Voucher struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // Opaque identifier (UUID).

	Code      string   `gorm:"type:text;not null;uniqueIndex"`                            // Redemption code.
	NetworkID *string  `gorm:"type:varchar(36);index:idx_vouchers_network_id"`            // Owning network, if any.
	Network   *Network `gorm:"foreignKey:NetworkID;constraint:OnDelete:CASCADE" json:"-"` // Owning network record.

	CreatedAt time.Time `gorm:"not null"`                 // Creation timestamp.
	Seq       int64     `gorm:"not null;default:0;index"` // Insertion order tie-break for CreatedAt.

	IsUsed bool       `gorm:"not null;default:false;index:idx_vouchers_is_used"` // Redemption state.
	UsedAt *time.Time // Set iff IsUsed.

	IsPrinted bool       `gorm:"not null;default:false;index:idx_vouchers_is_printed"` // Print state.
	PrintedAt *time.Time // Set iff IsPrinted.
}

// TableName pins the table name used by the schema.
func (Voucher) TableName() string { return "vouchers" }

// BelongsTo reports whether the voucher is scoped to the given network.
func (v *Voucher) BelongsTo(networkID string) bool {
	return v != nil && v.NetworkID != nil && *v.NetworkID == networkID
}

// VoucherCounts aggregates voucher state for one network.
type VoucherCounts struct {
	Total     int64 `json:"total"`
	Used      int64 `json:"used"`
	Unused    int64 `json:"unused"`
	Printed   int64 `json:"printed"`
	Unprinted int64 `json:"unprinted"`
}
