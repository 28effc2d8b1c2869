package models

import (
	"fmt"
	"time"
)

// DefaultAuthType is the provisioning auth type printed on cards when none is configured.
const DefaultAuthType = "WPA"

// Network represents a WiFi network profile vouchers are issued against.
type Network struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // Opaque identifier (UUID).

	Name             string  `gorm:"type:text;not null"`                          // Display label.
	CredentialID     string  `gorm:"column:credential_id;type:text;not null"`     // SSID.
	CredentialSecret string  `gorm:"column:credential_secret;type:text;not null"` // Passphrase, stored in plaintext.
	Description      *string `gorm:"type:text"`                                   // Optional free text.

	IsActive bool `gorm:"not null;default:true"` // Whether vouchers can be printed for the network.

	CreatedAt time.Time `gorm:"not null"` // Creation timestamp.
}

// TableName pins the table name used by the schema.
func (Network) TableName() string { return "networks" }

// ProvisioningPayload returns the WIFI: string scanners use to join the network.
// Values are embedded verbatim.
func (n *Network) ProvisioningPayload(authType string) string {
	if authType == "" {
		authType = DefaultAuthType
	}
	return fmt.Sprintf("WIFI:T:%s;S:%s;P:%s;H:false;;", authType, n.CredentialID, n.CredentialSecret)
}

// DescriptionText returns the description or an empty string.
func (n *Network) DescriptionText() string {
	if n == nil || n.Description == nil {
		return ""
	}
	return *n.Description
}
