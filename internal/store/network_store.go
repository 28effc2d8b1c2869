package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	dbutil "github.com/wifi-vouchers/voucher-server/internal/db"
	"github.com/wifi-vouchers/voucher-server/internal/models"
	"gorm.io/gorm"
)

// NetworkStore persists network profiles.
type NetworkStore struct {
	db *gorm.DB
}

// NewNetworkStore wires a network store with its database dependency.
func NewNetworkStore(db *gorm.DB) *NetworkStore {
	return &NetworkStore{db: db}
}

// NewNetwork builds an active network with trimmed fields. An empty description is stored as NULL.
func NewNetwork(name, ssid, secret, description string) *models.Network {
	network := &models.Network{
		Name:             strings.TrimSpace(name),
		CredentialID:     strings.TrimSpace(ssid),
		CredentialSecret: secret,
		IsActive:         true,
	}
	if desc := strings.TrimSpace(description); desc != "" {
		network.Description = &desc
	}
	return network
}

func validateNetwork(network *models.Network) error {
	switch {
	case network == nil:
		return fmt.Errorf("%w: nil network", ErrInvalid)
	case strings.TrimSpace(network.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalid)
	case strings.TrimSpace(network.CredentialID) == "":
		return fmt.Errorf("%w: missing ssid", ErrInvalid)
	case network.CredentialSecret == "":
		return fmt.Errorf("%w: missing password", ErrInvalid)
	}
	return nil
}

// Create inserts a network, assigning its id and creation time when unset.
func (s *NetworkStore) Create(ctx context.Context, network *models.Network) error {
	if errValidate := validateNetwork(network); errValidate != nil {
		return errValidate
	}
	if network.ID == "" {
		network.ID = uuid.NewString()
	}
	if network.CreatedAt.IsZero() {
		network.CreatedAt = time.Now().UTC()
	}
	// gorm skips a false IsActive in favour of the column default, so it is written after the insert.
	active := network.IsActive
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(network).Error; errCreate != nil {
			return errCreate
		}
		if !active {
			return tx.Model(&models.Network{}).Where("id = ?", network.ID).Update("is_active", false).Error
		}
		return nil
	})
	network.IsActive = active
	if errTx != nil {
		if dbutil.IsUniqueViolation(errTx) {
			return fmt.Errorf("%w: network %s already exists", ErrConflict, network.ID)
		}
		return dataAccess("create network", errTx)
	}
	return nil
}

// Get returns the network with the given id, or nil when absent.
func (s *NetworkStore) Get(ctx context.Context, id string) (*models.Network, error) {
	var network models.Network
	errFind := s.db.WithContext(ctx).Where("id = ?", id).Take(&network).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dataAccess("get network", errFind)
	}
	return &network, nil
}

// FindByCredentialID returns the oldest network using the given SSID, or nil.
func (s *NetworkStore) FindByCredentialID(ctx context.Context, ssid string) (*models.Network, error) {
	var network models.Network
	errFind := s.db.WithContext(ctx).
		Where("credential_id = ?", ssid).
		Order("created_at ASC").
		Take(&network).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dataAccess("find network by ssid", errFind)
	}
	return &network, nil
}

// ListAll returns every network ordered by creation time.
func (s *NetworkStore) ListAll(ctx context.Context) ([]models.Network, error) {
	var rows []models.Network
	if errFind := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&rows).Error; errFind != nil {
		return nil, dataAccess("list networks", errFind)
	}
	return rows, nil
}

// ListActive returns active networks ordered by creation time.
func (s *NetworkStore) ListActive(ctx context.Context) ([]models.Network, error) {
	var rows []models.Network
	if errFind := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, dataAccess("list active networks", errFind)
	}
	return rows, nil
}

// UpdateCredentials replaces the SSID and password of a network.
func (s *NetworkStore) UpdateCredentials(ctx context.Context, id, ssid, secret string) (bool, error) {
	ssid = strings.TrimSpace(ssid)
	if ssid == "" || secret == "" {
		return false, fmt.Errorf("%w: ssid and password are required", ErrInvalid)
	}
	return s.update(ctx, "update network credentials", id, map[string]any{
		"credential_id":     ssid,
		"credential_secret": secret,
	})
}

// UpdateInfo replaces the display name and description of a network.
func (s *NetworkStore) UpdateInfo(ctx context.Context, id, name string, description *string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("%w: missing name", ErrInvalid)
	}
	var desc any
	if description != nil && strings.TrimSpace(*description) != "" {
		desc = strings.TrimSpace(*description)
	}
	return s.update(ctx, "update network info", id, map[string]any{
		"name":        name,
		"description": desc,
	})
}

// SetActive activates or deactivates a network.
func (s *NetworkStore) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	return s.update(ctx, "set network active", id, map[string]any{"is_active": active})
}

func (s *NetworkStore) update(ctx context.Context, op, id string, updates map[string]any) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Network{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return false, dataAccess(op, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a network and every voucher referencing it in one transaction.
func (s *NetworkStore) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errVouchers := tx.Where("network_id = ?", id).Delete(&models.Voucher{}).Error; errVouchers != nil {
			return errVouchers
		}
		res := tx.Where("id = ?", id).Delete(&models.Network{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	if errTx != nil {
		return false, dataAccess("delete network", errTx)
	}
	return removed, nil
}
