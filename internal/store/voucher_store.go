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

// insertBatchSize bounds the rows per INSERT statement and per code lookup.
const insertBatchSize = 200

// VoucherStore persists vouchers and their redemption/print state.
type VoucherStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewVoucherStore wires a voucher store with its database dependency.
func NewVoucherStore(db *gorm.DB) *VoucherStore {
	return &VoucherStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ordered applies the listing order: creation time, then insertion sequence.
func ordered(q *gorm.DB) *gorm.DB {
	return q.Order("created_at ASC").Order("seq ASC")
}

// CreateBatch inserts all vouchers in one transaction or none of them.
// A code that already exists, or repeats within the batch, fails the batch with ErrConflict.
func (s *VoucherStore) CreateBatch(ctx context.Context, vouchers []models.Voucher) error {
	if len(vouchers) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(vouchers))
	codes := make([]string, 0, len(vouchers))
	for i := range vouchers {
		code := strings.TrimSpace(vouchers[i].Code)
		if code == "" {
			return fmt.Errorf("%w: empty voucher code", ErrInvalid)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("%w: duplicate voucher code %q in batch", ErrConflict, code)
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
		vouchers[i].Code = code
	}

	now := s.now()
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(codes); start += insertBatchSize {
			end := min(start+insertBatchSize, len(codes))
			var existing []string
			if errFind := tx.Model(&models.Voucher{}).
				Where("code IN ?", codes[start:end]).
				Limit(1).
				Pluck("code", &existing).Error; errFind != nil {
				return errFind
			}
			if len(existing) > 0 {
				return fmt.Errorf("%w: voucher code %q already exists", ErrConflict, existing[0])
			}
		}

		var maxSeq int64
		if errMax := tx.Model(&models.Voucher{}).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; errMax != nil {
			return errMax
		}

		for i := range vouchers {
			v := &vouchers[i]
			if v.ID == "" {
				v.ID = uuid.NewString()
			}
			if v.CreatedAt.IsZero() {
				v.CreatedAt = now
			}
			v.Seq = maxSeq + int64(i) + 1
			switch {
			case !v.IsUsed:
				v.UsedAt = nil
			case v.UsedAt == nil:
				v.UsedAt = &now
			}
			switch {
			case !v.IsPrinted:
				v.PrintedAt = nil
			case v.PrintedAt == nil:
				v.PrintedAt = &now
			}
		}

		if errCreate := tx.Omit("Network").CreateInBatches(vouchers, insertBatchSize).Error; errCreate != nil {
			if dbutil.IsUniqueViolation(errCreate) {
				return fmt.Errorf("%w: %v", ErrConflict, errCreate)
			}
			return errCreate
		}
		return nil
	})
	if errTx != nil {
		if errors.Is(errTx, ErrConflict) {
			return errTx
		}
		return dataAccess("create vouchers", errTx)
	}
	return nil
}

// Get returns the voucher with the given id, or nil when absent.
func (s *VoucherStore) Get(ctx context.Context, id string) (*models.Voucher, error) {
	var voucher models.Voucher
	errFind := s.db.WithContext(ctx).Where("id = ?", id).Take(&voucher).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dataAccess("get voucher", errFind)
	}
	return &voucher, nil
}

// ListAll returns every voucher in creation order.
func (s *VoucherStore) ListAll(ctx context.Context) ([]models.Voucher, error) {
	var rows []models.Voucher
	if errFind := ordered(s.db.WithContext(ctx)).Find(&rows).Error; errFind != nil {
		return nil, dataAccess("list vouchers", errFind)
	}
	return rows, nil
}

// ListForNetwork returns the network's vouchers in creation order.
func (s *VoucherStore) ListForNetwork(ctx context.Context, networkID string) ([]models.Voucher, error) {
	var rows []models.Voucher
	q := ordered(s.db.WithContext(ctx).Where("network_id = ?", networkID))
	if errFind := q.Find(&rows).Error; errFind != nil {
		return nil, dataAccess("list network vouchers", errFind)
	}
	return rows, nil
}

// ListUnprintedForNetwork returns up to limit unprinted vouchers; limit <= 0 returns all.
func (s *VoucherStore) ListUnprintedForNetwork(ctx context.Context, networkID string, limit int) ([]models.Voucher, error) {
	var rows []models.Voucher
	q := ordered(s.db.WithContext(ctx).
		Where("network_id = ?", networkID).
		Where("is_printed = ?", false))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if errFind := q.Find(&rows).Error; errFind != nil {
		return nil, dataAccess("list unprinted vouchers", errFind)
	}
	return rows, nil
}

// MarkUsed flips an unused voucher to used. It returns false when the voucher is
// already used or does not exist.
func (s *VoucherStore) MarkUsed(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]any{"is_used": true, "used_at": s.now()})
	if res.Error != nil {
		return false, dataAccess("mark voucher used", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkUnused resets a voucher to unused. It returns false only when the voucher does not exist.
func (s *VoucherStore) MarkUnused(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_used": false, "used_at": nil})
	if res.Error != nil {
		return false, dataAccess("mark voucher unused", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkPrinted flags the given vouchers as printed in one transaction and returns how many changed.
func (s *VoucherStore) MarkPrinted(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	now := s.now()
	var count int64
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			res := tx.Model(&models.Voucher{}).
				Where("id = ? AND is_printed = ?", id, false).
				Updates(map[string]any{"is_printed": true, "printed_at": now})
			if res.Error != nil {
				return res.Error
			}
			count += res.RowsAffected
		}
		return nil
	})
	if errTx != nil {
		return 0, dataAccess("mark vouchers printed", errTx)
	}
	return int(count), nil
}

// ClaimUnprinted marks up to limit unprinted vouchers of a network as printed and returns
// the ones this call flipped; limit <= 0 claims all. Vouchers claimed concurrently by
// another caller are left out, so each voucher is handed out once.
func (s *VoucherStore) ClaimUnprinted(ctx context.Context, networkID string, limit int) ([]models.Voucher, error) {
	now := s.now()
	var claimed []models.Voucher
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []models.Voucher
		q := ordered(tx.Where("network_id = ?", networkID).Where("is_printed = ?", false))
		if limit > 0 {
			q = q.Limit(limit)
		}
		if errFind := q.Find(&candidates).Error; errFind != nil {
			return errFind
		}

		claimed = make([]models.Voucher, 0, len(candidates))
		for _, v := range candidates {
			res := tx.Model(&models.Voucher{}).
				Where("id = ? AND is_printed = ?", v.ID, false).
				Updates(map[string]any{"is_printed": true, "printed_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			v.IsPrinted = true
			printedAt := now
			v.PrintedAt = &printedAt
			claimed = append(claimed, v)
		}
		return nil
	})
	if errTx != nil {
		return nil, dataAccess("claim unprinted vouchers", errTx)
	}
	return claimed, nil
}

// countsSelect aggregates every state in one pass so all figures share a snapshot.
const countsSelect = "COUNT(*) AS total, " +
	"COUNT(CASE WHEN is_used = ? THEN 1 END) AS used, " +
	"COUNT(CASE WHEN is_used = ? THEN 1 END) AS unused, " +
	"COUNT(CASE WHEN is_printed = ? THEN 1 END) AS printed, " +
	"COUNT(CASE WHEN is_printed = ? THEN 1 END) AS unprinted"

// CountsForNetwork returns aggregate voucher state for one network.
func (s *VoucherStore) CountsForNetwork(ctx context.Context, networkID string) (models.VoucherCounts, error) {
	var counts models.VoucherCounts
	errScan := s.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Select(countsSelect, true, false, true, false).
		Where("network_id = ?", networkID).
		Scan(&counts).Error
	if errScan != nil {
		return models.VoucherCounts{}, dataAccess("count vouchers", errScan)
	}
	return counts, nil
}

// networkCountsRow is one grouped row of CountsByNetwork.
type networkCountsRow struct {
	NetworkID string
	Total     int64
	Used      int64
	Unused    int64
	Printed   int64
	Unprinted int64
}

// CountsByNetwork returns aggregate voucher state for every network that has vouchers.
func (s *VoucherStore) CountsByNetwork(ctx context.Context) (map[string]models.VoucherCounts, error) {
	var rows []networkCountsRow
	errScan := s.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Select("network_id, "+countsSelect, true, false, true, false).
		Where("network_id IS NOT NULL").
		Group("network_id").
		Scan(&rows).Error
	if errScan != nil {
		return nil, dataAccess("count vouchers by network", errScan)
	}
	out := make(map[string]models.VoucherCounts, len(rows))
	for _, row := range rows {
		out[row.NetworkID] = models.VoucherCounts{
			Total:     row.Total,
			Used:      row.Used,
			Unused:    row.Unused,
			Printed:   row.Printed,
			Unprinted: row.Unprinted,
		}
	}
	return out, nil
}
