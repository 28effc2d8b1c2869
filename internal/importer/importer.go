// Package importer turns uploaded delimited text into voucher batches.
//
// The first record of every upload is treated as a header and discarded, whatever
// it contains. Uploads without a header therefore lose their first code.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wifi-vouchers/voucher-server/internal/models"
)

// DefaultMaxUploadBytes caps the size of an uploaded voucher file.
const DefaultMaxUploadBytes int64 = 1 << 20

// commentPrefix marks lines that are ignored.
const commentPrefix = "#"

var (
	// ErrNoValidCodes indicates the upload contained no usable codes.
	ErrNoValidCodes = errors.New("no valid voucher codes found in CSV")
	// ErrInvalidEncoding indicates the upload is not UTF-8 text.
	ErrInvalidEncoding = errors.New("voucher file is not valid UTF-8")
	// ErrTooLarge indicates the upload exceeds the configured size cap.
	ErrTooLarge = errors.New("voucher file is too large")
)

// Codes extracts voucher codes from raw CSV text in input order.
func Codes(raw []byte) ([]string, error) {
	if !utf8.Valid(raw) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var codes []string
	header := true
	for {
		record, errRead := reader.Read()
		if errRead == io.EOF {
			break
		}
		if errRead != nil {
			return nil, fmt.Errorf("importer: read csv: %w", errRead)
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		code := strings.TrimSpace(record[0])
		if code == "" || strings.HasPrefix(code, commentPrefix) {
			continue
		}
		codes = append(codes, code)
	}

	if len(codes) == 0 {
		return nil, ErrNoValidCodes
	}
	return codes, nil
}

// Parse builds unsaved, unscoped vouchers from raw CSV text.
func Parse(raw []byte) ([]models.Voucher, error) {
	codes, err := Codes(raw)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	vouchers := make([]models.Voucher, 0, len(codes))
	for _, code := range codes {
		vouchers = append(vouchers, models.Voucher{
			ID:        uuid.NewString(),
			Code:      code,
			CreatedAt: now,
		})
	}
	return vouchers, nil
}

// ParseReader reads at most maxBytes from r and parses it. maxBytes <= 0 uses DefaultMaxUploadBytes.
func ParseReader(r io.Reader, maxBytes int64) ([]models.Voucher, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	raw, errRead := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if errRead != nil {
		return nil, fmt.Errorf("importer: read upload: %w", errRead)
	}
	if int64(len(raw)) > maxBytes {
		return nil, ErrTooLarge
	}
	return Parse(raw)
}

// AssignNetwork scopes every voucher in the batch to networkID. An empty id leaves them unscoped.
func AssignNetwork(vouchers []models.Voucher, networkID string) {
	if networkID == "" {
		for i := range vouchers {
			vouchers[i].NetworkID = nil
		}
		return
	}
	for i := range vouchers {
		id := networkID
		vouchers[i].NetworkID = &id
	}
}
