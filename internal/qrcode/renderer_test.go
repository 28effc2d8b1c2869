package qrcode

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/boombuler/barcode/qr"
	"github.com/wifi-vouchers/voucher-server/internal/cache"
)

const lobbyPayload = "WIFI:T:WPA;S:Lobby-WiFi;P:guest1234;H:false;;"

func decodePNG(t *testing.T, raw []byte) image.Image {
	t.Helper()

	img, errDecode := png.Decode(bytes.NewReader(raw))
	if errDecode != nil {
		t.Fatalf("decode png: %v", errDecode)
	}
	return img
}

func TestRenderIsDeterministic(t *testing.T) {
	t.Parallel()

	r := NewRenderer(0)
	first, err := r.Render(lobbyPayload)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := r.Render(lobbyPayload)
	if err != nil {
		t.Fatalf("render again: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("render output differs between calls")
	}
}

func TestRenderGeometry(t *testing.T) {
	t.Parallel()

	code, err := qr.Encode(lobbyPayload, qr.M, qr.Auto)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	modules := code.Bounds().Dx()

	r := NewRenderer(DefaultScale)
	raw, err := r.Render(lobbyPayload)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decodePNG(t, raw)

	want := modules*DefaultScale + 2*r.Border()
	if img.Bounds().Dx() != want || img.Bounds().Dy() != want {
		t.Fatalf("image size = %v, want %dx%d", img.Bounds().Size(), want, want)
	}

	white := color.GrayModel.Convert(img.At(0, 0)).(color.Gray)
	if white.Y != 0xff {
		t.Fatalf("quiet zone pixel = %v, want white", white)
	}
	// finder pattern corner is always dark
	corner := color.GrayModel.Convert(img.At(r.Border(), r.Border())).(color.Gray)
	if corner.Y != 0x00 {
		t.Fatalf("finder pixel = %v, want black", corner)
	}
}

func TestRenderRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	_, err := NewRenderer(DefaultScale).Render(strings.Repeat("x", 4000))
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("err = %v, want ErrEncoding", err)
	}
}

func TestDataURI(t *testing.T) {
	t.Parallel()

	uri := DataURI([]byte{0x89, 'P', 'N', 'G'})
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %s", uri)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	if err != nil || !bytes.Equal(decoded, []byte{0x89, 'P', 'N', 'G'}) {
		t.Fatalf("round trip = %v, %v", decoded, err)
	}
}

type countingStore struct {
	*cache.Memory
	gets int
	sets int
	fail bool
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.gets++
	if s.fail {
		return nil, false, errors.New("cache down")
	}
	return s.Memory.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.sets++
	if s.fail {
		return errors.New("cache down")
	}
	return s.Memory.Set(ctx, key, value, ttl)
}

func TestCachedRendererMemoizes(t *testing.T) {
	t.Parallel()

	store := &countingStore{Memory: cache.NewMemory(8, time.Hour)}
	cr := NewCachedRenderer(NewRenderer(DefaultScale), store, time.Hour)
	ctx := context.Background()

	first, err := cr.Render(ctx, lobbyPayload)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := cr.Render(ctx, lobbyPayload)
	if err != nil {
		t.Fatalf("render cached: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("cached output differs")
	}
	if store.sets != 1 || store.gets != 2 {
		t.Fatalf("gets=%d sets=%d, want 2 and 1", store.gets, store.sets)
	}
	if store.Len() != 1 {
		t.Fatalf("cache entries = %d, want 1", store.Len())
	}
}

func TestCachedRendererFallsThroughOnCacheErrors(t *testing.T) {
	t.Parallel()

	store := &countingStore{Memory: cache.NewMemory(8, time.Hour), fail: true}
	cr := NewCachedRenderer(nil, store, 0)

	uri, err := cr.DataURI(context.Background(), lobbyPayload)
	if err != nil {
		t.Fatalf("render with failing cache: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected data uri: %.40s", uri)
	}
}

func TestCachedRendererWithoutStore(t *testing.T) {
	t.Parallel()

	cr := NewCachedRenderer(NewRenderer(2), nil, 0)
	raw, err := cr.Render(context.Background(), lobbyPayload)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	decodePNG(t, raw)

	if _, err := cr.Render(context.Background(), strings.Repeat("y", 4000)); !errors.Is(err, ErrEncoding) {
		t.Fatalf("err = %v, want ErrEncoding", err)
	}
}

func TestCacheKeyHidesPayload(t *testing.T) {
	t.Parallel()

	key := cacheKey(lobbyPayload, 4)
	if strings.Contains(key, "guest1234") {
		t.Fatalf("cache key leaks the secret: %s", key)
	}
	if key == cacheKey(lobbyPayload, 2) {
		t.Fatalf("scale should be part of the key")
	}
}
