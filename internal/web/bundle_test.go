package web

import (
	"bytes"
	"html/template"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/wifi-vouchers/voucher-server/internal/models"
)

func sampleNetwork() *models.Network {
	desc := "Ground floor <lobby>"
	return &models.Network{
		ID:               "net-1",
		Name:             "Lobby",
		CredentialID:     "Lobby-WiFi",
		CredentialSecret: "guest1234",
		Description:      &desc,
		IsActive:         true,
		CreatedAt:        time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func render(t *testing.T, b Bundle, name string, data any) string {
	t.Helper()

	var buf bytes.Buffer
	if errExec := b.Templates.ExecuteTemplate(&buf, name, data); errExec != nil {
		t.Fatalf("execute %s: %v", name, errExec)
	}
	return buf.String()
}

func TestLoadParsesAllViews(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, name := range []string{"admin.html", "network_vouchers.html", "vouchers.html", "print.html", "message.html", "login.html", "header", "footer"} {
		if b.Templates.Lookup(name) == nil {
			t.Fatalf("missing template %s", name)
		}
	}

	f, errOpen := b.StaticFS.Open("app.css")
	if errOpen != nil {
		t.Fatalf("open stylesheet: %v", errOpen)
	}
	defer func() { _ = f.Close() }()
	if raw, _ := io.ReadAll(f); len(raw) == 0 {
		t.Fatalf("stylesheet is empty")
	}
}

func TestAdminViewEscapesAndListsNetworks(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out := render(t, b, "admin.html", map[string]any{
		"Title": "Admin",
		"Networks": []map[string]any{
			{"Network": sampleNetwork(), "Counts": models.VoucherCounts{Total: 3, Unused: 2, Used: 1, Unprinted: 3}},
		},
	})
	if !strings.Contains(out, "Ground floor &lt;lobby&gt;") {
		t.Fatalf("description should be escaped: %s", out)
	}
	if !strings.Contains(out, "2 available / 3 total") {
		t.Fatalf("counts missing")
	}
	if strings.Contains(out, "guest1234") {
		t.Fatalf("secret should not be rendered on the overview")
	}
}

func TestPrintViewEmbedsQRCode(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out := render(t, b, "print.html", map[string]any{
		"Title":   "Print",
		"Network": sampleNetwork(),
		"QRCode":  template.URL("data:image/png;base64,AAAA"),
		"Cards":   []models.Voucher{{ID: "v1", Code: "VOUCHER001"}, {ID: "v2", Code: "VOUCHER002"}},
	})
	if strings.Count(out, `src="data:image/png;base64,AAAA"`) != 2 {
		t.Fatalf("expected one QR image per card: %s", out)
	}
	if !strings.Contains(out, "VOUCHER001") || !strings.Contains(out, "VOUCHER002") {
		t.Fatalf("voucher codes missing")
	}
}

func TestNetworkVouchersView(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	used := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)
	out := render(t, b, "network_vouchers.html", map[string]any{
		"Title":   "Lobby",
		"Network": sampleNetwork(),
		"Counts":  models.VoucherCounts{Total: 2, Used: 1, Unused: 1, Unprinted: 2},
		"Vouchers": []models.Voucher{
			{ID: "v1", Code: "A1", IsUsed: true, UsedAt: &used},
			{ID: "v2", Code: "B2"},
		},
	})
	if !strings.Contains(out, "/admin/vouchers/v1/unuse") || !strings.Contains(out, "/admin/vouchers/v2/use") {
		t.Fatalf("use/unuse actions missing: %s", out)
	}
	if !strings.Contains(out, "2024-05-02 10:30") {
		t.Fatalf("used timestamp missing")
	}
}

func TestMessageAndVouchersViews(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	msg := render(t, b, "message.html", map[string]any{
		"Title":   "Upload failed",
		"Message": "no valid voucher codes found in CSV",
		"IsError": true,
	})
	if !strings.Contains(msg, "message error") || !strings.Contains(msg, `href="/admin"`) {
		t.Fatalf("unexpected message view: %s", msg)
	}

	empty := render(t, b, "vouchers.html", map[string]any{"Title": "Vouchers", "Vouchers": []models.Voucher{}})
	if !strings.Contains(empty, "No vouchers have been uploaded yet") {
		t.Fatalf("empty state missing")
	}
	list := render(t, b, "vouchers.html", map[string]any{
		"Title":        "Vouchers",
		"Vouchers":     []models.Voucher{{Code: "X1"}, {Code: "X2"}},
		"NetworkNames": []string{"Lobby", ""},
	})
	if !strings.Contains(list, "Total: 2 vouchers") || !strings.Contains(list, "Lobby") {
		t.Fatalf("unexpected list: %s", list)
	}
}
