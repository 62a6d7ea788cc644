package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"astana/config"
	"astana/db"
)

// newTestDispatcher builds a dispatcher whose store lives in a per-test
// temporary directory.
func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.db")
	return New(cfg, log.New(io.Discard))
}

// dispatch runs one command through the full envelope path and returns
// the decoded response.
func dispatch(t *testing.T, d *Dispatcher, command string, request any) Response {
	t.Helper()

	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("could not marshal request: %v", err)
	}
	raw, err := json.Marshal(Envelope{Command: command, Request: body})
	if err != nil {
		t.Fatalf("could not marshal envelope: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(d.Dispatch(context.Background(), raw), &resp); err != nil {
		t.Fatalf("could not unmarshal response: %v", err)
	}
	return resp
}

// mustDispatch is dispatch for commands the test expects to succeed,
// decoding the response data into dest when dest is non-nil.
func mustDispatch(t *testing.T, d *Dispatcher, command string, request, dest any) {
	t.Helper()

	resp := dispatch(t, d, command, request)
	if !resp.OK {
		t.Fatalf("command %s failed: %s", command, resp.Error)
	}
	if dest == nil {
		return
	}
	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("could not re-marshal response data: %v", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("could not decode response data: %v", err)
	}
}

func Test_DispatchBadInput(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	var resp Response
	if err := json.Unmarshal(d.Dispatch(ctx, []byte("not json")), &resp); err != nil {
		t.Fatalf("could not unmarshal response: %v", err)
	}
	if resp.OK {
		t.Error("malformed envelope should fail")
	}
	if !strings.Contains(resp.Error, "invalid request envelope") {
		t.Errorf("unexpected error: %s", resp.Error)
	}

	resp = dispatch(t, d, "no_such_command", struct{}{})
	if resp.OK {
		t.Error("unknown command should fail")
	}
	if !strings.Contains(resp.Error, "unknown command") {
		t.Errorf("unexpected error: %s", resp.Error)
	}
}

func Test_DispatchBlockRoundTrip(t *testing.T) {
	d := newTestDispatcher(t)

	var blockID int64
	mustDispatch(t, d, "create_block", db.CreateBlockRequest{
		Code:          "A1",
		TotalCapacity: 10,
		AnnualFee:     150000,
		Status:        "active",
	}, &blockID)
	if blockID == 0 {
		t.Fatal("create_block returned no id")
	}

	var blocks []db.Block
	mustDispatch(t, d, "get_blocks", struct{}{}, &blocks)
	if got, want := len(blocks), 1; got != want {
		t.Fatalf("block count got %d want %d", got, want)
	}
	if got, want := blocks[0].Code, "A1"; got != want {
		t.Errorf("block code got %s want %s", got, want)
	}

	var stats db.BlockStats
	mustDispatch(t, d, "get_block_stats", map[string]any{"block_id": blockID}, &stats)
	if got, want := stats.Available, int64(10); got != want {
		t.Errorf("available got %d want %d", got, want)
	}
}

func Test_DispatchNotFoundKind(t *testing.T) {
	d := newTestDispatcher(t)

	resp := dispatch(t, d, "update_block", map[string]any{
		"id":    999,
		"block": map[string]any{"code": "Z9"},
	})
	if resp.OK {
		t.Fatal("updating a missing block should fail")
	}
	if got, want := resp.Kind, kindNotFound; got != want {
		t.Errorf("kind got %q want %q", got, want)
	}
}

func Test_DispatchGraveDetail(t *testing.T) {
	d := newTestDispatcher(t)

	var blockID int64
	mustDispatch(t, d, "create_block", db.CreateBlockRequest{
		Code: "A1", TotalCapacity: 10, AnnualFee: 150000, Status: "active",
	}, &blockID)

	var graveID int64
	mustDispatch(t, d, "create_grave_with_heirs", map[string]any{
		"grave": map[string]any{
			"deceased_name": "Ahmad Subarjo",
			"block_id":      blockID,
			"number":        "A1-001",
			"date_of_death": "2024-01-15",
		},
		"heirs": []map[string]any{
			{"order_number": 1, "full_name": "Siti Subarjo", "is_primary": true},
		},
	}, &graveID)

	var detail GraveDetail
	mustDispatch(t, d, "get_grave_detail", idRequest{ID: graveID}, &detail)
	if got, want := detail.DeceasedName, "Ahmad Subarjo"; got != want {
		t.Errorf("deceased name got %s want %s", got, want)
	}
	if got, want := detail.BlockCode, "A1"; got != want {
		t.Errorf("block code got %s want %s", got, want)
	}
	if got, want := len(detail.Heirs), 1; got != want {
		t.Fatalf("heir count got %d want %d", got, want)
	}
	if got, want := detail.Heirs[0].FullName, "Siti Subarjo"; got != want {
		t.Errorf("heir got %s want %s", got, want)
	}
}

// Test_DispatchDuplicatePayment covers the one-payment-per-year guard.
func Test_DispatchDuplicatePayment(t *testing.T) {
	d := newTestDispatcher(t)

	var blockID int64
	mustDispatch(t, d, "create_block", db.CreateBlockRequest{
		Code: "A1", TotalCapacity: 10, AnnualFee: 150000, Status: "active",
	}, &blockID)
	var graveID int64
	mustDispatch(t, d, "create_grave_with_heirs", map[string]any{
		"grave": map[string]any{
			"deceased_name": "Ahmad Subarjo",
			"block_id":      blockID,
			"number":        "A1-001",
			"date_of_death": "2024-01-15",
		},
	}, &graveID)

	payment := db.CreatePaymentRequest{
		GraveID:     graveID,
		Year:        2025,
		PaymentDate: "2025-02-01",
		Amount:      150000,
	}
	mustDispatch(t, d, "create_payment", payment, nil)

	resp := dispatch(t, d, "create_payment", payment)
	if resp.OK {
		t.Fatal("second payment for the same year should be refused")
	}
	if got, want := resp.Kind, kindConflict; got != want {
		t.Errorf("kind got %q want %q", got, want)
	}

	// a different year is fine.
	payment.Year = 2026
	mustDispatch(t, d, "create_payment", payment, nil)
}

func Test_DispatchPaymentSummary(t *testing.T) {
	d := newTestDispatcher(t)

	var blockID int64
	mustDispatch(t, d, "create_block", db.CreateBlockRequest{
		Code: "A1", TotalCapacity: 10, AnnualFee: 150000, Status: "active",
	}, &blockID)
	for i := 1; i <= 3; i++ {
		mustDispatch(t, d, "create_grave_with_heirs", map[string]any{
			"grave": map[string]any{
				"deceased_name": fmt.Sprintf("Deceased %02d", i),
				"block_id":      blockID,
				"number":        fmt.Sprintf("A1-%03d", i),
				"date_of_death": "2024-01-15",
			},
		}, nil)
	}

	// page length of 2 over 3 records gives two pages.
	d.Config().PageLength = 2

	var page PaymentSummaryPage
	mustDispatch(t, d, "get_payment_summary", map[string]any{"year": 2025, "page": 1}, &page)
	if got, want := len(page.Items), 2; got != want {
		t.Errorf("page one item count got %d want %d", got, want)
	}
	if got, want := page.Pagination.Pages, int64(2); got != want {
		t.Errorf("pages got %d want %d", got, want)
	}
	if got, want := page.Pagination.Next, int64(2); got != want {
		t.Errorf("next got %d want %d", got, want)
	}

	mustDispatch(t, d, "get_payment_summary", map[string]any{"year": 2025, "page": 2}, &page)
	if got, want := len(page.Items), 1; got != want {
		t.Errorf("page two item count got %d want %d", got, want)
	}
	if got, want := page.Pagination.Previous, int64(1); got != want {
		t.Errorf("previous got %d want %d", got, want)
	}
}

func Test_DispatchBackup(t *testing.T) {
	d := newTestDispatcher(t)

	mustDispatch(t, d, "create_block", db.CreateBlockRequest{
		Code: "A1", TotalCapacity: 10, AnnualFee: 150000, Status: "active",
	}, nil)

	destination := filepath.Join(t.TempDir(), "snapshot.db")
	var result struct {
		Destination string `json:"destination"`
	}
	mustDispatch(t, d, "backup_database", map[string]any{"destination": destination}, &result)
	if result.Destination != destination {
		t.Errorf("destination got %s want %s", result.Destination, destination)
	}

	var settings db.Settings
	mustDispatch(t, d, "get_settings", struct{}{}, &settings)
	if settings.LastBackup == nil || *settings.LastBackup == "" {
		t.Error("backup should record the last-backup timestamp")
	}
}

// Test_Serve feeds envelopes through the line-delimited loop and reads
// the answers back in order.
func Test_Serve(t *testing.T) {
	d := newTestDispatcher(t)

	lines := []string{
		`{"command":"create_block","request":{"code":"A1","total_capacity":10,"annual_fee":150000,"status":"active"}}`,
		`{"command":"get_blocks","request":{}}`,
		`{"command":"no_such_command","request":{}}`,
	}
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer

	if err := d.Serve(context.Background(), in, &out, ""); err != nil {
		t.Fatalf("unexpected serve error: %v", err)
	}

	responses := strings.Split(strings.TrimSpace(out.String()), "\n")
	if got, want := len(responses), len(lines); got != want {
		t.Fatalf("response count got %d want %d", got, want)
	}
	for i, want := range []bool{true, true, false} {
		var resp Response
		if err := json.Unmarshal([]byte(responses[i]), &resp); err != nil {
			t.Fatalf("could not unmarshal response %d: %v", i, err)
		}
		if resp.OK != want {
			t.Errorf("response %d ok got %v want %v: %s", i, resp.OK, want, resp.Error)
		}
	}
}
