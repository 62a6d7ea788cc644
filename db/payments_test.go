package db

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_PaymentCRUD(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	blockID := mustCreateBlock(t, testDB, "A1", 10, 150000)
	graveID := mustCreateGrave(t, testDB, blockID, "Ahmad Subarjo", "A1-001")

	id, err := testDB.CreatePayment(ctx, CreatePaymentRequest{
		GraveID:     graveID,
		Year:        2025,
		PaymentDate: "2025-02-01",
		Amount:      150000,
		PaidBy:      ptrStr("Siti Subarjo"),
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	payment, err := testDB.FindPayment(ctx, graveID, 2025)
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if payment == nil {
		t.Fatal("created payment not found")
	}
	if got, want := payment.ID, id; got != want {
		t.Errorf("payment id got %d want %d", got, want)
	}
	// method defaults to cash when unset.
	if got, want := payment.PaymentMethod, "cash"; got != want {
		t.Errorf("payment method got %s want %s", got, want)
	}
	if got, want := payment.PaidBy, "Siti Subarjo"; got != want {
		t.Errorf("paid by got %s want %s", got, want)
	}

	// an unpaid year is an absence, not an error.
	payment, err = testDB.FindPayment(ctx, graveID, 2023)
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if payment != nil {
		t.Errorf("unexpected payment for unpaid year: %+v", payment)
	}

	if err := testDB.DeletePayment(ctx, id); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	payment, err = testDB.FindPayment(ctx, graveID, 2025)
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if payment != nil {
		t.Errorf("payment still present after delete: %+v", payment)
	}
}

func Test_PaymentListOrder(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	blockID := mustCreateBlock(t, testDB, "A1", 10, 150000)
	graveID := mustCreateGrave(t, testDB, blockID, "Ahmad Subarjo", "A1-001")
	mustCreatePayment(t, testDB, graveID, 2023, 150000)
	mustCreatePayment(t, testDB, graveID, 2025, 150000)
	mustCreatePayment(t, testDB, graveID, 2024, 150000)

	payments, err := testDB.ListPaymentsForGrave(ctx, graveID)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	years := make([]int64, len(payments))
	for i, p := range payments {
		years[i] = p.Year
	}
	if diff := cmp.Diff([]int64{2025, 2024, 2023}, years); diff != "" {
		t.Errorf("payment ordering mismatch (-want +got):\n%s", diff)
	}
}

// Test_PaymentSummary checks the five-year window and target payment of
// the fee overview.
func Test_PaymentSummary(t *testing.T) {
	testDB := setupTestDB(t)
	ctx := context.Background()

	blockID := mustCreateBlock(t, testDB, "A1", 10, 150000)
	paidGrave := mustCreateGrave(t, testDB, blockID, "Ahmad Subarjo", "A1-001")
	unpaidGrave := mustCreateGrave(t, testDB, blockID, "Siti Aminah", "A1-002")
	mustCreatePayment(t, testDB, paidGrave, 2025, 150000)
	mustCreatePayment(t, testDB, paidGrave, 2023, 140000)

	summaries, err := testDB.PaymentSummaryForGraves(ctx, GraveFilter{}, 2025, 10, 0)
	if err != nil {
		t.Fatalf("unexpected summary error: %v", err)
	}
	if got, want := len(summaries), 2; got != want {
		t.Fatalf("summary count got %d want %d", got, want)
	}

	byID := map[int64]GravePaymentSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}

	paid := byID[paidGrave]
	if paid.TargetPayment == nil {
		t.Fatal("expected a target payment for the paid grave")
	}
	if got, want := paid.TargetPayment.Amount, int64(150000); got != want {
		t.Errorf("target amount got %d want %d", got, want)
	}
	wantYears := []YearStatus{
		{Year: 2021},
		{Year: 2022},
		{Year: 2023, IsPaid: true, Amount: 140000},
		{Year: 2024},
		{Year: 2025, IsPaid: true, Amount: 150000},
	}
	if diff := cmp.Diff(wantYears, paid.Years); diff != "" {
		t.Errorf("year window mismatch (-want +got):\n%s", diff)
	}

	unpaid := byID[unpaidGrave]
	if unpaid.TargetPayment != nil {
		t.Errorf("unexpected target payment: %+v", unpaid.TargetPayment)
	}
	for _, y := range unpaid.Years {
		if y.IsPaid {
			t.Errorf("year %d should be unpaid", y.Year)
		}
	}
}
