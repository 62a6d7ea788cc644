package db

// payments.go deals with payment (annual fee settlement) database
// calls and the paginated payment summary used by the fee overview.

import (
	"context"
	"database/sql"
	"errors"
)

// summaryWindow is the number of years shown per grave in a payment
// summary, ending at the target year.
const summaryWindow = 5

// Payment is one fee-period settlement recorded against a grave.
type Payment struct {
	ID            int64  `db:"id" json:"id"`
	GraveID       int64  `db:"grave_id" json:"grave_id"`
	Year          int64  `db:"year" json:"year"`
	PaymentDate   string `db:"payment_date" json:"payment_date"`
	Amount        int64  `db:"amount" json:"amount"`
	PaymentMethod string `db:"payment_method" json:"payment_method"`
	PaymentProof  string `db:"payment_proof" json:"payment_proof"`
	PaidBy        string `db:"paid_by" json:"paid_by"`
	Notes         string `db:"notes" json:"notes"`
	CreatedAt     string `db:"created_at" json:"created_at"`
	UpdatedAt     string `db:"updated_at" json:"updated_at"`
}

// CreatePaymentRequest carries the fields for a new payment. The
// payment method defaults to "cash"; the other optional fields default
// to the empty string. The store applies no (grave, year) uniqueness
// check at this layer: callers consult FindPayment first.
type CreatePaymentRequest struct {
	GraveID       int64   `json:"grave_id"`
	Year          int64   `json:"year"`
	PaymentDate   string  `json:"payment_date"`
	Amount        int64   `json:"amount"`
	PaymentMethod *string `json:"payment_method"`
	PaymentProof  *string `json:"payment_proof"`
	PaidBy        *string `json:"paid_by"`
	Notes         *string `json:"notes"`
}

// YearStatus is one entry of a grave's payment summary window.
type YearStatus struct {
	Year   int64 `json:"year"`
	IsPaid bool  `json:"is_paid"`
	Amount int64 `json:"amount"`
}

// GravePaymentSummary is one grave of a payment summary: the grave, the
// payment covering the target year (if any) and the five-year window
// ending at the target year.
type GravePaymentSummary struct {
	GraveWithBlock
	TargetPayment *Payment     `json:"target_payment"`
	Years         []YearStatus `json:"years"`
}

// ListPaymentsForGrave returns the payments of a grave, most recent fee
// year first.
func (db *DB) ListPaymentsForGrave(ctx context.Context, graveID int64) ([]Payment, error) {
	stmt := db.paymentListStmt
	namedArgs := map[string]any{"grave_id": graveID}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("list payments", err)
	}

	payments := []Payment{}
	if err := stmt.SelectContext(ctx, &payments, namedArgs); err != nil {
		return nil, queryErr("list payments", err)
	}
	return payments, nil
}

// FindPayment returns the payment covering one fee year of a grave, or
// nil if that year is unpaid. Absence is not an error.
func (db *DB) FindPayment(ctx context.Context, graveID, year int64) (*Payment, error) {
	stmt := db.paymentFindStmt
	namedArgs := map[string]any{"grave_id": graveID, "year": year}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return nil, queryErr("find payment", err)
	}

	var payment Payment
	err := stmt.GetContext(ctx, &payment, namedArgs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("find payment", err)
	}
	return &payment, nil
}

// CreatePayment inserts a new payment and returns its assigned id.
func (db *DB) CreatePayment(ctx context.Context, req CreatePaymentRequest) (int64, error) {
	method := "cash"
	if req.PaymentMethod != nil {
		method = *req.PaymentMethod
	}

	stmt := db.paymentInsertStmt
	namedArgs := map[string]any{
		"grave_id":       req.GraveID,
		"year":           req.Year,
		"payment_date":   req.PaymentDate,
		"amount":         req.Amount,
		"payment_method": method,
		"payment_proof":  orEmpty(req.PaymentProof),
		"paid_by":        orEmpty(req.PaidBy),
		"notes":          orEmpty(req.Notes),
	}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return 0, queryErr("create payment", err)
	}

	res, err := stmt.ExecContext(ctx, namedArgs)
	if err != nil {
		return 0, queryErr("create payment", err)
	}
	return lastInsertID(res, "create payment")
}

// DeletePayment deletes a single payment.
func (db *DB) DeletePayment(ctx context.Context, id int64) error {
	stmt := db.paymentDeleteStmt
	namedArgs := map[string]any{"id": id}
	if err := stmt.verifyArgs(namedArgs); err != nil {
		return queryErr("delete payment", err)
	}
	if _, err := stmt.ExecContext(ctx, namedArgs); err != nil {
		return queryErr("delete payment", err)
	}
	return nil
}

// PaymentSummaryForGraves reports, for each grave in the filtered and
// paginated listing, the payment covering targetYear (if any) and a
// five-entry window of year statuses for targetYear-4..targetYear, each
// checked against that grave's payment list.
func (db *DB) PaymentSummaryForGraves(ctx context.Context, filter GraveFilter, targetYear, limit, offset int64) ([]GravePaymentSummary, error) {
	graves, err := db.ListGraves(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]GravePaymentSummary, 0, len(graves))
	for _, grave := range graves {
		payments, err := db.ListPaymentsForGrave(ctx, grave.ID)
		if err != nil {
			return nil, err
		}

		byYear := make(map[int64]Payment, len(payments))
		for _, p := range payments {
			byYear[p.Year] = p
		}

		summary := GravePaymentSummary{
			GraveWithBlock: grave,
			Years:          make([]YearStatus, 0, summaryWindow),
		}
		if p, ok := byYear[targetYear]; ok {
			summary.TargetPayment = &p
		}
		for year := targetYear - summaryWindow + 1; year <= targetYear; year++ {
			status := YearStatus{Year: year}
			if p, ok := byYear[year]; ok {
				status.IsPaid = true
				status.Amount = p.Amount
			}
			summary.Years = append(summary.Years, status)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
