package service

import (
	"context"
	"errors"
	"testing"

	"invoicedesk/internal/draft"
	"invoicedesk/internal/ksef"
	"invoicedesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type invoiceFixture struct {
	svc       InvoiceService
	companies *fakeCompanyRepo
	invoices  *fakeInvoiceRepo
	audit     *fakeAudit
	queue     *fakeQueue
	userID    uuid.UUID
	company   *model.Company
}

func newInvoiceFixture() *invoiceFixture {
	f := &invoiceFixture{
		companies: newFakeCompanyRepo(),
		audit:     &fakeAudit{},
		queue:     &fakeQueue{},
		userID:    uuid.New(),
		company:   &model.Company{ID: uuid.New(), NIP: "5260250274", Name: "Seller sp. z o.o.", KSeFEnvironment: model.KSeFEnvTest},
	}
	f.invoices = newFakeInvoiceRepo(f.companies)
	f.companies.add(f.company, f.userID)
	companySvc := NewCompanyService(f.companies, f.audit, fakeTx{})
	f.svc = NewInvoiceService(f.invoices, f.companies, companySvc, f.audit, f.queue, fakeTx{})
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validDraft(companyID uuid.UUID) draft.Invoice {
	return draft.Invoice{
		CompanyID:     companyID.String(),
		InvoiceNumber: "FV/2026/03/001",
		IssueDate:     "2026-03-02",
		SaleDate:      "2026-03-02",
		DueDate:       "2026-03-16",
		PaymentMethod: draft.PaymentTransfer,
		ContractorData: draft.ContractorData{
			NIP:  "5260250274",
			Name: "Buyer S.A.",
			Address: draft.Address{
				Street:     "Prosta 1",
				City:       "Warszawa",
				PostalCode: "00-001",
			},
		},
		Items: []draft.LineItem{
			{Name: "Consulting", Quantity: dec("2"), Unit: "h", NetPrice: dec("100"), VATRate: dec("23")},
			{Name: "Hosting", Quantity: dec("1"), Unit: "szt.", NetPrice: dec("49.99"), VATRate: dec("8")},
			draft.NewLineItem(),
		},
	}
}

func TestInvoiceService_Create(t *testing.T) {
	f := newInvoiceFixture()

	res, err := f.svc.Create(context.Background(), f.userID.String(), validDraft(f.company.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if res.ID == "" {
		t.Fatal("expected an id")
	}
	if len(res.Items) != 2 {
		t.Fatalf("blank row should be dropped, got %d items", len(res.Items))
	}
	if res.Items[1].VATAmount != "4.00" {
		t.Errorf("hosting vat = %s, want 4.00", res.Items[1].VATAmount)
	}
	if res.NetTotal != "249.99" || res.VATTotal != "50.00" || res.GrossTotal != "299.99" {
		t.Errorf("totals = %s/%s/%s", res.NetTotal, res.VATTotal, res.GrossTotal)
	}
	if res.KSeFStatus != model.KSeFPending {
		t.Errorf("status = %s, want pending", res.KSeFStatus)
	}
	if res.ContractorData.Address.Country != draft.DefaultCountry {
		t.Errorf("country = %q, want default", res.ContractorData.Address.Country)
	}

	if len(f.queue.ids) != 1 || f.queue.ids[0].String() != res.ID {
		t.Errorf("queued = %v, want [%s]", f.queue.ids, res.ID)
	}
	if got := f.audit.actions(); len(got) != 1 || got[0] != model.ActionCreateInvoice {
		t.Errorf("audit = %v", got)
	}

	stored := f.invoices.get(uuid.MustParse(res.ID))
	if stored.CreatedBy == nil || *stored.CreatedBy != f.userID {
		t.Error("created_by not recorded")
	}
}

func TestInvoiceService_CreateValidationFailure(t *testing.T) {
	f := newInvoiceFixture()
	req := validDraft(f.company.ID)
	req.ContractorData.NIP = "123"
	req.Items[0].VATRate = dec("7")

	_, err := f.svc.Create(context.Background(), f.userID.String(), req)

	var vErr *ValidationFailedError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationFailedError", err)
	}
	for _, path := range []string{"contractor_data.nip", "items[0].vat_rate"} {
		if _, ok := vErr.Errors[path]; !ok {
			t.Errorf("missing error for %s in %v", path, vErr.Errors)
		}
	}
	if vErr.Errors["items[0].vat_rate"] != draft.MsgVATRateNotAllowed {
		t.Errorf("vat message = %q", vErr.Errors["items[0].vat_rate"])
	}
	if len(f.invoices.invoices) != 0 || len(f.queue.ids) != 0 {
		t.Error("nothing should be stored or queued")
	}
}

func TestInvoiceService_CreateRefusals(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *invoiceFixture) draft.Invoice
		wantErr error
	}{
		{
			name: "unknown company",
			prepare: func(f *invoiceFixture) draft.Invoice {
				return validDraft(uuid.New())
			},
			wantErr: ErrCompanyNotFound,
		},
		{
			name: "company of someone else",
			prepare: func(f *invoiceFixture) draft.Invoice {
				other := &model.Company{ID: uuid.New(), NIP: "1111111111", Name: "Other"}
				f.companies.add(other, uuid.New())
				return validDraft(other.ID)
			},
			wantErr: ErrCompanyAccessDenied,
		},
		{
			name: "number already used",
			prepare: func(f *invoiceFixture) draft.Invoice {
				_ = f.invoices.Create(context.Background(), &model.Invoice{CompanyID: f.company.ID, InvoiceNumber: "FV/2026/03/001"})
				return validDraft(f.company.ID)
			},
			wantErr: ErrDuplicateInvoiceNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInvoiceFixture()
			req := tt.prepare(f)

			_, err := f.svc.Create(context.Background(), f.userID.String(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(f.queue.ids) != 0 {
				t.Error("refused invoice must not be queued")
			}
		})
	}
}

func TestInvoiceService_CreateSurvivesFullQueue(t *testing.T) {
	f := newInvoiceFixture()
	f.queue.err = ksef.ErrQueueFull

	res, err := f.svc.Create(context.Background(), f.userID.String(), validDraft(f.company.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.KSeFStatus != model.KSeFPending {
		t.Errorf("status = %s, want pending", res.KSeFStatus)
	}
}

func TestInvoiceService_Get(t *testing.T) {
	f := newInvoiceFixture()
	created, err := f.svc.Create(context.Background(), f.userID.String(), validDraft(f.company.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := f.svc.Get(context.Background(), f.userID.String(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.InvoiceNumber != "FV/2026/03/001" || got.IssueDate != "2026-03-02" {
		t.Errorf("got %s issued %s", got.InvoiceNumber, got.IssueDate)
	}

	if _, err := f.svc.Get(context.Background(), uuid.NewString(), created.ID); !errors.Is(err, ErrCompanyAccessDenied) {
		t.Errorf("stranger err = %v, want access denied", err)
	}
	if _, err := f.svc.Get(context.Background(), f.userID.String(), uuid.NewString()); !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("unknown err = %v, want not found", err)
	}
	if _, err := f.svc.Get(context.Background(), f.userID.String(), "nope"); !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("malformed err = %v, want not found", err)
	}
}

func TestInvoiceService_List(t *testing.T) {
	f := newInvoiceFixture()
	if _, err := f.svc.Create(context.Background(), f.userID.String(), validDraft(f.company.ID)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, total, err := f.svc.List(context.Background(), f.userID.String(), InvoiceFilter{From: "2026-03-01", Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("total = %d, len = %d", total, len(list))
	}
	if got := f.invoices.lastList; len(got.CompanyIDs) != 1 || got.CompanyIDs[0] != f.company.ID || got.From == nil {
		t.Errorf("filter = %+v", got)
	}

	if _, _, err := f.svc.List(context.Background(), f.userID.String(), InvoiceFilter{From: "March"}); err == nil {
		t.Error("expected an error for a malformed date")
	}

	list, total, err = f.svc.List(context.Background(), uuid.NewString(), InvoiceFilter{Page: 1, Limit: 20})
	if err != nil || total != 0 || len(list) != 0 {
		t.Errorf("user without companies: %v %d %v", list, total, err)
	}
}

func TestInvoiceService_ValidateFA3(t *testing.T) {
	f := newInvoiceFixture()

	t.Run("valid", func(t *testing.T) {
		report := f.svc.ValidateFA3(validDraft(f.company.ID))
		if !report.IsValid || len(report.Errors) != 0 || len(report.Warnings) != 0 {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("checksum warning", func(t *testing.T) {
		req := validDraft(f.company.ID)
		req.ContractorData.NIP = "1234567890"

		report := f.svc.ValidateFA3(req)
		if !report.IsValid {
			t.Errorf("a checksum mismatch is only a warning: %+v", report)
		}
		if len(report.Warnings) != 1 || report.Warnings[0].Code != CodeNIPChecksum || report.Warnings[0].Severity != SeverityWarning {
			t.Errorf("warnings = %+v", report.Warnings)
		}
	})

	t.Run("errors", func(t *testing.T) {
		req := validDraft(f.company.ID)
		req.InvoiceNumber = ""
		req.ContractorData.NIP = "12"

		report := f.svc.ValidateFA3(req)
		if report.IsValid {
			t.Fatal("expected invalid")
		}
		if len(report.Errors) != 2 {
			t.Fatalf("errors = %+v", report.Errors)
		}
		if report.Errors[0].Path != "contractor_data.nip" || report.Errors[1].Path != "invoice_number" {
			t.Errorf("paths not sorted: %+v", report.Errors)
		}
		if len(report.Warnings) != 0 {
			t.Errorf("no checksum warning on a malformed NIP: %+v", report.Warnings)
		}
	})
}
