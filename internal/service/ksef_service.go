package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"invoicedesk/internal/ksef"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"
	"invoicedesk/internal/websocket"

	"github.com/google/uuid"
)

// Publisher pushes status events to connected operators.
type Publisher interface {
	Publish(event websocket.InvoiceEvent)
}

// QueueStats exposes the forwarding queue for health reporting.
type QueueStats interface {
	Depth() int
	Capacity() int
}

type KSeFHealth struct {
	Status        string `json:"status"`
	Mode          string `json:"mode"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

// KSeFService forwards stored invoices to the gateway. It is the processor
// run by the ksef.Dispatcher workers.
type KSeFService interface {
	ksef.Processor
	Health() KSeFHealth
	// RequeuePending hands invoices left pending by a restart or an outage back
	// to q, up to its free capacity. It returns how many were queued.
	RequeuePending(ctx context.Context, q Enqueuer) (int, error)
}

type ksefService struct {
	invoiceRepo repository.InvoiceRepository
	gateway     ksef.Gateway
	audit       AuditService
	publisher   Publisher
	queue       QueueStats
	now         func() time.Time
}

func NewKSeFService(
	invoiceRepo repository.InvoiceRepository,
	gateway ksef.Gateway,
	audit AuditService,
	publisher Publisher,
	queue QueueStats,
) KSeFService {
	return &ksefService{
		invoiceRepo: invoiceRepo,
		gateway:     gateway,
		audit:       audit,
		publisher:   publisher,
		queue:       queue,
		now:         time.Now,
	}
}

func (s *ksefService) Health() KSeFHealth {
	return KSeFHealth{
		Status:        "ok",
		Mode:          s.gateway.Mode(),
		QueueDepth:    s.queue.Depth(),
		QueueCapacity: s.queue.Capacity(),
	}
}

func (s *ksefService) RequeuePending(ctx context.Context, q Enqueuer) (int, error) {
	free := s.queue.Capacity() - s.queue.Depth()
	if free <= 0 {
		return 0, nil
	}

	ids, err := s.invoiceRepo.PendingIDs(ctx, free)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending invoices: %w", err)
	}

	queued := 0
	for _, id := range ids {
		if err := q.Enqueue(id); err != nil {
			log.Printf("ksef: requeue stopped at invoice %s: %v", id, err)
			break
		}
		queued++
	}
	return queued, nil
}

// Process submits one invoice. Only pending invoices are sent; anything else
// was already handled by an earlier job.
func (s *ksefService) Process(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.invoiceRepo.FindByIDWithCompany(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to load invoice %s: %w", id, err)
	}
	if invoice.KSeFStatus != model.KSeFPending {
		log.Printf("ksef: invoice %s already %s, skipping", id, invoice.KSeFStatus)
		return nil
	}
	if invoice.Company == nil {
		return fmt.Errorf("invoice %s has no company loaded", id)
	}

	submittedAt := s.now()
	if err := s.invoiceRepo.UpdateKSeF(ctx, id, repository.KSeFUpdate{
		Status:      model.KSeFSubmitted,
		SubmittedAt: &submittedAt,
	}); err != nil {
		return fmt.Errorf("failed to mark invoice %s submitted: %w", id, err)
	}
	invoice.KSeFStatus = model.KSeFSubmitted
	s.audit.Record(ctx, nil, model.ActionKSeFSubmitted, "invoice", id.String(), map[string]string{
		"environment": invoice.Company.KSeFEnvironment,
		"mode":        s.gateway.Mode(),
	})
	s.publish(invoice, model.KSeFSubmitted, "", "")

	document, err := ksef.RenderFA3(toFA3Document(invoice, submittedAt))
	if err != nil {
		return s.reject(ctx, invoice, err.Error())
	}

	result, err := s.gateway.Submit(ctx, ksef.Submission{
		InvoiceNumber: invoice.InvoiceNumber,
		SellerNIP:     invoice.Company.NIP,
		Environment:   invoice.Company.KSeFEnvironment,
		Token:         invoice.Company.KSeFToken,
		Document:      document,
	})
	if err != nil {
		// Put it back so a later run can retry.
		if uerr := s.invoiceRepo.UpdateKSeF(ctx, id, repository.KSeFUpdate{
			Status: model.KSeFPending,
			Error:  err.Error(),
		}); uerr != nil {
			log.Printf("ksef: failed to reset invoice %s: %v", id, uerr)
		}
		s.publish(invoice, model.KSeFPending, "", err.Error())
		return fmt.Errorf("failed to submit invoice %s: %w", id, err)
	}

	if !result.Accepted() {
		msg := result.Error
		if msg == "" {
			msg = result.Message
		}
		return s.reject(ctx, invoice, msg)
	}

	if err := s.invoiceRepo.UpdateKSeF(ctx, id, repository.KSeFUpdate{
		Status:      model.KSeFAccepted,
		KSeFNumber:  result.ReferenceNumber,
		UPO:         result.UPO,
		SubmittedAt: &submittedAt,
	}); err != nil {
		return fmt.Errorf("failed to store acceptance of invoice %s: %w", id, err)
	}
	s.audit.Record(ctx, nil, model.ActionKSeFAccepted, "invoice", id.String(), map[string]string{
		"ksef_number": result.ReferenceNumber,
		"upo":         result.UPO,
	})
	s.publish(invoice, model.KSeFAccepted, result.UPO, "")
	return nil
}

func (s *ksefService) reject(ctx context.Context, invoice *model.Invoice, reason string) error {
	if err := s.invoiceRepo.UpdateKSeF(ctx, invoice.ID, repository.KSeFUpdate{
		Status:      model.KSeFRejected,
		Error:       reason,
		SubmittedAt: invoice.SubmittedAt,
	}); err != nil {
		return fmt.Errorf("failed to store rejection of invoice %s: %w", invoice.ID, err)
	}
	s.audit.Record(ctx, nil, model.ActionKSeFRejected, "invoice", invoice.ID.String(), map[string]string{
		"error": reason,
	})
	s.publish(invoice, model.KSeFRejected, "", reason)
	return nil
}

func (s *ksefService) publish(invoice *model.Invoice, status, upo, errMsg string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(websocket.InvoiceEvent{
		Type:      websocket.EventKSeFStatus,
		InvoiceID: invoice.ID.String(),
		CompanyID: invoice.CompanyID.String(),
		Number:    invoice.InvoiceNumber,
		Status:    status,
		UPO:       upo,
		Error:     errMsg,
	})
}

func toFA3Document(invoice *model.Invoice, createdAt time.Time) ksef.Document {
	contractor := invoice.ContractorData.Data()
	sellerAddr := invoice.Company.Address.Data()

	lines := make([]ksef.Line, 0, len(invoice.Items))
	for _, it := range invoice.Items {
		lines = append(lines, ksef.Line{
			Name:      it.Name,
			Unit:      it.Unit,
			Quantity:  it.Quantity,
			NetPrice:  it.NetPrice,
			VATRate:   it.VATRate,
			NetAmount: it.NetAmount,
		})
	}

	return ksef.Document{
		InvoiceNumber: invoice.InvoiceNumber,
		IssueDate:     invoice.IssueDate,
		SaleDate:      invoice.SaleDate,
		DueDate:       invoice.DueDate,
		PaymentMethod: invoice.PaymentMethod,
		Currency:      invoice.Currency,
		Seller: ksef.Party{
			NIP:        invoice.Company.NIP,
			Name:       invoice.Company.Name,
			Street:     sellerAddr.Street,
			City:       sellerAddr.City,
			PostalCode: sellerAddr.PostalCode,
			Country:    sellerAddr.Country,
		},
		Buyer: ksef.Party{
			NIP:        contractor.NIP,
			Name:       contractor.Name,
			Street:     contractor.Address.Street,
			City:       contractor.Address.City,
			PostalCode: contractor.Address.PostalCode,
			Country:    contractor.Address.Country,
		},
		Lines:      lines,
		NetTotal:   invoice.NetTotal,
		VATTotal:   invoice.VATTotal,
		GrossTotal: invoice.GrossTotal,
		CreatedAt:  createdAt,
	}
}
