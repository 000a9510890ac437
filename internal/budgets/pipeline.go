package budgets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/vidrobox-backend/internal/customers"
	"github.com/angelmondragon/vidrobox-backend/internal/notifications"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/email"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/pdf"
	"github.com/angelmondragon/vidrobox-backend/pkg/security"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage"
	"github.com/angelmondragon/vidrobox-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	modeSync  = "sync"
	modeAsync = "async"

	pdfContentType = "application/pdf"
)

type fetchedFile struct {
	url         string
	body        []byte
	contentType string
}

// PDFKey is the storage key of a budget's quote. Re-conversions overwrite it.
func PDFKey(prefix string, budgetID uuid.UUID) string {
	return storage.JoinKey(prefix, "budgets", budgetID.String(), pdfFileName(budgetID))
}

func pdfFileName(budgetID uuid.UUID) string {
	return strings.ToLower(notifications.BudgetReference(budgetID.String())) + ".pdf"
}

// Convert runs the whole pipeline inline and reports the email outcome.
func (s *service) Convert(ctx context.Context, id uuid.UUID) (*ConvertResult, error) {
	return s.convert(ctx, id, modeSync)
}

func (s *service) convert(ctx context.Context, id uuid.UUID, mode string) (result *ConvertResult, err error) {
	started := s.now()
	ctx = s.logg.WithFields(ctx, map[string]any{"budget_id": id.String(), "mode": mode})
	defer func() {
		outcome, emailStatus := "ok", ""
		if err != nil {
			outcome = strings.ToLower(string(pkgerrors.CodeOf(err)))
		} else {
			emailStatus = string(result.EmailStatus)
		}
		s.metrics.ObserveConversion(mode, outcome, emailStatus, s.now().Sub(started))
	}()

	budget, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(deref(budget.Email)) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, reasonMissingEmail)
	}

	photos := s.fetchAll(ctx, budget.PhotoURLs)
	doc := documentOf(budget, photos, s.now())
	body, skipped, err := s.renderer.Render(doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "render budget pdf")
	}
	if skipped > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "skipped_photos", skipped), "some photos could not be embedded in the pdf")
	}

	object, err := s.uploader.Put(ctx, PDFKey(s.keyPrefix, id), body, storage.PutOptions{
		ContentType:  pdfContentType,
		Public:       true,
		CacheControl: "no-cache",
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload budget pdf")
	}

	var sent *models.Budget
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		fresh, err := s.load(ctx, r, id)
		if err != nil {
			return err
		}

		quote := types.FileEntry{Kind: enums.BudgetFileQuote, URL: object.URL, Name: pdfFileName(id), ContentType: pdfContentType}
		manifest := MergeManifest(fresh.Files, quote, deref(fresh.InvoiceURL), fresh.PhotoURLs)

		customer, err := s.customers.Upsert(ctx, tx, contactOf(fresh))
		if err != nil {
			return err
		}

		token := deref(fresh.PublicToken)
		if token == "" {
			if token, err = security.NewPublicToken(); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate public token")
			}
		}

		sentAt := s.now()
		updates := map[string]any{
			"files":        datatypes.JSONSlice[types.FileEntry](manifest),
			"pdf_url":      object.URL,
			"public_token": token,
			"customer_id":  customer.ID,
			"sent_at":      sentAt,
		}
		if err := r.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist conversion")
		}

		fresh.Files = manifest
		fresh.PDFURL = &object.URL
		fresh.PublicToken = &token
		fresh.CustomerID = &customer.ID
		fresh.SentAt = &sentAt
		sent = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = &ConvertResult{
		BudgetID:    id,
		PDFURL:      object.URL,
		PublicToken: deref(sent.PublicToken),
		CustomerID:  *sent.CustomerID,
	}
	result.EmailStatus, result.EmailError = s.sendQuote(ctx, sent, body, photos)
	return result, nil
}

// sendQuote emails the quote. Its outcome is reported, never returned as an
// error: the conversion is already committed.
func (s *service) sendQuote(ctx context.Context, budget *models.Budget, quote []byte, photos []fetchedFile) (enums.EmailStatus, string) {
	attachments := []email.Attachment{{Filename: pdfFileName(budget.ID), Content: quote, ContentType: pdfContentType}}
	if invoice := strings.TrimSpace(deref(budget.InvoiceURL)); invoice != "" {
		for _, f := range s.fetchAll(ctx, []string{invoice}) {
			attachments = append(attachments, email.Attachment{Filename: fileName(f.url, "nota-fiscal.pdf"), Content: f.body, ContentType: f.contentType})
		}
	}
	for _, f := range photos {
		attachments = append(attachments, email.Attachment{Filename: fileName(f.url, "foto"), Content: f.body, ContentType: f.contentType})
	}

	err := s.notifier.Notify(ctx, notifications.BudgetSent(budget, attachments))
	switch {
	case err == nil:
		s.logg.Info(ctx, "budget sent")
		return enums.EmailStatusSent, ""
	case errors.Is(err, notifications.ErrEmailDisabled):
		s.logg.Debug(ctx, "budget email skipped: email disabled")
		return enums.EmailStatusSkipped, ""
	default:
		s.logg.WarnErr(ctx, "budget email failed", err)
		return enums.EmailStatusFailed, err.Error()
	}
}

// fetchAll downloads urls in order, skipping the ones that fail.
func (s *service) fetchAll(ctx context.Context, urls []string) []fetchedFile {
	out := make([]fetchedFile, 0, len(urls))
	for _, u := range urls {
		file, err := s.fetcher.Get(ctx, u)
		if err != nil {
			s.logg.WarnErr(s.logg.WithField(ctx, "url", u), "attachment fetch failed", err)
			continue
		}
		out = append(out, fetchedFile{url: u, body: file.Body, contentType: file.ContentType})
	}
	return out
}

func contactOf(b *models.Budget) customers.Contact {
	return customers.Contact{
		Name:    b.Name,
		Email:   deref(b.Email),
		Phone:   b.Phone,
		Address: b.Address,
		City:    b.City,
	}
}

func documentOf(b *models.Budget, photos []fetchedFile, issuedAt time.Time) pdf.BudgetDocument {
	doc := pdf.BudgetDocument{
		Reference: notifications.BudgetReference(b.ID.String()),
		IssuedAt:  issuedAt,
		Customer: pdf.Customer{
			Name:    b.Name,
			Email:   deref(b.Email),
			Phone:   deref(b.Phone),
			Address: deref(b.Address),
			City:    deref(b.City),
		},
		Product: pdf.Product{
			Model:      b.Model,
			GlassType:  deref(b.GlassType),
			GlassColor: deref(b.GlassColor),
			Finish:     deref(b.Finish),
			Quantity:   b.Quantity,
		},
		Notes:             deref(b.Notes),
		ProductCents:      b.ProductCents,
		InstallationCents: b.InstallationCents,
		DiscountCents:     b.DiscountCents,
		TotalCents:        b.TotalCents,
	}
	if b.WidthMM != nil {
		doc.Product.WidthMM = *b.WidthMM
	}
	if b.HeightMM != nil {
		doc.Product.HeightMM = *b.HeightMM
	}
	for _, p := range photos {
		doc.Photos = append(doc.Photos, p.body)
	}
	return doc
}
