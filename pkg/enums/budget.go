package enums

// BudgetFileKind classifies entries of a budget file manifest.
type BudgetFileKind string

const (
	BudgetFileQuote   BudgetFileKind = "quote"
	BudgetFileInvoice BudgetFileKind = "invoice"
	BudgetFilePhoto   BudgetFileKind = "photo"
)

// EmailStatus is the outcome of the best-effort email step.
type EmailStatus string

const (
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
	EmailStatusSkipped EmailStatus = "skipped"
)

func (s EmailStatus) String() string {
	return string(s)
}
