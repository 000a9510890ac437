package pdf

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"strings"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/money"
	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
)

const (
	defaultPhotoMaxWidth = 800
	photoJPEGQuality     = 80
	pageMargin           = 15.0
	labelWidth           = 55.0
	lineHeight           = 7.0
)

// Customer is the contact block printed on the quote.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
}

// Product is the enclosure configuration being quoted.
type Product struct {
	Model      string
	GlassType  string
	GlassColor string
	Finish     string
	WidthMM    int
	HeightMM   int
	Quantity   int
}

// BudgetDocument holds everything needed to render one quote.
type BudgetDocument struct {
	Reference         string
	IssuedAt          time.Time
	Customer          Customer
	Product           Product
	Notes             string
	ProductCents      int64
	InstallationCents int64
	DiscountCents     int64
	TotalCents        int64
	Photos            [][]byte
}

// Renderer turns budgets into PDF bytes. Output is deterministic for a given
// document.
type Renderer struct {
	companyName   string
	validityDays  int
	photoMaxWidth int
}

func NewRenderer(companyName string, validityDays, photoMaxWidth int) *Renderer {
	if photoMaxWidth <= 0 {
		photoMaxWidth = defaultPhotoMaxWidth
	}
	return &Renderer{companyName: companyName, validityDays: validityDays, photoMaxWidth: photoMaxWidth}
}

// Render builds the quote. Photos that cannot be decoded are left out and
// counted in skipped.
func (r *Renderer) Render(doc BudgetDocument) (out []byte, skipped int, err error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.IssuedAt)
	pdf.SetModificationDate(doc.IssuedAt)
	pdf.SetTitle("Orçamento "+doc.Reference, true)
	pdf.SetAuthor(r.companyName, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(r.companyName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Orçamento %s", doc.Reference)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Emitido em "+doc.IssuedAt.Format("02/01/2006")), "", 1, "L", false, 0, "")
	if r.validityDays > 0 {
		validUntil := doc.IssuedAt.AddDate(0, 0, r.validityDays)
		pdf.CellFormat(0, 6, tr("Válido até "+validUntil.Format("02/01/2006")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, tr, "Cliente")
	row(pdf, tr, "Nome", doc.Customer.Name)
	row(pdf, tr, "E-mail", doc.Customer.Email)
	row(pdf, tr, "Telefone", doc.Customer.Phone)
	row(pdf, tr, "Endereço", joinNonEmpty(", ", doc.Customer.Address, doc.Customer.City))
	pdf.Ln(3)

	section(pdf, tr, "Produto")
	row(pdf, tr, "Modelo", doc.Product.Model)
	row(pdf, tr, "Vidro", joinNonEmpty(" ", doc.Product.GlassType, doc.Product.GlassColor))
	row(pdf, tr, "Acabamento", doc.Product.Finish)
	if doc.Product.WidthMM > 0 && doc.Product.HeightMM > 0 {
		row(pdf, tr, "Medidas", fmt.Sprintf("%d x %d mm", doc.Product.WidthMM, doc.Product.HeightMM))
	}
	if doc.Product.Quantity > 0 {
		row(pdf, tr, "Quantidade", fmt.Sprintf("%d", doc.Product.Quantity))
	}
	pdf.Ln(3)

	section(pdf, tr, "Valores")
	row(pdf, tr, "Produto", money.FormatBRL(doc.ProductCents))
	row(pdf, tr, "Instalação", money.FormatBRL(doc.InstallationCents))
	if doc.DiscountCents != 0 {
		row(pdf, tr, "Desconto", "-"+money.FormatBRL(doc.DiscountCents))
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(labelWidth, lineHeight+1, tr("Total"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight+1, tr(money.FormatBRL(doc.TotalCents)), "T", 1, "L", false, 0, "")

	if notes := strings.TrimSpace(doc.Notes); notes != "" {
		pdf.Ln(4)
		section(pdf, tr, "Observações")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(notes), "", "L", false)
	}

	skipped = r.addPhotos(pdf, tr, doc.Photos)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, skipped, fmt.Errorf("render budget pdf: %w", err)
	}
	return buf.Bytes(), skipped, nil
}

func (r *Renderer) addPhotos(pdf *fpdf.Fpdf, tr func(string) string, photos [][]byte) int {
	skipped := 0
	placed := 0
	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*pageMargin

	for i, raw := range photos {
		img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
		if err != nil {
			skipped++
			continue
		}
		img = imaging.Fit(img, r.photoMaxWidth, r.photoMaxWidth, imaging.Lanczos)

		var jpg bytes.Buffer
		if err := jpeg.Encode(&jpg, img, &jpeg.Options{Quality: photoJPEGQuality}); err != nil {
			skipped++
			continue
		}

		if placed == 0 {
			pdf.AddPage()
			section(pdf, tr, "Fotos")
		}
		name := fmt.Sprintf("photo-%d", i)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(name, opts, &jpg)
		if pdf.Err() {
			pdf.ClearError()
			skipped++
			continue
		}

		bounds := img.Bounds()
		width := usable / 2
		height := width * float64(bounds.Dy()) / float64(bounds.Dx())
		x := pageMargin
		if placed%2 == 1 {
			x += width
		}
		if placed%2 == 0 && placed > 0 {
			pdf.Ln(2)
		}
		y := pdf.GetY()
		pdf.ImageOptions(name, x, y, width-2, height, false, opts, 0, "")
		if placed%2 == 1 {
			pdf.SetY(y + height)
		}
		placed++
	}
	return skipped
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func row(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelWidth, lineHeight, tr(label), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, tr(value), "", 1, "L", false, 0, "")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
