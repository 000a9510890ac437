package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func sampleDoc(photos ...[]byte) BudgetDocument {
	return BudgetDocument{
		Reference: "ORC-1A2B3C4D",
		IssuedAt:  time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		Customer:  Customer{Name: "João Araújo", Email: "joao@example.com", City: "São Paulo"},
		Product: Product{
			Model: "Box de correr", GlassType: "Temperado 8mm", GlassColor: "Incolor",
			Finish: "Preto fosco", WidthMM: 1200, HeightMM: 1900, Quantity: 1,
		},
		ProductCents:      189000,
		InstallationCents: 25000,
		DiscountCents:     10000,
		TotalCents:        204000,
		Notes:             "Instalação em até 7 dias úteis.",
		Photos:            photos,
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer("Vidrobox", 15, 200)
	out, skipped, err := r.Render(sampleDoc(samplePNG(t)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("expected no skipped photos, got %d", skipped)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestRenderSkipsUndecodablePhotos(t *testing.T) {
	r := NewRenderer("Vidrobox", 0, 0)
	_, skipped, err := r.Render(sampleDoc([]byte("not an image"), samplePNG(t)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected one skipped photo, got %d", skipped)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer("Vidrobox", 15, 200)
	first, _, err := r.Render(sampleDoc(samplePNG(t)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, _, err := r.Render(sampleDoc(samplePNG(t)))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("expected identical output for identical input")
	}
}
