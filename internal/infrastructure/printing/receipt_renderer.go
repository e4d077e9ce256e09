package printing

import (
	"context"

	"github.com/bizledger/backend/internal/domain/finance"
)

// ReceiptRenderer produces receipt HTML from the template and hands it to a
// PDFRenderer for the printable copy
type ReceiptRenderer struct {
	template  *ReceiptTemplate
	pdf       PDFRenderer
	paperSize PaperSize
}

// NewReceiptRenderer creates a renderer. pdf may be nil, in which case only
// HTML is available.
func NewReceiptRenderer(pdf PDFRenderer) (*ReceiptRenderer, error) {
	tmpl, err := NewReceiptTemplate()
	if err != nil {
		return nil, err
	}
	return &ReceiptRenderer{template: tmpl, pdf: pdf, paperSize: PaperSizeA5}, nil
}

// RenderHTML renders the receipt as a standalone HTML document
func (r *ReceiptRenderer) RenderHTML(view *finance.ReceiptView) ([]byte, error) {
	return r.template.Execute(view)
}

// RenderPDF renders the receipt to an A5 PDF
func (r *ReceiptRenderer) RenderPDF(ctx context.Context, view *finance.ReceiptView) ([]byte, error) {
	if r.pdf == nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "no PDF renderer configured", nil)
	}
	body, err := r.template.Execute(view)
	if err != nil {
		return nil, err
	}
	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:      string(body),
		PaperSize: r.paperSize,
		Margins:   DefaultMargins(),
		Title:     "Receipt " + view.ReceiptNumber,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}

// Close releases the PDF renderer
func (r *ReceiptRenderer) Close() error {
	if r.pdf == nil {
		return nil
	}
	return r.pdf.Close()
}
