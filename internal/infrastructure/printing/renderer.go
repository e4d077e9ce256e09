package printing

import (
	"context"
	"time"
)

// PaperSize is a named page format
type PaperSize string

const (
	PaperSizeA4 PaperSize = "A4"
	PaperSizeA5 PaperSize = "A5"
	// PaperSizeReceipt80MM is thermal roll paper with no fixed height
	PaperSizeReceipt80MM PaperSize = "RECEIPT_80MM"
)

// Dimensions returns width and height in millimetres. Roll paper reports a
// zero height.
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA4:
		return 210, 297
	case PaperSizeA5:
		return 148, 210
	case PaperSizeReceipt80MM:
		return 80, 0
	default:
		return 0, 0
	}
}

// IsValid reports whether p is a known size
func (p PaperSize) IsValid() bool {
	w, _ := p.Dimensions()
	return w > 0
}

// IsContinuous reports whether p is roll paper
func (p PaperSize) IsContinuous() bool {
	_, h := p.Dimensions()
	return p.IsValid() && h == 0
}

// Margins in millimetres
type Margins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// DefaultMargins returns the margins used for receipts
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML      string
	PaperSize PaperSize
	Landscape bool
	Margins   Margins
	// Title is used when HTML is a fragment that needs wrapping
	Title string
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer converts HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
