package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultScale         = 1.0
	defaultMaxConcurrent = 4

	// cssPixelsPerInch is the CSS reference pixel density
	cssPixelsPerInch = 96.0
	// rollFallbackHeightMM is used when the receipt height cannot be measured
	rollFallbackHeightMM = 3000
)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	// DefaultTimeout for rendering operations
	DefaultTimeout time.Duration
	// RemoteURL is the URL of a remote Chrome/Chromium instance (optional)
	// If empty, chromedp will launch a new browser instance
	RemoteURL string
	// Headless and DisableGPU are always forced on
	Headless   bool
	DisableGPU bool
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// Scale for rendering (default: 1.0)
	Scale float64
	// MaxConcurrent caps how many receipts render at once, one tab each
	MaxConcurrent int
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpRenderer prints receipts to PDF in a single long-lived browser.
// Each render gets its own tab; the browser starts on first use.
type ChromedpRenderer struct {
	config *ChromedpConfig
	logger *zap.Logger
	slots  chan struct{}

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	startMu sync.Mutex
	started bool
}

// NewChromedpRenderer creates a new chromedp-based PDF renderer
func NewChromedpRenderer(config *ChromedpConfig) (*ChromedpRenderer, error) {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}
	if config.Scale == 0 {
		config.Scale = defaultScale
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = defaultMaxConcurrent
	}
	config.Headless = true
	config.DisableGPU = true

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRenderer{
		config: config,
		logger: logger,
		slots:  make(chan struct{}, config.MaxConcurrent),
	}
	r.allocCtx, r.allocCancel = r.newAllocator()
	r.browserCtx, r.browserCancel = chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	return r, nil
}

func (r *ChromedpRenderer) newAllocator() (context.Context, context.CancelFunc) {
	if r.config.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.config.Headless),
		chromedp.Flag("disable-gpu", r.config.DisableGPU),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return chromedp.NewExecAllocator(context.Background(), opts...)
}

// ensureBrowser starts the shared browser. A failed start is retried on the
// next render.
func (r *ChromedpRenderer) ensureBrowser() error {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if r.started {
		return nil
	}
	if err := chromedp.Run(r.browserCtx); err != nil {
		return err
	}
	r.started = true
	r.logger.Info("receipt browser started", zap.Bool("remote", r.config.RemoteURL != ""))
	return nil
}

// Render prints req to PDF
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if !req.PaperSize.IsValid() {
		return nil, NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(req.PaperSize), nil)
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = r.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case r.slots <- struct{}{}:
		defer func() { <-r.slots }()
	case <-ctx.Done():
		return nil, NewRenderError(ErrCodeRenderTimeout, "timed out waiting for a free renderer", ctx.Err())
	}

	if err := r.ensureBrowser(); err != nil {
		r.logger.Error("receipt browser failed to start", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "browser unavailable", err)
	}

	startTime := time.Now()
	tabCtx, closeTab := chromedp.NewContext(r.browserCtx)
	defer closeTab()

	// tie the tab to the caller's deadline
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	pdfData, err := r.print(tabCtx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed: "+err.Error(), err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	result := &RenderResult{
		PDFData:        pdfData,
		PageCount:      estimatePageCount(pdfData),
		RenderDuration: time.Since(startTime),
	}
	r.logger.Debug("receipt PDF rendered",
		zap.Int("bytes", len(result.PDFData)),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result, nil
}

// print loads the document into the tab and prints it. Roll paper is laid
// out at the paper width first so the page can be cut to the receipt length.
func (r *ChromedpRenderer) print(tabCtx context.Context, req *RenderRequest) ([]byte, error) {
	doc := r.buildCompleteHTML(req)

	actions := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, doc).Do(ctx)
		}),
	}

	var contentHeightPx float64
	if req.PaperSize.IsContinuous() {
		width, _ := req.PaperSize.Dimensions()
		printable := float64(width - req.Margins.Left - req.Margins.Right)
		actions = append(actions,
			chromedp.EmulateViewport(int64(mmToInches(printable)*cssPixelsPerInch), 1),
			chromedp.Evaluate(`document.documentElement.scrollHeight`, &contentHeightPx),
		)
	}

	var pdfData []byte
	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		params := r.buildPrintParams(req, contentHeightPx)
		data, _, err := page.PrintToPDF().
			WithPrintBackground(params.printBackground).
			WithPaperWidth(params.paperWidth).
			WithPaperHeight(params.paperHeight).
			WithMarginTop(params.marginTop).
			WithMarginRight(params.marginRight).
			WithMarginBottom(params.marginBottom).
			WithMarginLeft(params.marginLeft).
			WithScale(params.scale).
			WithLandscape(params.landscape).
			Do(ctx)
		if err != nil {
			return err
		}
		pdfData = data
		return nil
	}))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, err
	}
	return pdfData, nil
}

type printParams struct {
	paperWidth      float64
	paperHeight     float64
	marginTop       float64
	marginRight     float64
	marginBottom    float64
	marginLeft      float64
	scale           float64
	landscape       bool
	printBackground bool
}

// buildPrintParams converts a request into PrintToPDF arguments in inches.
// contentHeightPx is the measured receipt height and only matters for roll
// paper; zero falls back to one very tall page.
func (r *ChromedpRenderer) buildPrintParams(req *RenderRequest, contentHeightPx float64) *printParams {
	width, height := req.PaperSize.Dimensions()
	params := &printParams{
		paperWidth:      mmToInches(float64(width)),
		paperHeight:     mmToInches(float64(height)),
		marginTop:       mmToInches(float64(req.Margins.Top)),
		marginRight:     mmToInches(float64(req.Margins.Right)),
		marginBottom:    mmToInches(float64(req.Margins.Bottom)),
		marginLeft:      mmToInches(float64(req.Margins.Left)),
		scale:           r.config.Scale,
		landscape:       req.Landscape,
		printBackground: true,
	}

	if req.PaperSize.IsContinuous() {
		if contentHeightPx > 0 {
			params.paperHeight = contentHeightPx*r.config.Scale/cssPixelsPerInch + params.marginTop + params.marginBottom
		} else {
			params.paperHeight = mmToInches(rollFallbackHeightMM)
		}
		params.landscape = false
	}
	return params
}

// buildCompleteHTML wraps an HTML fragment in a document; full documents pass through
func (r *ChromedpRenderer) buildCompleteHTML(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}

	var buf bytes.Buffer
	buf.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		buf.WriteString("<title>")
		buf.WriteString(html.EscapeString(req.Title))
		buf.WriteString("</title>")
	}
	buf.WriteString("</head><body>")
	buf.WriteString(req.HTML)
	buf.WriteString("</body></html>")
	return buf.String()
}

// Close shuts the browser down
func (r *ChromedpRenderer) Close() error {
	if r.browserCancel != nil {
		r.browserCancel()
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// estimatePageCount counts page objects in the PDF, excluding the /Pages tree nodes
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page")) - bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count, 1)
}
