package printing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaperSize(t *testing.T) {
	w, h := PaperSizeA5.Dimensions()
	assert.Equal(t, 148, w)
	assert.Equal(t, 210, h)
	assert.True(t, PaperSizeReceipt80MM.IsContinuous())
	assert.False(t, PaperSizeA4.IsContinuous())
	assert.False(t, PaperSize("LETTER").IsValid())
}

func TestBuildPrintParams(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{Scale: 1.0}}

	t.Run("A5 portrait", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{PaperSize: PaperSizeA5, Margins: DefaultMargins()}, 0)

		assert.InDelta(t, mmToInches(148), params.paperWidth, 0.01)
		assert.InDelta(t, mmToInches(210), params.paperHeight, 0.01)
		assert.InDelta(t, mmToInches(10), params.marginTop, 0.001)
		assert.False(t, params.landscape)
		assert.True(t, params.printBackground)
	})

	t.Run("landscape", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{PaperSize: PaperSizeA4, Landscape: true}, 0)
		assert.True(t, params.landscape)
	})

	t.Run("unmeasured roll paper is one tall page", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{PaperSize: PaperSizeReceipt80MM}, 0)

		assert.InDelta(t, mmToInches(80), params.paperWidth, 0.01)
		assert.Greater(t, params.paperHeight, mmToInches(1000))
	})

	t.Run("roll paper is cut to the receipt length", func(t *testing.T) {
		req := &RenderRequest{PaperSize: PaperSizeReceipt80MM, Margins: Margins{Top: 5, Bottom: 5}, Landscape: true}
		params := r.buildPrintParams(req, 960)

		// 960 css px is 10 inches, plus 10mm of margins
		assert.InDelta(t, 10+mmToInches(10), params.paperHeight, 0.001)
		assert.False(t, params.landscape)
	})

	t.Run("measured height ignored for fixed paper", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{PaperSize: PaperSizeA4}, 960)
		assert.InDelta(t, mmToInches(297), params.paperHeight, 0.01)
	})
}

func TestBuildCompleteHTML(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}

	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, r.buildCompleteHTML(&RenderRequest{HTML: full}))

	wrapped := r.buildCompleteHTML(&RenderRequest{HTML: "<p>x</p>", Title: "A & B"})
	assert.True(t, strings.HasPrefix(wrapped, "<!DOCTYPE html>"))
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>x</p></body>")
}

func TestChromedpRenderer_RejectsBadRequests(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}
	ctx := context.Background()

	_, err := r.Render(ctx, nil)
	assert.ErrorContains(t, err, "nil")

	_, err = r.Render(ctx, &RenderRequest{HTML: "  ", PaperSize: PaperSizeA5})
	var rerr *RenderError
	assert.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidHTML, rerr.Code)

	_, err = r.Render(ctx, &RenderRequest{HTML: "<p>x</p>", PaperSize: "LETTER"})
	assert.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidPaperSize, rerr.Code)
}

func TestEstimatePageCount(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Kids [1 0 R 2 0 R] >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF-1.7")))
}

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{RemoteURL: "ws://127.0.0.1:9222"})
	assert.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.Equal(t, defaultScale, r.config.Scale)
	assert.Equal(t, defaultMaxConcurrent, cap(r.slots))
	assert.True(t, r.config.Headless)
	assert.False(t, r.started)
}
