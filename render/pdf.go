// C:\Users\wasab\OneDrive\デスクトップ\PYRO\render\pdf.go
package render

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// PDFRenderer はヘッドレス Chromium で HTML を PDF にします。
// ブラウザは最初の呼び出しで起動し、Close まで使い回します。
type PDFRenderer struct {
	mu      sync.Mutex
	browser *rod.Browser
	log     *zap.Logger
}

func NewPDFRenderer(log *zap.Logger) *PDFRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &PDFRenderer{log: log}
}

func (r *PDFRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	// Leakless(false) でセキュリティソフト対策
	u, err := launcher.New().
		Headless(true).
		Leakless(false).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("ブラウザの起動に失敗: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("ブラウザへの接続に失敗: %w", err)
	}
	r.log.Info("headless browser started", zap.String("controlURL", u))
	r.browser = b
	return b, nil
}

// Render は HTML を A4 の PDF にして返します。
func (r *PDFRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	b, err := r.connect()
	if err != nil {
		return nil, err
	}

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("ページの作成に失敗: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("HTMLの読み込みに失敗: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("ページの読み込み待ちに失敗: %w", err)
	}

	paperWidth, paperHeight := 8.27, 11.69 // A4 (inch)
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      &paperWidth,
		PaperHeight:     &paperHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("PDFの生成に失敗: %w", err)
	}
	defer stream.Close()
	return io.ReadAll(stream)
}

// Close は起動済みのブラウザを終了します。
func (r *PDFRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
