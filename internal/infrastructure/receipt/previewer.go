// Package receipt renders uploaded receipts for the dashboard eye-icon modal.
package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/url"
	"path"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/domain/entity"
)

var (
	ErrNoReceipt       = errors.New("bill has no receipt")
	ErrRemoteReceipt   = errors.New("receipt is not stored locally")
	ErrUnsupportedType = errors.New("unsupported receipt type")
)

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Previewer reads receipts from storage. Images are returned as stored;
// PDFs are rasterized to a PNG of their first page.
type Previewer struct {
	storage port.FileStorage
	dpi     float64
	logger  *zap.Logger
}

// NewPreviewer creates a Previewer; dpi <= 0 uses the library default
func NewPreviewer(storage port.FileStorage, dpi float64, logger *zap.Logger) *Previewer {
	return &Previewer{storage: storage, dpi: dpi, logger: logger}
}

// Preview implements port.ReceiptPreviewer
func (p *Previewer) Preview(ctx context.Context, bill entity.Bill) (*port.Preview, error) {
	key, err := StorageKey(bill)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(key))
	if ext == ".pdf" {
		data, err := p.storage.Read(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read receipt %s: %w", key, err)
		}
		img, err := p.firstPage(data)
		if err != nil {
			p.logger.Error("Failed to render receipt", zap.String("bill_id", bill.ID), zap.Error(err))
			return nil, fmt.Errorf("render receipt %s: %w", key, err)
		}
		return &port.Preview{ContentType: "image/png", Data: img}, nil
	}

	contentType, ok := imageTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	data, err := p.storage.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read receipt %s: %w", key, err)
	}
	return &port.Preview{ContentType: contentType, Data: data}, nil
}

func (p *Previewer) firstPage(pdf []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, errors.New("pdf has no pages")
	}

	var buf bytes.Buffer
	if p.dpi > 0 {
		img, err := doc.ImageDPI(0, p.dpi)
		if err != nil {
			return nil, err
		}
		err = png.Encode(&buf, img)
		return buf.Bytes(), err
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, err
	}
	err = png.Encode(&buf, img)
	return buf.Bytes(), err
}

// StorageKey returns the storage path of a bill's receipt. fileUrl is used
// when it is a relative path; absolute URLs belong to another store.
func StorageKey(bill entity.Bill) (string, error) {
	if bill.FileURL == "" {
		return "", ErrNoReceipt
	}
	u, err := url.Parse(bill.FileURL)
	if err != nil {
		return "", fmt.Errorf("parse fileUrl: %w", err)
	}
	if u.Scheme != "" || u.Host != "" {
		return "", fmt.Errorf("%w: %s", ErrRemoteReceipt, bill.FileURL)
	}
	return strings.TrimPrefix(path.Clean("/"+u.Path), "/"), nil
}

var _ port.ReceiptPreviewer = (*Previewer)(nil)
