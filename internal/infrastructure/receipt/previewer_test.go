package receipt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/billed/bill-review/internal/domain/entity"
)

type memStorage struct {
	files map[string][]byte
}

func (m *memStorage) Save(ctx context.Context, path string, content []byte) error {
	m.files[path] = content
	return nil
}

func (m *memStorage) Read(ctx context.Context, path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (m *memStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *memStorage) GetFullPath(relativePath string) string { return relativePath }

func TestStorageKey(t *testing.T) {
	tests := []struct {
		name    string
		fileURL string
		want    string
		wantErr error
	}{
		{"relative", "receipts/b1/facture.png", "receipts/b1/facture.png", nil},
		{"leading slash", "/receipts/b1/facture.png", "receipts/b1/facture.png", nil},
		{"dot segments", "receipts/../receipts/x.jpg", "receipts/x.jpg", nil},
		{"no receipt", "", "", ErrNoReceipt},
		{"remote", "https://firebasestorage.googleapis.com/v0/b/billable/o/facture.png", "", ErrRemoteReceipt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StorageKey(entity.Bill{FileURL: tt.fileURL})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreviewer_ImagePassThrough(t *testing.T) {
	store := &memStorage{files: map[string][]byte{"receipts/b1/ticket.JPG": []byte("jpeg-bytes")}}
	p := NewPreviewer(store, 0, zap.NewNop())

	preview, err := p.Preview(context.Background(), entity.Bill{ID: "b1", FileURL: "receipts/b1/ticket.JPG"})

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", preview.ContentType)
	assert.Equal(t, []byte("jpeg-bytes"), preview.Data)
}

func TestPreviewer_Errors(t *testing.T) {
	store := &memStorage{files: map[string][]byte{"receipts/b1/notes.txt": []byte("x")}}
	p := NewPreviewer(store, 0, zap.NewNop())
	ctx := context.Background()

	_, err := p.Preview(ctx, entity.Bill{ID: "b1", FileURL: "receipts/b1/notes.txt"})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = p.Preview(ctx, entity.Bill{ID: "b1", FileURL: "receipts/b1/missing.png"})
	assert.Error(t, err)

	_, err = p.Preview(ctx, entity.Bill{ID: "b1"})
	assert.ErrorIs(t, err, ErrNoReceipt)
}

func TestPreviewer_InvalidPDF(t *testing.T) {
	store := &memStorage{files: map[string][]byte{"receipts/b1/facture.pdf": []byte("not a pdf")}}
	p := NewPreviewer(store, 72, zap.NewNop())

	_, err := p.Preview(context.Background(), entity.Bill{ID: "b1", FileURL: "receipts/b1/facture.pdf"})

	assert.Error(t, err)
}
