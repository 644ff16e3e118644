package repository

import (
	"context"

	"github.com/mhollis/quizdeck/internal/models"
)

// DocumentRepository reads and writes the single root document.
//
// The document is one shared blob with no cross-process transactional
// guarantee: two processes race and the last write wins. That is accepted;
// only one control view is expected per database, and display views never
// write. Within a process, every mutation must go through Update so the
// timer task and handler goroutines never overwrite each other.
type DocumentRepository interface {
	// Load returns the root document, normalized. A missing or corrupt
	// record yields a fresh empty document, never an error about shape.
	Load(ctx context.Context) (*models.RootDocument, error)
	// Save persists the root document.
	Save(ctx context.Context, doc *models.RootDocument) error
	// Update atomically applies fn to the document, saving when fn reports
	// a change. fn's error aborts the write and is returned as-is.
	Update(ctx context.Context, fn func(doc *models.RootDocument) (bool, error)) error
}

// SettingsRepository stores app-level key/value settings (base URL etc.).
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}
