package artifact

import "fmt"

// Store persists conversion artifacts: the uploaded image bytes and the
// rendered ASCII text. Implementations must create each artifact exactly
// once and never mutate it afterward.
type Store interface {
	// EnsureLayout prepares the storage layout. Directory creation is an
	// explicit initialization step taken by the caller, not a package
	// side effect.
	EnsureLayout() error

	// SaveUpload persists raw uploaded image bytes and returns the path
	// of the created file.
	SaveUpload(data []byte, ext string) (string, error)

	// SaveRender persists rendered ASCII text as a .txt file and returns
	// the path of the created file.
	SaveRender(text string) (string, error)

	Close() error
}

// NewStore creates a store of the given type.
func NewStore(storeType, uploadDir, renderDir string) (Store, error) {
	switch storeType {
	case "file":
		return NewFileStore(uploadDir, renderDir), nil
	default:
		return nil, fmt.Errorf("unsupported artifact store type: %s", storeType)
	}
}
