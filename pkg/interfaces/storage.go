package interfaces

import (
	"github.com/goliatone/go-garden/pkg/storage"
)

// StorageProvider is the artifact sink used by the generator. Implementations
// should satisfy pkg/storage.Provider directly.
type StorageProvider = storage.Provider
