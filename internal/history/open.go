package history

import (
	"fmt"

	"github.com/raphaelgruber/uniassist/internal/config"
)

// Open returns the store selected by cfg.HistoryBackend. records is required
// only for the surreal backend.
func Open(cfg config.Config, records HistoryRecords) (Store, error) {
	switch cfg.HistoryBackend {
	case config.HistoryBackendFile, "":
		return NewFileStore(cfg.HistoryDir), nil
	case config.HistoryBackendBolt:
		return OpenBoltStore(cfg.HistoryBoltPath)
	case config.HistoryBackendSurreal:
		if records == nil {
			return nil, fmt.Errorf("surreal history backend requires a database client")
		}
		return NewSurrealStore(records), nil
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.HistoryBackend)
	}
}
