// Package scraper fetches raw LinkedIn profile records.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Source returns the raw record for a profile url. Fetching is best effort: any
// failure yields an empty record.
type Source interface {
	Fetch(ctx context.Context, profileURL string) map[string]any
}

// File serves a previously dumped record, either a single object or a dataset array.
type File struct {
	path   string
	logger *zap.Logger
}

func NewFile(logger *zap.Logger, path string) *File {
	return &File{path: path, logger: logger}
}

func (f *File) Fetch(_ context.Context, profileURL string) map[string]any {
	record, err := f.read()
	if err != nil {
		f.logger.Warn("reading profile file failed", zap.String("path", f.path), zap.String("url", profileURL), zap.Error(err))
		return map[string]any{}
	}
	return record
}

func (f *File) read() (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return firstRecord(data)
}

// firstRecord accepts either an object or an array of objects.
func firstRecord(data []byte) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	switch v := decoded.(type) {
	case map[string]any:
		return v, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("no profile in dataset")
		}
		record, ok := v[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected dataset item %T", v[0])
		}
		return record, nil
	default:
		return nil, fmt.Errorf("unexpected profile payload %T", decoded)
	}
}
