package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
)

// Loader reads tap input files from any location afs understands: plain
// paths, file://, mem:// and the cloud storage schemes.
type Loader struct {
	fs afs.Service
}

func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// NewLoaderWithService is used by tests to inject an in-memory afs.
func NewLoaderWithService(fs afs.Service) *Loader {
	return &Loader{fs: fs}
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// LoadConfig reads a JSON or YAML config file, applies defaults and validates it.
func (l *Loader) LoadConfig(ctx context.Context, location string) (*Config, error) {
	data, err := l.read(ctx, location)
	if err != nil {
		return nil, err
	}
	var cfg Config
	switch strings.ToLower(path.Ext(location)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = jsoncodec.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", location, err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadCatalog reads a catalog (or legacy properties) file.
func (l *Loader) LoadCatalog(ctx context.Context, location string) (*domain.Catalog, error) {
	data, err := l.read(ctx, location)
	if err != nil {
		return nil, err
	}
	var catalog domain.Catalog
	if err := jsoncodec.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", location, err)
	}
	return &catalog, nil
}

// LoadState reads a state file. Singer runners sometimes hand over the last
// STATE message instead of its value; both shapes are accepted.
func (l *Loader) LoadState(ctx context.Context, location string) (*domain.State, error) {
	data, err := l.read(ctx, location)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Type  string               `json:"type"`
		Value jsoncodec.RawMessage `json:"value"`
	}
	if err := jsoncodec.Unmarshal(data, &envelope); err == nil && envelope.Type == string(domain.MessageState) && len(envelope.Value) > 0 {
		data = envelope.Value
	}
	state := domain.NewState()
	if err := jsoncodec.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", location, err)
	}
	return state, nil
}
