package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	domsvc "BrentCast/internal/domain/service"
	"BrentCast/internal/services/normalize"
	applogger "BrentCast/pkg/logger"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	KindGBTree = "gbtree"
	KindLSTM   = "lstm"
)

// ModelArtifact is the on-disk envelope for a trained model.
type ModelArtifact struct {
	Kind   string                `json:"kind" msgpack:"kind"`
	GBTree *TreeEnsembleArtifact `json:"gbtree,omitempty" msgpack:"gbtree,omitempty"`
	LSTM   *LSTMArtifact         `json:"lstm,omitempty" msgpack:"lstm,omitempty"`
}

// Source tells the loader where a named model lives. When RemoteURL is set the
// model is served remotely and Artifact is ignored.
type Source struct {
	Artifact  string
	Scaler    string
	RemoteURL string
}

// LoaderOption configures an ArtifactLoader.
type LoaderOption func(*ArtifactLoader)

// WithLoaderLogger attaches a structured logger.
func WithLoaderLogger(l *applogger.Logger) LoaderOption {
	return func(a *ArtifactLoader) { a.l = l }
}

// WithCacheSize bounds the number of decoded artifacts kept in memory.
func WithCacheSize(n int) LoaderOption {
	return func(a *ArtifactLoader) { a.cacheSize = n }
}

// WithRemote sets the timeout and attempt count for remote models.
func WithRemote(timeout time.Duration, attempts int) LoaderOption {
	return func(a *ArtifactLoader) { a.remoteTimeout, a.remoteAttempts = timeout, attempts }
}

// ArtifactLoader resolves models and scalers from files under a directory and
// keeps decoded instances in an LRU. Cached instances are shared between callers.
type ArtifactLoader struct {
	dir            string
	sources        map[string]Source
	cacheSize      int
	cache          *lru.Cache[string, any]
	remoteTimeout  time.Duration
	remoteAttempts int
	l              *applogger.Logger
}

// NewArtifactLoader builds a loader over dir. Relative artifact paths resolve against dir.
func NewArtifactLoader(dir string, sources map[string]Source, opts ...LoaderOption) (*ArtifactLoader, error) {
	a := &ArtifactLoader{
		dir:            dir,
		sources:        make(map[string]Source, len(sources)),
		cacheSize:      16,
		remoteTimeout:  3 * time.Second,
		remoteAttempts: 3,
	}
	for k, v := range sources {
		a.sources[k] = v
	}
	for _, opt := range opts {
		opt(a)
	}
	cache, err := lru.New[string, any](a.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("artifact cache: %w", err)
	}
	a.cache = cache
	return a, nil
}

// LoadModel returns the decoded model registered under name.
func (a *ArtifactLoader) LoadModel(ctx context.Context, name string) (domsvc.Model, error) {
	src, ok := a.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domsvc.ErrUnknownModel, name)
	}
	key := "model:" + name
	if v, ok := a.cache.Get(key); ok {
		return v.(domsvc.Model), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m domsvc.Model
	if src.RemoteURL != "" {
		m = NewRemoteModel(name, strings.TrimRight(src.RemoteURL, "/"), a.remoteTimeout, a.remoteAttempts)
	} else {
		var art ModelArtifact
		path := a.resolve(src.Artifact)
		if err := DecodeFile(path, &art); err != nil {
			return nil, fmt.Errorf("load model %s: %w", name, err)
		}
		built, err := BuildModel(art)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", name, err)
		}
		m = built
	}
	a.cache.Add(key, m)
	if a.l != nil {
		a.l.Info("model loaded",
			applogger.String("model", name),
			applogger.Bool("remote", src.RemoteURL != ""),
		)
	}
	return m, nil
}

// LoadTransform returns the fitted scaler registered for name. A model without
// a scaler artifact gets the identity transform.
func (a *ArtifactLoader) LoadTransform(ctx context.Context, name string) (domsvc.Transform, error) {
	src, ok := a.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domsvc.ErrUnknownModel, name)
	}
	if src.Scaler == "" {
		return normalize.Identity{}, nil
	}
	key := "scaler:" + name
	if v, ok := a.cache.Get(key); ok {
		return v.(domsvc.Transform), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p normalize.Params
	if err := DecodeFile(a.resolve(src.Scaler), &p); err != nil {
		return nil, fmt.Errorf("load scaler %s: %w", name, err)
	}
	t, err := normalize.FromParams(p)
	if err != nil {
		return nil, fmt.Errorf("load scaler %s: %w", name, err)
	}
	a.cache.Add(key, t)
	return t, nil
}

// Purge drops every cached artifact so the next load re-reads from disk.
func (a *ArtifactLoader) Purge() { a.cache.Purge() }

func (a *ArtifactLoader) resolve(p string) string {
	if filepath.IsAbs(p) || a.dir == "" {
		return p
	}
	return filepath.Join(a.dir, p)
}

// BuildModel turns a decoded envelope into a runnable model.
func BuildModel(art ModelArtifact) (domsvc.Model, error) {
	switch art.Kind {
	case KindGBTree:
		if art.GBTree == nil {
			return nil, fmt.Errorf("gbtree artifact has no body")
		}
		return NewTreeEnsemble(*art.GBTree)
	case KindLSTM:
		if art.LSTM == nil {
			return nil, fmt.Errorf("lstm artifact has no body")
		}
		return NewLSTM(*art.LSTM)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", art.Kind)
	}
}

// DecodeFile reads a .json or .msgpack file into dest.
func DecodeFile(path string, dest interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, dest)
	case ".msgpack", ".mpk":
		err = msgpack.Unmarshal(raw, dest)
	default:
		return fmt.Errorf("unsupported artifact format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// EncodeFile writes v to path, choosing the codec from the extension.
func EncodeFile(path string, v interface{}) error {
	var (
		raw []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err = json.MarshalIndent(v, "", "  ")
	case ".msgpack", ".mpk":
		raw, err = msgpack.Marshal(v)
	default:
		return fmt.Errorf("unsupported artifact format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, raw, 0o644)
}

var _ domsvc.ArtifactLoader = (*ArtifactLoader)(nil)
