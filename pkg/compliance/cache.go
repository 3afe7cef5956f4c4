package compliance

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// DefaultsDoc is one framework's default document: component type to the
// default configuration object applied beneath manifest-supplied values.
type DefaultsDoc map[string]map[string]interface{}

// DefaultsCache loads framework default documents and caches them for the
// lifetime of the process. The cache is read-through: a document is parsed
// at most once per framework key and never mutated in place afterwards, so
// concurrent resolution runs cannot observe partial writes. Callers always
// receive deep copies.
type DefaultsCache struct {
	mu          sync.RWMutex
	docs        map[Framework]DefaultsDoc
	overrideDir string
}

// CacheOption configures a DefaultsCache.
type CacheOption func(*DefaultsCache)

// WithOverrideDir makes the cache read "<framework>.yaml" documents from dir
// instead of the embedded copies. Used by operators shipping their own
// hardening posture.
func WithOverrideDir(dir string) CacheOption {
	return func(c *DefaultsCache) {
		c.overrideDir = dir
	}
}

// NewDefaultsCache creates an empty cache. Documents load on first use.
func NewDefaultsCache(opts ...CacheOption) *DefaultsCache {
	c := &DefaultsCache{docs: make(map[Framework]DefaultsDoc)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Defaults returns the default configuration for one component type under
// the given framework. A component type with no entry in the document gets
// an empty map, not an error.
func (c *DefaultsCache) Defaults(framework Framework, componentType string) (map[string]interface{}, error) {
	doc, err := c.Document(framework)
	if err != nil {
		return nil, err
	}
	defaults, ok := doc[componentType]
	if !ok {
		return map[string]interface{}{}, nil
	}
	return copyConfig(defaults), nil
}

// Document returns a deep copy of the full default document for a framework,
// loading and caching it on first use.
func (c *DefaultsCache) Document(framework Framework) (DefaultsDoc, error) {
	if !framework.Valid() {
		return nil, fmt.Errorf("unknown compliance framework %q", framework)
	}

	c.mu.RLock()
	doc, ok := c.docs[framework]
	c.mu.RUnlock()
	if ok {
		return copyDoc(doc), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if doc, ok := c.docs[framework]; ok {
		return copyDoc(doc), nil
	}

	doc, err := c.load(framework)
	if err != nil {
		return nil, err
	}
	c.docs[framework] = doc
	return copyDoc(doc), nil
}

// Reset drops every cached document. Intended for tests that swap the
// override directory between cases.
func (c *DefaultsCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = make(map[Framework]DefaultsDoc)
}

func (c *DefaultsCache) load(framework Framework) (DefaultsDoc, error) {
	name := string(framework) + ".yaml"

	var raw []byte
	var err error
	if c.overrideDir != "" {
		raw, err = os.ReadFile(filepath.Join(c.overrideDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read defaults for %s from %s: %w", framework, c.overrideDir, err)
		}
	} else {
		raw, err = defaultsFS.ReadFile("defaults/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded defaults for %s: %w", framework, err)
		}
	}

	var doc DefaultsDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse defaults document for %s: %w", framework, err)
	}
	if doc == nil {
		doc = DefaultsDoc{}
	}
	return normalizeDoc(doc), nil
}

// normalizeDoc rewrites yaml.v3's map[string]interface{} trees so every
// nested mapping is a map[string]interface{}, matching what the merge and
// schema layers expect.
func normalizeDoc(doc DefaultsDoc) DefaultsDoc {
	out := make(DefaultsDoc, len(doc))
	for componentType, cfg := range doc {
		normalized := normalizeValue(cfg)
		if m, ok := normalized.(map[string]interface{}); ok {
			out[componentType] = m
		}
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, child := range tv {
			out[k] = normalizeValue(child)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, child := range tv {
			out[fmt.Sprintf("%v", k)] = normalizeValue(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, child := range tv {
			out[i] = normalizeValue(child)
		}
		return out
	default:
		return v
	}
}

func copyDoc(doc DefaultsDoc) DefaultsDoc {
	out := make(DefaultsDoc, len(doc))
	for k, v := range doc {
		out[k] = copyConfig(v)
	}
	return out
}

func copyConfig(cfg map[string]interface{}) map[string]interface{} {
	out, _ := normalizeValue(cfg).(map[string]interface{})
	if out == nil {
		out = map[string]interface{}{}
	}
	return out
}
