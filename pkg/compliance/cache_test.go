package compliance

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestParse(t *testing.T) {
	for _, name := range []string{"commercial", "fedramp-moderate", "fedramp-high"} {
		f, err := Parse(name)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", name, err)
		}
		if string(f) != name {
			t.Errorf("Parse(%q) = %q", name, f)
		}
	}

	if _, err := Parse("fedramp-low"); err == nil {
		t.Error("Expected error for unknown framework")
	}
}

func TestDefaultsCache_EmbeddedDocuments(t *testing.T) {
	cache := NewDefaultsCache()

	for _, framework := range Frameworks() {
		doc, err := cache.Document(framework)
		if err != nil {
			t.Fatalf("Document(%s) returned error: %v", framework, err)
		}
		if len(doc) == 0 {
			t.Errorf("Expected non-empty document for %s", framework)
		}
	}
}

func TestDefaultsCache_HighForcesHardening(t *testing.T) {
	cache := NewDefaultsCache()

	defaults, err := cache.Defaults(FrameworkFedRAMPHigh, "object-storage")
	if err != nil {
		t.Fatalf("Defaults returned error: %v", err)
	}

	if defaults["versioning"] != true {
		t.Errorf("Expected fedramp-high to force versioning, got %v", defaults["versioning"])
	}
	enc, ok := defaults["encryption"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected encryption object, got %v", defaults["encryption"])
	}
	if enc["customerManagedKey"] != true {
		t.Errorf("Expected customer managed key, got %v", enc["customerManagedKey"])
	}
}

func TestDefaultsCache_UnknownComponentType(t *testing.T) {
	cache := NewDefaultsCache()

	defaults, err := cache.Defaults(FrameworkCommercial, "does-not-exist")
	if err != nil {
		t.Fatalf("Defaults returned error: %v", err)
	}
	if len(defaults) != 0 {
		t.Errorf("Expected empty defaults, got %v", defaults)
	}
}

func TestDefaultsCache_CallersGetCopies(t *testing.T) {
	cache := NewDefaultsCache()

	first, err := cache.Defaults(FrameworkCommercial, "object-storage")
	if err != nil {
		t.Fatalf("Defaults returned error: %v", err)
	}
	first["versioning"] = true
	enc := first["encryption"].(map[string]interface{})
	enc["enabled"] = false

	second, err := cache.Defaults(FrameworkCommercial, "object-storage")
	if err != nil {
		t.Fatalf("Defaults returned error: %v", err)
	}
	if second["versioning"] != false {
		t.Error("Mutating a returned document leaked into the cache")
	}
	if second["encryption"].(map[string]interface{})["enabled"] != true {
		t.Error("Mutating a nested object leaked into the cache")
	}
}

func TestDefaultsCache_ConcurrentReads(t *testing.T) {
	cache := NewDefaultsCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, framework := range Frameworks() {
				if _, err := cache.Defaults(framework, "db-postgres"); err != nil {
					t.Errorf("Defaults returned error: %v", err)
				}
			}
		}()
	}
	wg.Wait()
}

func TestDefaultsCache_OverrideDirAndReset(t *testing.T) {
	dir := t.TempDir()
	doc := []byte("object-storage:\n  retentionDays: 7\n")
	if err := os.WriteFile(filepath.Join(dir, "commercial.yaml"), doc, 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewDefaultsCache(WithOverrideDir(dir))
	defaults, err := cache.Defaults(FrameworkCommercial, "object-storage")
	if err != nil {
		t.Fatalf("Defaults returned error: %v", err)
	}
	if got, ok := defaults["retentionDays"].(int); !ok || got != 7 {
		t.Errorf("Expected override document value 7, got %v", defaults["retentionDays"])
	}

	// A changed document is not observed until Reset.
	doc = []byte("object-storage:\n  retentionDays: 14\n")
	if err := os.WriteFile(filepath.Join(dir, "commercial.yaml"), doc, 0o644); err != nil {
		t.Fatal(err)
	}
	defaults, _ = cache.Defaults(FrameworkCommercial, "object-storage")
	if got, _ := defaults["retentionDays"].(int); got != 7 {
		t.Errorf("Expected cached value 7 before Reset, got %v", defaults["retentionDays"])
	}

	cache.Reset()
	defaults, _ = cache.Defaults(FrameworkCommercial, "object-storage")
	if got, _ := defaults["retentionDays"].(int); got != 14 {
		t.Errorf("Expected reloaded value 14 after Reset, got %v", defaults["retentionDays"])
	}
}
