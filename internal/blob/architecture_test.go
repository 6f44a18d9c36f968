package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const (
	blobPkg        = "sharedlist/internal/blob"
	infraBlobPkg   = "sharedlist/internal/infra/blob"
	persistencePkg = "sharedlist/internal/infra/persistence"
	blobStatePkg   = "sharedlist/internal/infra/persistence/blobstate"
)

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// importEdges loads every package in the module, tests included, and returns
// "importer: imported" pairs accepted by match.
func importEdges(t *testing.T, match func(importer, imported string) bool) []string {
	t.Helper()
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "sharedlist/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		for imported := range pkg.Imports {
			if match(pkg.PkgPath, imported) {
				seen[pkg.PkgPath+": "+imported] = struct{}{}
			}
		}
	}
	edges := make([]string, 0, len(seen))
	for e := range seen {
		edges = append(edges, e)
	}
	sort.Strings(edges)
	return edges
}

// TestOnlyBlobPackageImportsInfra keeps the infra drivers behind blob.Store.
func TestOnlyBlobPackageImportsInfra(t *testing.T) {
	viols := importEdges(t, func(importer, imported string) bool {
		if underPrefix(importer, blobPkg) || underPrefix(importer, infraBlobPkg) {
			return false
		}
		return underPrefix(imported, infraBlobPkg)
	})
	for _, v := range viols {
		t.Errorf("forbidden import of infra blob package: %s", v)
	}
}

// TestOnlyBlobStateBackendUsesBlobStore keeps the SQL backends and the
// memory store independent of object storage.
func TestOnlyBlobStateBackendUsesBlobStore(t *testing.T) {
	viols := importEdges(t, func(importer, imported string) bool {
		if !underPrefix(importer, persistencePkg) || underPrefix(importer, blobStatePkg) {
			return false
		}
		return underPrefix(imported, blobPkg)
	})
	for _, v := range viols {
		t.Errorf("persistence package outside blobstate imports blob: %s", v)
	}
}
