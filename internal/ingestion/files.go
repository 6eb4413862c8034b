package ingestion

import (
	"path/filepath"
	"strings"
)

type FileKind int

const (
	KindUnsupported FileKind = iota
	KindCatalog
	KindCatalogGzip
	KindLocations
)

// KindOf classifies a path by its extension. Hidden and temporary files are ignored.
func KindOf(path string) FileKind {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
		return KindUnsupported
	}
	switch {
	case strings.HasSuffix(name, ".xml.gz"):
		return KindCatalogGzip
	case strings.HasSuffix(name, ".xml"):
		return KindCatalog
	case strings.HasSuffix(name, ".csv"):
		return KindLocations
	default:
		return KindUnsupported
	}
}

func Supported(path string) bool {
	return KindOf(path) != KindUnsupported
}
