package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := map[string]FileKind{
		"/data/PriceFull7290027600007-001-012.xml":    KindCatalog,
		"/data/PriceFull7290027600007-001-012.XML":    KindCatalog,
		"/data/PriceFull7290027600007-001-012.xml.gz": KindCatalogGzip,
		"/data/stores.csv":                            KindLocations,
		"/data/.PriceFull.xml":                        KindUnsupported,
		"/data/PriceFull.xml.tmp":                     KindUnsupported,
		"/data/readme.txt":                            KindUnsupported,
		"/data/archive.gz":                            KindUnsupported,
	}
	for path, want := range cases {
		assert.Equal(t, want, KindOf(path), path)
	}
	assert.True(t, Supported("a.xml"))
	assert.False(t, Supported("a.json"))
}
