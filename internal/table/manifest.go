package table

import (
	"os"
	"time"

	"github.com/dekarrin/lrk/internal/lrkerrors"
	"github.com/dekarrin/rezi"
)

// Manifest is lightweight build provenance that the generator's --manifest
// flag writes alongside a table file: enough to let tooling report what a
// table was built from without re-parsing the binary blob itself
// (ReadManifestFile decodes it). Unlike the table file, whose
// layout is fixed by spec §4.4 down to the byte, the manifest's shape is an
// ordinary Go struct, so it is encoded with this module's general-purpose
// binary struct codec, github.com/dekarrin/rezi, the same library the
// teacher repo uses to persist application state.
type Manifest struct {
	GrammarPath     string
	K               int32
	ProductionCount int32
	StateCount      int32
	BuiltAt         int64 // unix seconds
}

// Encode serializes the manifest with rezi.
func (m Manifest) Encode() []byte {
	return rezi.EncBinary(m)
}

// WriteManifestFile builds a manifest describing this build and writes it
// to path.
func WriteManifestFile(path string, grammarPath string, k int, prodCount, stateCount int, builtAt time.Time) error {
	m := Manifest{
		GrammarPath:     grammarPath,
		K:               int32(k),
		ProductionCount: int32(prodCount),
		StateCount:      int32(stateCount),
		BuiltAt:         builtAt.Unix(),
	}
	if err := os.WriteFile(path, m.Encode(), 0o644); err != nil {
		return lrkerrors.Wrap(lrkerrors.IOError, err, "write manifest %q", path)
	}
	return nil
}

// ReadManifestFile decodes a manifest previously written by
// WriteManifestFile.
func ReadManifestFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, lrkerrors.Wrap(lrkerrors.IOError, err, "read manifest %q", path)
	}
	var m Manifest
	if _, err := rezi.DecBinary(data, &m); err != nil {
		return Manifest{}, lrkerrors.Wrap(lrkerrors.IOError, err, "decode manifest %q", path)
	}
	return m, nil
}
