package indextable

import (
	"bytes"
	"os"

	json "github.com/goccy/go-json"

	"github.com/jpl-au/columndb/internal/kvtypes"
)

// headerSize is fixed and padded with spaces, matching the teacher's
// header encoding convention (see folio's header.go) so tooling can
// hexdump a table file and read the header without decoding chunks.
const headerSize = 256

type header struct {
	Bits  uint8              `json:"bits"`
	ID    uint8              `json:"id"`
	Stats kvtypes.ColumnStats `json:"stats"`
}

func (h header) encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	if len(data)+1 > headerSize {
		return nil, kvtypes.ErrCorruptEntry
	}
	buf := make([]byte, headerSize)
	copy(buf, data)
	for i := len(data); i < headerSize-1; i++ {
		buf[i] = ' '
	}
	buf[headerSize-1] = '\n'
	return buf, nil
}

func readHeader(f *os.File) (header, error) {
	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return header{}, err
	}
	var h header
	if err := json.Unmarshal(bytes.TrimSpace(buf), &h); err != nil {
		return header{}, kvtypes.ErrCorruptEntry
	}
	return h, nil
}
