package valuetable

import (
	"bytes"
	"os"

	json "github.com/goccy/go-json"

	"github.com/jpl-au/columndb/internal/kvtypes"
)

// fileHeaderSize is fixed and space-padded, matching the convention
// used across this module (see indextable/header.go, itself grounded
// on folio's header.go).
const fileHeaderSize = 256

type fileHeader struct {
	Tier      int    `json:"tier"`
	ValueSize int    `json:"value_size"` // 0 for the blob tier
	IsBlob    bool   `json:"is_blob"`
	Tail      int64  `json:"tail"`
}

func (h fileHeader) encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	if len(data)+1 > fileHeaderSize {
		return nil, kvtypes.ErrCorruptEntry
	}
	buf := make([]byte, fileHeaderSize)
	copy(buf, data)
	for i := len(data); i < fileHeaderSize-1; i++ {
		buf[i] = ' '
	}
	buf[fileHeaderSize-1] = '\n'
	return buf, nil
}

func readFileHeader(f *os.File) (fileHeader, error) {
	buf := make([]byte, fileHeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return fileHeader{}, err
	}
	var h fileHeader
	if err := json.Unmarshal(bytes.TrimSpace(buf), &h); err != nil {
		return fileHeader{}, kvtypes.ErrCorruptEntry
	}
	return h, nil
}
