package wal

import (
	"encoding/base64"

	json "github.com/goccy/go-json"

	"github.com/jpl-au/columndb/internal/kvtypes"
)

// wireAction is the newline-delimited JSON encoding of one LogAction,
// one per line, in the style of folio's append-only record format
// (write.go/read.go): marshal, append a newline, move on. Binary
// fields (Key, Payload) are base64 inline rather than raw bytes so the
// log stays line-oriented and `tail -f`-able.
type wireAction struct {
	Kind       kvtypes.LogActionKind `json:"kind"`
	Table      kvtypes.TableID       `json:"table"`
	Tier       kvtypes.ValueTier     `json:"tier"`
	Key        string                `json:"key,omitempty"`
	SubIndex   *uint32               `json:"sub_index,omitempty"`
	Address    kvtypes.Address       `json:"address,omitempty"`
	Offset     uint64                `json:"offset,omitempty"`
	Payload    string                `json:"payload,omitempty"`
	Compressed bool                  `json:"compressed,omitempty"`
}

func encodeAction(a kvtypes.LogAction) ([]byte, error) {
	w := wireAction{
		Kind: a.Kind, Table: a.Table, Tier: a.Tier,
		SubIndex: a.SubIndex, Address: a.Address, Offset: a.Offset,
		Compressed: a.Compressed,
	}
	if a.Key != (kvtypes.Key{}) {
		w.Key = base64.StdEncoding.EncodeToString(a.Key[:])
	}
	if len(a.Payload) > 0 {
		w.Payload = base64.StdEncoding.EncodeToString(a.Payload)
	}
	return json.Marshal(w)
}

func decodeAction(line []byte) (kvtypes.LogAction, error) {
	var w wireAction
	if err := json.Unmarshal(line, &w); err != nil {
		return kvtypes.LogAction{}, err
	}
	a := kvtypes.LogAction{
		Kind: w.Kind, Table: w.Table, Tier: w.Tier,
		SubIndex: w.SubIndex, Address: w.Address, Offset: w.Offset,
		Compressed: w.Compressed,
	}
	if w.Key != "" {
		raw, err := base64.StdEncoding.DecodeString(w.Key)
		if err != nil {
			return kvtypes.LogAction{}, err
		}
		copy(a.Key[:], raw)
	}
	if w.Payload != "" {
		raw, err := base64.StdEncoding.DecodeString(w.Payload)
		if err != nil {
			return kvtypes.LogAction{}, err
		}
		a.Payload = raw
	}
	return a, nil
}
