// Compression codecs for stored payloads.
//
// The write planner (§4.4 compress_internal) compresses a payload
// before choosing its tier. Two codecs are offered via
// CompressionKind; which one a column uses is fixed at Open by
// Options.Compression.Kind.
package column

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Shared encoder/decoder, safe for concurrent use. Allocated once:
// zstd encoder/decoder construction is expensive (internal state
// tables) and would dominate the cost of compressing small payloads if
// done per call.
//
// SpeedFastest is deliberate: compression runs on every insert/update
// (hot path) while decompression runs only on Get of a compressed slot.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func compressBytes(kind CompressionKind, data []byte) []byte {
	switch kind {
	case CompressionSnappy:
		return snappy.Encode(nil, data)
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, nil)
	default:
		return nil
	}
}

func decompressBytes(kind CompressionKind, data []byte) ([]byte, error) {
	switch kind {
	case CompressionSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("column: snappy decompress: %w", err)
		}
		return out, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("column: zstd decompress: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}
