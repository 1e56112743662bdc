package mutations

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// codec compresses queued request bodies. Photos travel base64-encoded in
// the body, so they shrink well.
type codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var loadCodec = sync.OnceValues(func() (*codec, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &codec{encoder: encoder, decoder: decoder}, nil
})

func compress(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	c, err := loadCodec()
	if err != nil {
		return nil, err
	}
	return c.encoder.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

func decompress(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	c, err := loadCodec()
	if err != nil {
		return nil, err
	}
	out, err := c.decoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress mutation body: %w", err)
	}
	return out, nil
}
