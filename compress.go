package protect

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Default compression settings.
const (
	defaultCompressionThreshold = 1024 // 1KB
	minCompressionSavings       = 0.10 // 10% minimum savings to use compression

	// maxDecompressedSize is the maximum allowed decompressed size (64MB).
	// This prevents zip-bomb ciphertext from expanding to consume all
	// available memory during decryption.
	maxDecompressedSize = 64 * 1024 * 1024
)

var (
	// zstdEncoder/zstdDecoder are thread-safe and reusable.
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

// initZstd initializes the zstd encoder and decoder once.
func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
		if zstdErr != nil {
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// compressZstd compresses data using zstd.
func compressZstd(data []byte) ([]byte, error) {
	encoder, _, err := initZstd()
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, nil), nil
}

// decompressZstd decompresses zstd-compressed data, rejecting output that
// exceeds maxDecompressedSize.
func decompressZstd(data []byte) ([]byte, error) {
	_, decoder, err := initZstd()
	if err != nil {
		return nil, err
	}
	result, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, ErrDecompressionFailed
	}
	if len(result) > maxDecompressedSize {
		return nil, ErrDecompressionFailed
	}
	return result, nil
}

// maybeCompress compresses data if it exceeds the threshold and compression
// achieves the minimum savings; otherwise it returns data unchanged with
// flagNoCompression.
func maybeCompress(data []byte, threshold int, disabled bool) ([]byte, byte) {
	if disabled || len(data) < threshold {
		return data, flagNoCompression
	}

	compressed, err := compressZstd(data)
	if err != nil {
		return data, flagNoCompression
	}

	originalSize := len(data)
	compressedSize := len(compressed)
	savings := float64(originalSize-compressedSize) / float64(originalSize)
	if savings < minCompressionSavings {
		return data, flagNoCompression
	}

	return compressed, flagZstd
}

// decompress decompresses data based on the flag byte set during seal.
func decompress(data []byte, flag byte) ([]byte, error) {
	switch flag {
	case flagNoCompression:
		return data, nil
	case flagZstd:
		return decompressZstd(data)
	default:
		return nil, ErrInvalidFormat
	}
}
