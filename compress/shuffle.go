package compress

import (
	"fmt"

	"github.com/arloliu/fitstile/errs"
)

// Shuffle regroups the bytes of fixed-size elements so that all first bytes
// come first, then all second bytes and so on. Slowly varying pixel data
// compresses better this way; it is the GZIP_2 preprocessing step.
func Shuffle(dst, src []byte, elemSize int) error {
	n, err := shuffleCount(dst, src, elemSize)
	if err != nil {
		return err
	}

	for i := range n {
		for b := range elemSize {
			dst[b*n+i] = src[i*elemSize+b]
		}
	}

	return nil
}

// Unshuffle reverses Shuffle.
func Unshuffle(dst, src []byte, elemSize int) error {
	n, err := shuffleCount(dst, src, elemSize)
	if err != nil {
		return err
	}

	for i := range n {
		for b := range elemSize {
			dst[i*elemSize+b] = src[b*n+i]
		}
	}

	return nil
}

func shuffleCount(dst, src []byte, elemSize int) (int, error) {
	if elemSize <= 0 || len(src)%elemSize != 0 || len(dst) != len(src) {
		return 0, fmt.Errorf("shuffle %d bytes of %d-byte elements into %d: %w",
			len(src), elemSize, len(dst), errs.ErrBufferSizeMismatch)
	}

	return len(src) / elemSize, nil
}
