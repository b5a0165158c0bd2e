package mapitem

import (
	"errors"
	"fmt"
)

// Категории ошибок декодирования. Конкретные ошибки оборачивают их через %w,
// поэтому вызывающий код проверяет категорию через errors.Is.
var (
	ErrMalformedRecord       = errors.New("malformed record")
	ErrDecompression         = errors.New("decompression failed")
	ErrInvalidBlockIndex     = errors.New("invalid block index")
	ErrVersionLayoutMismatch = errors.New("item shorter than its version layout")
	ErrUnresolvedReference   = errors.New("unresolved reference")
)

// DecodeError сообщает, какой элемент не удалось декодировать.
type DecodeError struct {
	Kind Kind
	ID   int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s #%d: %v", e.Kind, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func wrapItem(kind Kind, id int, err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Kind: kind, ID: id, Err: err}
}
