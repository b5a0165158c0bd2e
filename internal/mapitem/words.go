package mapitem

import (
	"encoding/binary"
	"fmt"
)

// Words превращает запись элемента в последовательность int32 (little-endian).
// Размер должен быть положительным и кратным 4.
func Words(size int, data []byte) ([]int32, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("%w: item size %d is not a positive multiple of 4", ErrMalformedRecord, size)
	}
	if len(data) < size {
		return nil, fmt.Errorf("%w: item size %d exceeds %d available bytes", ErrMalformedRecord, size, len(data))
	}

	words := make([]int32, size/4)
	for i := range words {
		words[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return words, nil
}

// ItemWords - то же, что Words, для готовой записи Item.
func ItemWords(item Item) ([]int32, error) {
	return Words(item.Size, item.Data)
}
