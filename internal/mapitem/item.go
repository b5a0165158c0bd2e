package mapitem

import "fmt"

// Kind определяет тип элемента в таблице элементов карты.
type Kind int

const (
	KindVersion Kind = iota
	KindInfo
	KindImage
	KindEnvelope
	KindGroup
	KindLayer
	KindEnvpoints
)

// String возвращает строковое представление типа элемента
func (k Kind) String() string {
	switch k {
	case KindVersion:
		return "version"
	case KindInfo:
		return "info"
	case KindImage:
		return "image"
	case KindEnvelope:
		return "envelope"
	case KindGroup:
		return "group"
	case KindLayer:
		return "layer"
	case KindEnvpoints:
		return "envpoints"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Item - сырая запись элемента в том виде, в каком её отдаёт контейнер.
type Item struct {
	ID   int    // порядковый номер среди элементов своего типа
	Size int    // размер записи в байтах
	Data []byte // тело записи, не меньше Size байт
}

// NoIndex означает отсутствие ссылки на блок, изображение или огибающую.
const NoIndex = -1
