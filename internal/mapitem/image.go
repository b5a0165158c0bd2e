package mapitem

import "fmt"

// Форматы встроенных изображений (версия элемента 2 и выше).
const (
	ImageFormatUnknown = -1
	ImageFormatRGB     = 0
	ImageFormatRGBA    = 1
)

// Image - изображение карты: внешнее (только имя) или встроенное.
type Image struct {
	Version  int
	Width    int
	Height   int
	External bool
	Name     string
	Format   int
	// Data - распакованные пиксели встроенного изображения, nil для внешнего.
	Data []byte
}

// Resolution возвращает размер изображения в виде "WxH".
func (img *Image) Resolution() string {
	return fmt.Sprintf("%dx%d", img.Width, img.Height)
}

// DecodeImage декодирует элемент изображения. Пиксели встроенного
// изображения распаковываются только для не внешних изображений.
func DecodeImage(item Item, r *Resolver) (*Image, error) {
	img, err := decodeImage(item, r)
	return img, wrapItem(KindImage, item.ID, err)
}

func decodeImage(item Item, r *Resolver) (*Image, error) {
	words, err := ItemWords(item)
	if err != nil {
		return nil, err
	}
	l, version, err := checkLayout(layoutImage, words, 0)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Version:  int(version),
		Width:    int(words[1]),
		Height:   int(words[2]),
		External: words[3] != 0,
		Format:   ImageFormatUnknown,
	}

	img.Name, err = r.Text(words[4])
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}

	if format, ok := optionalWord(words, l.extraAt); ok {
		img.Format = int(format)
	}

	if dataIdx := words[5]; !img.External && dataIdx >= 0 {
		img.Data, err = r.Data(dataIdx)
		if err != nil {
			return nil, fmt.Errorf("pixels: %w", err)
		}
	}
	return img, nil
}
