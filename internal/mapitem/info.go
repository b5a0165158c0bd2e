package mapitem

import "fmt"

// Info - метаданные карты. Отсутствующие поля равны nil.
type Info struct {
	Version    int
	Author     *string
	MapVersion *string
	Credits    *string
	License    *string
	// Settings - строки серверных настроек; nil, если блока нет.
	Settings []string
}

// DecodeInfo декодирует элемент метаданных карты.
func DecodeInfo(item Item, r *Resolver) (*Info, error) {
	info, err := decodeInfo(item, r)
	return info, wrapItem(KindInfo, item.ID, err)
}

func decodeInfo(item Item, r *Resolver) (*Info, error) {
	words, err := ItemWords(item)
	if err != nil {
		return nil, err
	}
	l, version, err := checkLayout(layoutInfo, words, 0)
	if err != nil {
		return nil, err
	}

	info := &Info{Version: int(version)}
	fields := []struct {
		name string
		dst  **string
	}{
		{"author", &info.Author},
		{"map version", &info.MapVersion},
		{"credits", &info.Credits},
		{"license", &info.License},
	}
	for i, f := range fields {
		text, err := r.OptionalText(words[1+i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = text
	}

	if idx, ok := optionalWord(words, l.extraAt); ok && idx != NoIndex {
		settings, err := r.Strings(idx)
		if err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		info.Settings = settings
	}
	return info, nil
}
