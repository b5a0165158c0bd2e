package teemap

import "time"

// ImageSummary - краткие сведения об изображении.
type ImageSummary struct {
	Name       string `json:"name"`
	Resolution string `json:"resolution"`
	External   bool   `json:"external"`
}

// Summary - краткое описание загруженной карты для хранения и вывода.
type Summary struct {
	Checksum   uint64         `json:"checksum"`
	LoadID     string         `json:"load_id"`
	Author     string         `json:"author,omitempty"`
	MapVersion string         `json:"map_version,omitempty"`
	Credits    string         `json:"credits,omitempty"`
	License    string         `json:"license,omitempty"`
	Settings   []string       `json:"settings,omitempty"`
	Images     []ImageSummary `json:"images"`
	Groups     int            `json:"groups"`
	Layers     int            `json:"layers"`
	Envelopes  int            `json:"envelopes"`
	Envpoints  int            `json:"envpoints"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	HasTele    bool           `json:"has_tele"`
	HasSpeedup bool           `json:"has_speedup"`
	LoadedAt   time.Time      `json:"loaded_at"`
}

// Summary собирает краткое описание карты.
func (m *Map) Summary() Summary {
	s := Summary{
		Checksum:   m.Checksum,
		LoadID:     m.LoadID,
		Images:     make([]ImageSummary, 0, len(m.Images)),
		Groups:     len(m.Groups),
		Envelopes:  len(m.Envelopes),
		Envpoints:  len(m.Envpoints),
		HasTele:    m.TeleLayer() != nil,
		HasSpeedup: m.SpeedupLayer() != nil,
		LoadedAt:   m.LoadedAt,
	}
	s.Width, s.Height = m.Size()

	for _, layer := range m.Layers {
		if layer != nil {
			s.Layers++
		}
	}
	if info := m.Info; info != nil {
		s.Author = deref(info.Author)
		s.MapVersion = deref(info.MapVersion)
		s.Credits = deref(info.Credits)
		s.License = deref(info.License)
		s.Settings = info.Settings
	}
	for _, img := range m.Images {
		s.Images = append(s.Images, ImageSummary{
			Name:       img.Name,
			Resolution: img.Resolution(),
			External:   img.External,
		})
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
