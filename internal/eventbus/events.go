package eventbus

import (
	"encoding/json"
	"time"

	"github.com/annel0/teemap/internal/teemap"
	"github.com/google/uuid"
)

// Типы событий загрузки карт.
const (
	EventMapLoaded   = "MapLoaded"
	EventMapRejected = "MapRejected"
)

// MapRejected - полезная нагрузка события об отклонённой карте.
type MapRejected struct {
	Origin string `json:"origin"` // путь к файлу или "upload"
	Bytes  int    `json:"bytes,omitempty"`
	Error  string `json:"error"`
}

// NewMapLoaded создаёт событие об успешно декодированной карте.
func NewMapLoaded(source string, s teemap.Summary) (*Envelope, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        source,
		EventType:     EventMapLoaded,
		Version:       1,
		CorrelationID: s.LoadID,
		Priority:      3,
		Payload:       payload,
	}, nil
}

// NewMapRejected создаёт событие о карте, которую не удалось декодировать.
func NewMapRejected(source string, r MapRejected) (*Envelope, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: EventMapRejected,
		Version:   1,
		Priority:  5,
		Payload:   payload,
		Metadata:  map[string]string{"origin": r.Origin},
	}, nil
}
