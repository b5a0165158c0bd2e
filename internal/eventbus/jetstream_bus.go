package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

const (
	// DefaultStream - имя стрима событий загрузки карт.
	DefaultStream = "TEEMAP_EVENTS"
	subjectPrefix = "teemap.events."
	ackWait       = 30 * time.Second
)

// JetStreamBus хранит события карт в стриме JetStream, subject teemap.events.<тип>.
type JetStreamBus struct {
	conn      *nats.Conn
	js        nats.JetStreamContext
	stream    string
	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// NewJetStreamBus подключается к NATS и создаёт стрим, если его ещё нет.
// Нулевой retention хранит события без ограничения по времени.
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = DefaultStream
	}

	conn, err := nats.Connect(url, nats.Name("teemap"))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	js, err := conn.JetStream()
	if err == nil {
		err = ensureStream(js, stream, retention)
	}
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &JetStreamBus{conn: conn, js: js, stream: stream}, nil
}

func ensureStream(js nats.JetStreamContext, name string, retention time.Duration) error {
	_, err := js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream %s: %w", name, err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{subjectPrefix + "*"},
		MaxAge:   retention,
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	return nil
}

// subjectFor возвращает subject для типа события.
func subjectFor(eventType string) string {
	return subjectPrefix + eventType
}

// filterSubject сужает подписку на стороне сервера, когда запрошен ровно один тип.
// Остальные условия фильтра проверяются на клиенте.
func filterSubject(f Filter) string {
	if len(f.Types) == 1 {
		return subjectFor(f.Types[0])
	}
	return subjectPrefix + "*"
}

// deliverFrom выбирает начальную позицию чтения стрима.
func deliverFrom(f Filter) nats.SubOpt {
	if f.Since.IsZero() {
		return nats.DeliverNew()
	}
	return nats.StartTime(f.Since)
}

func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.EventType, err)
	}
	if _, err := jb.js.Publish(subjectFor(ev.EventType), data, nats.Context(ctx)); err != nil {
		jb.dropped.Add(1)
		return fmt.Errorf("publish %s: %w", ev.EventType, err)
	}
	jb.published.Add(1)
	return nil
}

// Subscribe создаёт эфемерного потребителя; он удаляется при Unsubscribe.
// Сообщения с неразборчивым телом подтверждаются и учитываются как потерянные.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	sub, err := jb.js.Subscribe(filterSubject(f), func(msg *nats.Msg) {
		defer msg.Ack()

		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			jb.dropped.Add(1)
			return
		}
		if !matchFilter(&ev, f) {
			return
		}
		h(ctx, &ev)
		jb.consumed.Add(1)
	}, nats.BindStream(jb.stream), nats.ManualAck(), deliverFrom(f), nats.AckWait(ackWait))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", jb.stream, err)
	}
	return natsSub{sub}, nil
}

type natsSub struct {
	sub *nats.Subscription
}

func (s natsSub) Unsubscribe() {
	_ = s.sub.Unsubscribe()
}

// Metrics возвращает счётчики этого процесса. Очередь держит сервер, поэтому InFlight всегда 0.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: jb.published.Load(),
		Consumed:  jb.consumed.Load(),
		Dropped:   jb.dropped.Load(),
	}
}

// Close отправляет буферизованные сообщения и закрывает соединение.
func (jb *JetStreamBus) Close() error {
	return jb.conn.Drain()
}
