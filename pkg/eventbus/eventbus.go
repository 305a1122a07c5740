package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const listenerTimeout = 30 * time.Second

type Event interface {
	Name() string
}

type Listener func(ctx context.Context, event Event) error

// Bus - внутрипроцессная шина. Слушатели выполняются асинхронно, Publish не блокирует мутацию.
type Bus struct {
	listeners map[string][]Listener
	mu        sync.RWMutex
	inflight  sync.WaitGroup
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
}

// Publish запускает всех подписчиков события. Контекст запроса не передаётся:
// слушатель может работать дольше, чем живёт HTTP-запрос.
func (b *Bus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[event.Name()]...)
	b.mu.RUnlock()

	for _, listener := range listeners {
		b.inflight.Add(1)
		go func(l Listener) {
			defer b.inflight.Done()
			ctx, cancel := context.WithTimeout(context.Background(), listenerTimeout)
			defer cancel()

			if err := l(ctx, event); err != nil {
				b.logger.Error("ошибка в обработчике события", zap.String("event", event.Name()), zap.Error(err))
			}
		}(listener)
	}
}

// Wait дожидается завершения уже запущенных обработчиков.
func (b *Bus) Wait() {
	b.inflight.Wait()
}
