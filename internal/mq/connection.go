package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Параметры соединения по умолчанию.
const (
	DefaultHeartbeat  = 10 * time.Second
	DefaultMaxBackoff = 30 * time.Second

	initialBackoff = time.Second
)

// DialConfig — параметры соединения слота с брокером.
type DialConfig struct {
	// URL — адрес брокера без параметра queue.
	URL string

	// Name попадает в connection_name (видно в management UI).
	// Обычно это identity слота с суффиксом направления.
	Name string

	Heartbeat  time.Duration
	MaxBackoff time.Duration
}

func (c DialConfig) withDefaults() DialConfig {
	if c.Heartbeat <= 0 {
		c.Heartbeat = DefaultHeartbeat
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	return c
}

// link — живая пара соединение + канал.
type link struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Connection — AMQP-соединение одного слота.
//
// Держит одно соединение и один канал в режиме publisher confirms.
// После разрыва соединение поднимается заново в фоне; каждое успешное
// подключение увеличивает Generation, по которому подписки понимают,
// что их нужно восстановить.
type Connection struct {
	cfg    DialConfig
	logger *slog.Logger

	mu   sync.RWMutex
	cur  *link
	gen  uint64
	done chan struct{}
	once sync.Once
}

// Dial подключается к брокеру. Первое подключение синхронное: ошибка
// означает, что адрес или брокер недоступны.
func Dial(ctx context.Context, cfg DialConfig, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := &Connection{
		cfg:    cfg.withDefaults(),
		logger: logger.With("connection", cfg.Name),
		done:   make(chan struct{}),
	}

	l, err := c.open()
	if err != nil {
		return nil, err
	}
	c.install(l)

	go c.supervise(l)

	return c, nil
}

func (c *Connection) open() (*link, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(c.cfg.Name)

	conn, err := amqp.DialConfig(c.cfg.URL, amqp.Config{
		Heartbeat:  c.cfg.Heartbeat,
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := openChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &link{conn: conn, ch: ch}, nil
}

func openChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Фрейм результата считается отправленным только после ack брокера
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	return ch, nil
}

// install делает l текущим и увеличивает Generation. После Close
// новый link закрывается и не устанавливается.
func (c *Connection) install(l *link) bool {
	c.mu.Lock()
	if c.stopped() {
		c.mu.Unlock()
		l.conn.Close()
		return false
	}
	c.cur = l
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.logger.Info("connected to RabbitMQ", "generation", gen)
	return true
}

// supervise ждёт разрыва соединения или закрытия канала брокером.
//
// Брокер может закрыть только канал (404 на Consume, RESOURCE_LOCKED):
// соединение при этом живо, и канал открывается на нём заново. Если
// соединение тоже потеряно, оно поднимается целиком.
func (c *Connection) supervise(l *link) {
	for {
		connLost := l.conn.NotifyClose(make(chan *amqp.Error, 1))
		chLost := l.ch.NotifyClose(make(chan *amqp.Error, 1))

		var next *link
		ok := true

		select {
		case <-c.done:
			return
		case amqpErr := <-connLost:
			if c.stopped() {
				return
			}
			if amqpErr != nil {
				c.logger.Warn("connection lost", "error", amqpErr)
			}
			next, ok = c.redial()
		case amqpErr := <-chLost:
			if c.stopped() {
				return
			}
			if amqpErr != nil {
				c.logger.Warn("channel closed by broker", "error", amqpErr)
			}
			next, ok = c.reopen(l)
		}

		if !ok {
			return
		}
		l = next
	}
}

// reopen открывает новый канал на живом соединении. Если соединение
// закрыто или канал не открывается, соединение поднимается заново.
func (c *Connection) reopen(l *link) (*link, bool) {
	if !l.conn.IsClosed() {
		ch, err := openChannel(l.conn)
		if err == nil {
			next := &link{conn: l.conn, ch: ch}
			return next, c.install(next)
		}
		c.logger.Warn("reopen channel failed", "error", err)
		l.conn.Close()
	}

	return c.redial()
}

func (c *Connection) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// redial повторяет подключение с растущей задержкой, пока не получится
// или пока соединение не закрыто. Закрытое соединение возвращает ok=false.
func (c *Connection) redial() (*link, bool) {
	delay := initialBackoff

	for {
		c.logger.Info("attempting to reconnect", "delay", delay)

		select {
		case <-c.done:
			return nil, false
		case <-time.After(delay):
		}

		l, err := c.open()
		if err != nil {
			c.logger.Warn("reconnect failed", "error", err)
			delay = nextBackoff(delay, c.cfg.MaxBackoff)
			continue
		}

		return l, c.install(l)
	}
}

// nextBackoff удваивает задержку, не превышая limit.
func nextBackoff(delay, limit time.Duration) time.Duration {
	return min(delay*2, limit)
}

// Generation возвращает номер текущего подключения (1 после Dial).
func (c *Connection) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// WithChannel выполняет fn с текущим каналом.
//
// Во время переподключения возвращает ErrNoChannel: слот прерывает задачу
// и попробует снова после паузы.
func (c *Connection) WithChannel(ctx context.Context, fn func(ch *amqp.Channel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	l := c.cur
	c.mu.RUnlock()

	if l == nil || l.ch.IsClosed() {
		return ErrNoChannel
	}

	return fn(l.ch)
}

// Close закрывает соединение и останавливает переподключение.
// Повторный вызов ничего не делает.
func (c *Connection) Close() error {
	var err error

	c.once.Do(func() {
		close(c.done)

		c.mu.Lock()
		l := c.cur
		c.cur = nil
		c.mu.Unlock()

		if l == nil {
			return
		}
		if !l.ch.IsClosed() {
			if cerr := l.ch.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close channel: %w", cerr))
			}
		}
		if !l.conn.IsClosed() {
			if cerr := l.conn.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close connection: %w", cerr))
			}
		}

		c.logger.Info("connection closed")
	})

	return err
}
