package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/shaiso/Pericortex/internal/domain"
)

// RequestChannel — асимметричный канал запрос/ответ к диспетчеру,
// помеченный identity слота.
type RequestChannel interface {
	// Send отправляет фрейм. more=true — за ним последуют ещё части.
	Send(ctx context.Context, frame []byte, more bool) error

	// Recv ждёт следующий фрейм. more=true — у сообщения есть ещё части.
	// Таймаута нет: вызов блокируется, пока диспетчер не ответит.
	Recv(ctx context.Context) (frame []byte, more bool, err error)

	Close() error
}

// DeliveryChannel — односторонний push-канал в sink.
type DeliveryChannel interface {
	// Send отправляет фрейм. more=true — за ним последуют ещё части.
	Send(ctx context.Context, frame []byte, more bool) error

	Close() error
}

// Session — пара каналов одного слота. Открывается один раз перед
// циклом задач и закрывается при выходе слота.
type Session struct {
	Request  RequestChannel
	Delivery DeliveryChannel
}

// Close закрывает оба канала.
func (s *Session) Close() error {
	var errs []error
	if s.Request != nil {
		if err := s.Request.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close request channel: %w", err))
		}
	}
	if s.Delivery != nil {
		if err := s.Delivery.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close delivery channel: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Dialer открывает сессии слотов.
type Dialer interface {
	Open(ctx context.Context, source, sink string, identity domain.WorkerIdentity) (*Session, error)
}

// Схемы адресов.
const (
	SchemeTCP    = "tcp"
	SchemeIPC    = "ipc"
	SchemeInproc = "inproc"
	SchemeAMQP   = "amqp"
	SchemeAMQPS  = "amqps"
)

// Binding — семейство транспорта, выбранное по схеме адреса.
type Binding int

const (
	BindingZMQ Binding = iota + 1
	BindingAMQP
)

// ParseAddress разбирает адрес и определяет привязку транспорта.
func ParseAddress(addr string) (*url.URL, Binding, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, addr, err)
	}

	switch u.Scheme {
	case SchemeTCP, SchemeIPC, SchemeInproc:
		return u, BindingZMQ, nil
	case SchemeAMQP, SchemeAMQPS:
		return u, BindingAMQP, nil
	case "":
		return nil, 0, fmt.Errorf("%w: %s: missing scheme", ErrInvalidAddress, addr)
	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

// SchemeDialer выбирает привязку транспорта по схеме каждого адреса.
//
// Request и delivery каналы открываются независимо, поэтому источник
// и sink могут жить на разных транспортах.
type SchemeDialer struct {
	// Linger — сколько ZeroMQ ждёт отправки фреймов при закрытии.
	Linger LingerConfig

	// Logger — логгер (для AMQP-соединений).
	Logger *slog.Logger
}

// LingerConfig — время досылки неотправленных фреймов при закрытии.
type LingerConfig struct {
	Request  time.Duration
	Delivery time.Duration
}

// NewDialer создаёт SchemeDialer с настройками по умолчанию.
func NewDialer(logger *slog.Logger) *SchemeDialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemeDialer{
		Linger: LingerConfig{
			Request:  0,
			Delivery: defaultDeliveryLinger,
		},
		Logger: logger,
	}
}

// Open открывает request и delivery каналы слота.
func (d *SchemeDialer) Open(ctx context.Context, source, sink string, identity domain.WorkerIdentity) (*Session, error) {
	request, err := d.OpenRequest(ctx, source, identity)
	if err != nil {
		return nil, err
	}

	delivery, err := d.OpenDelivery(ctx, sink, identity)
	if err != nil {
		request.Close()
		return nil, err
	}

	return &Session{Request: request, Delivery: delivery}, nil
}

// OpenRequest открывает request channel к диспетчеру.
func (d *SchemeDialer) OpenRequest(ctx context.Context, addr string, identity domain.WorkerIdentity) (RequestChannel, error) {
	u, binding, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}

	switch binding {
	case BindingAMQP:
		return openAMQPRequest(ctx, u, identity, d.Logger)
	default:
		return openZMQRequest(ctx, addr, identity, d.Linger.Request)
	}
}

// OpenDelivery открывает delivery channel к sink.
func (d *SchemeDialer) OpenDelivery(ctx context.Context, addr string, identity domain.WorkerIdentity) (DeliveryChannel, error) {
	u, binding, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}

	switch binding {
	case BindingAMQP:
		return openAMQPDelivery(ctx, u, identity, d.Logger)
	default:
		return openZMQDelivery(ctx, addr, d.Linger.Delivery)
	}
}
