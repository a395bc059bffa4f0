package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/shaiso/Pericortex/internal/domain"
)

// defaultDeliveryLinger — сколько ждать досылки результатов в sink при закрытии.
const defaultDeliveryLinger = 10 * time.Second

// zmqSocket — сокет ZeroMQ со своим контекстом.
//
// Блокирующие вызовы ZeroMQ не принимают context.Context. Чтобы прервать
// ожидание при отмене, контекст ZeroMQ терминируется из горутины-наблюдателя:
// заблокированный Recv/Send возвращает ETERM.
type zmqSocket struct {
	zctx *zmq.Context
	sock *zmq.Socket

	stop      chan struct{}
	stopOnce  sync.Once
	termOnce  sync.Once
	closeOnce sync.Once
	closeErr  error
}

func newZMQSocket(ctx context.Context, addr string, kind zmq.Type, linger time.Duration, identity string) (*zmqSocket, error) {
	zctx, err := zmq.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create zmq context: %w", err)
	}

	sock, err := zctx.NewSocket(kind)
	if err != nil {
		zctx.Term()
		return nil, fmt.Errorf("create zmq socket: %w", err)
	}

	s := &zmqSocket{zctx: zctx, sock: sock, stop: make(chan struct{})}

	if identity != "" {
		if err := sock.SetIdentity(identity); err != nil {
			s.Close()
			return nil, fmt.Errorf("set identity %q: %w", identity, err)
		}
	}
	if err := sock.SetLinger(linger); err != nil {
		s.Close()
		return nil, fmt.Errorf("set linger: %w", err)
	}
	if err := sock.Connect(addr); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: connect %s: %v", ErrInvalidAddress, addr, err)
	}

	go s.watch(ctx)

	return s, nil
}

// watch терминирует контекст ZeroMQ при отмене ctx.
func (s *zmqSocket) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.terminate()
	case <-s.stop:
	}
}

// terminate вызывается не более одного раза. Term блокируется, пока
// владелец сокета не закроет его в Close.
func (s *zmqSocket) terminate() {
	s.termOnce.Do(func() {
		s.zctx.Term()
	})
}

func (s *zmqSocket) send(frame []byte, more bool) error {
	var flags zmq.Flag
	if more {
		flags = zmq.SNDMORE
	}
	if _, err := s.sock.SendBytes(frame, flags); err != nil {
		return mapZMQError("send", err)
	}
	return nil
}

func (s *zmqSocket) recv() ([]byte, bool, error) {
	frame, err := s.sock.RecvBytes(0)
	if err != nil {
		return nil, false, mapZMQError("recv", err)
	}
	more, err := s.sock.GetRcvmore()
	if err != nil {
		return nil, false, mapZMQError("recv", err)
	}
	return frame, more, nil
}

// Close закрывает сокет и контекст. Повторный вызов безопасен.
func (s *zmqSocket) Close() error {
	s.closeOnce.Do(func() {
		s.stopOnce.Do(func() { close(s.stop) })
		s.closeErr = s.sock.Close()
		s.terminate()
	})
	return s.closeErr
}

// mapZMQError отделяет остановку (ETERM) от сбоев ввода-вывода.
func mapZMQError(op string, err error) error {
	if zmq.AsErrno(err) == zmq.ETERM {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	return fmt.Errorf("%w: %s: %v", ErrIO, op, err)
}

// zmqRequest — request channel поверх DEALER-сокета с identity слота.
type zmqRequest struct {
	*zmqSocket
}

func openZMQRequest(ctx context.Context, addr string, identity domain.WorkerIdentity, linger time.Duration) (*zmqRequest, error) {
	s, err := newZMQSocket(ctx, addr, zmq.DEALER, linger, identity.String())
	if err != nil {
		return nil, fmt.Errorf("open request channel: %w", err)
	}
	return &zmqRequest{zmqSocket: s}, nil
}

func (r *zmqRequest) Send(ctx context.Context, frame []byte, more bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.send(frame, more)
}

func (r *zmqRequest) Recv(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	frame, more, err := r.recv()
	if err != nil && errors.Is(err, ErrClosed) && ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	return frame, more, err
}

// zmqDelivery — delivery channel поверх PUSH-сокета.
type zmqDelivery struct {
	*zmqSocket
}

func openZMQDelivery(ctx context.Context, addr string, linger time.Duration) (*zmqDelivery, error) {
	s, err := newZMQSocket(ctx, addr, zmq.PUSH, linger, "")
	if err != nil {
		return nil, fmt.Errorf("open delivery channel: %w", err)
	}
	return &zmqDelivery{zmqSocket: s}, nil
}

func (d *zmqDelivery) Send(ctx context.Context, frame []byte, more bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.send(frame, more)
	if err != nil && errors.Is(err, ErrClosed) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
