package domain

import (
	"fmt"
	"strings"
)

// UnknownHost подставляется, когда имя хоста определить не удалось.
const UnknownHost = "unknown"

// WorkerIdentity — строка, однозначно идентифицирующая слот воркера
// перед диспетчером и sink. Формат: {host}:{service}:{ordinal}.
//
// Создаётся один раз при запуске слота и больше не меняется.
type WorkerIdentity string

// NewWorkerIdentity собирает identity слота.
//
// Ordinal дополняется нулём до двух знаков (01…09, 10…), чтобы
// identities одного пула сортировались лексикографически.
func NewWorkerIdentity(host, service string, ordinal int) WorkerIdentity {
	host = strings.TrimSpace(host)
	if host == "" {
		host = UnknownHost
	}
	return WorkerIdentity(fmt.Sprintf("%s:%s:%02d", host, service, ordinal))
}

// String реализует fmt.Stringer.
func (id WorkerIdentity) String() string {
	return string(id)
}

// Bytes возвращает identity в виде фрейма.
func (id WorkerIdentity) Bytes() []byte {
	return []byte(id)
}
