// Package cli реализует командную строку cortex-worker.
//
// # Команды
//
//	cortex-worker [flags] echo
//	cortex-worker [flags] tex-to-html
//	cortex-worker [flags] engrafo [host [source-port [sink-port [pool-size]]]]
//	cortex-worker [flags] config SERVICE [-o file]
//
// Глобальные флаги (--source, --sink, --pool-size, --message-size, --limit,
// --cooldown, --work-dir) переопределяют YAML (--config) и переменные
// окружения CORTEX_*; см. Options.Resolve.
//
// # Serve
//
// Serve собирает конвертер по имени сервиса, пул слотов и HTTP-сервер
// /metrics + /healthz (--metrics-addr, по умолчанию :8082), затем
// блокируется до завершения пула.
//
// # Output
//
// Итог по слотам выводится таблицей (text/tabwriter) или JSON (--json).
// Данные идут в stdout, сообщения — в stderr.
package cli
