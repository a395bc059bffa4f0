// CorTeX Worker — воркер конвертации документов для CorTeX.
//
// Worker:
//   - Запрашивает задачи у диспетчера (ZeroMQ или RabbitMQ)
//   - Конвертирует вход (echo, LaTeXML, Engrafo в docker)
//   - Стримит результат в sink фреймами фиксированного размера
//   - После пустой или неудачной задачи делает паузу
//
// Использование:
//
//	cortex-worker [--config FILE] [--source ADDR] [--sink ADDR] [--pool-size N] <echo|tex-to-html|engrafo>
//
// Слоты пула масштабируются флагом --pool-size.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Pericortex/internal/cli"
	"github.com/shaiso/Pericortex/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := cli.NewRootCmd(version, logger)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("cortex-worker failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}

	logger.Info("cortex-worker stopped")
}
