// Package converter содержит подключаемые способности конвертации.
//
// Протокольный движок (пакет worker) знает только интерфейс Converter:
//
//	type Converter interface {
//	    Convert(ctx context.Context, inputPath string) (io.ReadCloser, error)
//	}
//
// Реализации:
//   - Echo — возвращает вход как есть (echo_service)
//   - TexToHTML — latexmlc, zip → zip (tex_to_html)
//   - Engrafo — docker-образ Engrafo, zip → каталог → zip (engrafo)
//
// Registry сопоставляет имя сервиса и фабрику конвертера. Внешние
// процессы запускаются через Runner, чтобы их можно было подменить в тестах.
package converter
