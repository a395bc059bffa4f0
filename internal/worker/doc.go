// Package worker реализует цикл задач одного слота воркера CorTeX.
//
// # Обзор
//
// Worker — движок протокола на стороне воркера. Один Worker работает в
// одной горутине пула и владеет парой каналов слота (transport.Session):
//
//   - request channel — запрос задачи у диспетчера, приём task id и входа
//   - delivery channel — отчёт в sink по каждой принятой задаче
//
//	w, err := worker.New(worker.Config{
//	    Worker:    cfg,
//	    Identity:  identity,
//	    Session:   session,
//	    Converter: conv,
//	    Logger:    logger,
//	    Metrics:   metrics,
//	})
//	if err != nil {
//	    return err
//	}
//	err = w.Run(ctx)
//
// # Цикл задачи
//
//  1. Отправка имени сервиса в request channel
//  2. Приём task id (ожидание без таймаута)
//  3. Приём фреймов входа во временный файл до признака "больше нет"
//  4. Пустой вход — отчёт "пусто", конвертер не вызывается
//  5. Иначе — один вызов Converter.Convert с путём к файлу
//  6. Успех — [identity, service, task id, чанк...] в delivery channel,
//     чанки ровно по MessageSize байт, последний — остаток
//  7. Пусто или ошибка — [identity, service, task id, ""] и cooldown
//  8. Временный файл удаляется
//
// # Ошибки
//
// Ошибки задачи не выходят из цикла:
//   - пустой вход и ошибка конвертера — отчёт в sink и cooldown
//   - сбой транспорта посреди задачи — задача отбрасывается без отчёта,
//     cooldown, слот снова ждёт задачу (ErrTaskAborted)
//
// Run возвращает ошибку только при отмене ctx.
//
// # Лимит
//
// Если Limit > 0, слот завершается после Limit задач с отчётом в sink
// (любой исход), выдержав GracePeriod, чтобы последняя доставка ушла.
package worker
