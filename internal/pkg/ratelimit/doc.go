// Package ratelimit решает, можно ли отправить алерт для пары (код ошибки, severity)
// прямо сейчас, или его нужно подавить, чтобы не заспамить канал доставки во время
// инцидента.
//
// Все алгоритмы реализуют один контракт Strategy:
//
//	strategy, _ := ratelimit.NewFixedWindow(policy)
//	if strategy.Allow(ctx, ratelimit.Key{Code: "DB_CONN_FAIL", Severity: ratelimit.SeverityHigh}) {
//	    // можно отправлять
//	}
//
// Реализации:
//   - FixedWindow — счётчик в выровненных окнах длины W. Допускает всплеск до 2×quota
//     на границе окон (известный компромисс фиксированного окна).
//   - SlidingWindowLog — журнал меток времени, точное скользящее окно.
//   - SlidingWindowCounter — кольцо из N корзин, приближение скользящего окна с O(N) памятью.
//   - TokenBucket — ведро ёмкостью quota, пополняется на quota токенов за W.
//   - CacheWithTTL — счётчик в TTL-кэше, запись истекает через W после создания.
//   - Distributed — общий счётчик во внешнем хранилище (Redis, MSSQL) с прозрачным
//     fail-open переходом на локальную стратегию при недоступности хранилища.
//
// Состояние по ключу создаётся лениво и защищается собственным mutex, поэтому
// разные ключи не конкурируют за одну блокировку. Sweeper периодически удаляет
// состояние неактивных ключей.
package ratelimit
