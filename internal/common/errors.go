// Package common — errors.go определяет ошибки, общие для всех модулей бота.
// Обработчики различают их через errors.Is и отвечают пользователю понятным текстом.
// Всё, что не является одной из этих ошибок, считается сбоем хранилища:
// оно пробрасывается вызывающему и никогда не глотается.
package common

import "errors"

// Ошибки поиска и валидации
var (
	// ErrNotFound — запись (награда, участник, заявка) не найдена
	ErrNotFound = errors.New("запись не найдена")
	// ErrInvalidMonth — несуществующий месяц или год
	ErrInvalidMonth = errors.New("некорректный месяц")
	// ErrInvalidAmount — некорректная сумма (отрицательная или дробная там, где нельзя)
	ErrInvalidAmount = errors.New("некорректная сумма")
	// ErrInvalidTier — каталог наград не прошёл проверку
	ErrInvalidTier = errors.New("некорректная награда в каталоге")
)

// Ошибки заявок на выплату
var (
	// ErrOrderNotPending — заявка уже рассмотрена другим оператором
	ErrOrderNotPending = errors.New("заявка уже рассмотрена")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
