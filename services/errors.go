package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Валидация
	ErrValidationFailed = errors.New("validation failed")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrInvalidScore     = errors.New("scores must be zero or greater")

	// Аутентификация и доступ
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Сущности
	ErrUserNotFound         = errors.New("user not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	// Конфликты
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrRegistrationConflict = errors.New("user is already registered for this event")

	// Регистрация на событие
	ErrUserNotApproved    = errors.New("user account is not approved yet")
	ErrRegistrationClosed = errors.New("registration for this event is closed")

	// Генерация команд и сетки
	ErrInsufficientPlayers      = errors.New("not enough registered players")
	ErrAlreadyGenerated         = errors.New("teams and bracket have already been generated for this event")
	ErrManualGenerationDisabled = errors.New("manual team generation is disabled")

	// Результаты матчей и статусы
	ErrNotParticipant           = errors.New("user is not a participant of this match")
	ErrMatchStatusNotSettable   = errors.New("match status can only be switched between pending and ongoing")
	ErrEventInvalidStatus       = errors.New("invalid event status")
	ErrEventInvalidStatusChange = errors.New("invalid event status transition")

	// Загрузка файлов
	ErrUploadUnavailable = errors.New("file uploads are not configured")
	ErrInvalidFileType   = errors.New("unsupported file type")
	ErrFileTooLarge      = errors.New("file is too large")
)
