package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// maxSnippet - сколько байт ответа сервера сохраняется в ошибке
const maxSnippet = 512

func snippet(payload []byte) string {
	if len(payload) > maxSnippet {
		return string(payload[:maxSnippet]) + "..."
	}
	return string(payload)
}

// ProtocolError - вместо XML/JSON пришла HTML-страница или нечитаемый ответ
type ProtocolError struct {
	URI     string
	Reason  string
	Payload string
}

func NewProtocolError(uri, reason string, payload []byte) *ProtocolError {
	return &ProtocolError{URI: uri, Reason: reason, Payload: snippet(payload)}
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s (uri %s)", e.Reason, e.URI)
}

// InvalidDataError - значение поля нарушает жесткий инвариант
type InvalidDataError struct {
	Field string
	Value string
	URI   string
}

func NewInvalidDataError(field, value string) *InvalidDataError {
	return &InvalidDataError{Field: field, Value: value}
}

func (e *InvalidDataError) Error() string {
	msg := fmt.Sprintf("invalid data: %s=%q", e.Field, e.Value)
	if e.URI != "" {
		msg += " (uri " + e.URI + ")"
	}
	return msg
}

// SessionExpiredError - сервер отклонил токен продолжения
type SessionExpiredError struct {
	URI string
}

func (e *SessionExpiredError) Error() string {
	if e.URI == "" {
		return "session expired"
	}
	return "session expired (uri " + e.URI + ")"
}

// IllegalArgumentError - недостаточно данных в запросе
type IllegalArgumentError struct {
	Message string
}

func NewIllegalArgument(format string, args ...interface{}) *IllegalArgumentError {
	return &IllegalArgumentError{Message: fmt.Sprintf(format, args...)}
}

func (e *IllegalArgumentError) Error() string {
	return "illegal argument: " + e.Message
}

// IOError - сетевая ошибка; вызывающий может повторить запрос
type IOError struct {
	URI        string
	StatusCode int
	Err        error
}

func (e *IOError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("io error: status %d (uri %s)", e.StatusCode, e.URI)
	}
	return fmt.Sprintf("io error: %v (uri %s)", e.Err, e.URI)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParserError - структура ответа не совпала с ожидаемой
type ParserError struct {
	URI     string
	Tag     string
	Message string
	Payload string
}

func (e *ParserError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Tag != "" {
		b.WriteString(" at <" + e.Tag + ">")
	}
	b.WriteString(": " + e.Message)
	if e.URI != "" {
		b.WriteString(" (uri " + e.URI + ")")
	}
	return b.String()
}

// WithPayload дополняет ошибку фрагментом ответа сервера
func (e *ParserError) WithPayload(payload []byte) *ParserError {
	e.Payload = snippet(payload)
	return e
}

// ClassificationError - нормализатор не смог распознать линию
type ClassificationError struct {
	Fields map[string]string
}

func (e *ClassificationError) Error() string {
	keys := []string{"mot", "symbol", "name", "longName", "trainType", "trainNum", "trainName"}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Fields[k]))
	}
	return "cannot normalize line: " + strings.Join(parts, " ")
}

// IsRetryable - сетевые ошибки и HTML-страницы вместо данных можно повторить
func IsRetryable(err error) bool {
	var ioErr *IOError
	if stderrors.As(err, &ioErr) {
		return true
	}
	var protoErr *ProtocolError
	return stderrors.As(err, &protoErr)
}

// IsSessionExpired проверяет ошибку истекшей сессии
func IsSessionExpired(err error) bool {
	var e *SessionExpiredError
	return stderrors.As(err, &e)
}

// FromEngine переводит ошибку движка в AppError для HTTP-ответа
func FromEngine(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var (
		illegal    *IllegalArgumentError
		expired    *SessionExpiredError
		ioErr      *IOError
		protoErr   *ProtocolError
		invalid    *InvalidDataError
		parseErr   *ParserError
		classifErr *ClassificationError
	)

	switch {
	case stderrors.As(err, &illegal):
		return ErrInvalidLocation.WithMessage(illegal.Message)
	case stderrors.As(err, &expired):
		return ErrSessionExpired
	case stderrors.As(err, &ioErr):
		return ErrUpstreamUnavailable
	case stderrors.As(err, &protoErr):
		return ErrUpstreamProtocol
	case stderrors.As(err, &invalid):
		return ErrUpstreamInvalidData.WithDetails(map[string]interface{}{
			"field": invalid.Field,
			"value": invalid.Value,
		})
	case stderrors.As(err, &parseErr):
		return ErrUpstreamProtocol.WithMessage(parseErr.Error())
	case stderrors.As(err, &classifErr):
		details := make(map[string]interface{}, len(classifErr.Fields))
		for k, v := range classifErr.Fields {
			details[k] = v
		}
		return ErrUnknownLine.WithDetails(details)
	}

	return ErrInternalServer
}
