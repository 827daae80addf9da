package service

import (
	"errors"
	"fmt"
)

// Kind — машинно-стабильный вид ошибки, отдаваемый на границе сервиса.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindTransientStore    Kind = "transient_store"
	KindRetryExhausted    Kind = "retry_exhausted"
	KindDecryption        Kind = "decryption"
	KindMalformedEnvelope Kind = "malformed_envelope"
	KindNotFound          Kind = "not_found"
	KindDeleteFailed      Kind = "delete_failed"
	KindInternal          Kind = "internal"
)

// Error — ошибка операции конвейера.
type Error struct {
	Kind   Kind
	Op     string // save | retrieve | delete | generate
	Detail string
	// Attempts заполняется для KindRetryExhausted.
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Public возвращает вид ошибки, который видит клиент.
// MalformedEnvelope неотличим от Decryption.
func (e *Error) Public() Kind {
	if e.Kind == KindMalformedEnvelope {
		return KindDecryption
	}
	return e.Kind
}

// KindOf извлекает Kind из цепочки ошибок; для чужих ошибок — KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func validationError(op, detail string) *Error {
	return &Error{Kind: KindValidation, Op: op, Detail: detail}
}
