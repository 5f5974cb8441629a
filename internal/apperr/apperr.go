package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind: core operasyonların hata sınıflandırması.
// Malzeme eksikliği (shortage) bir hata DEĞİLDİR; planlama cevabında
// alerts/shortage alanı olarak döner.
type Kind string

const (
	KindNotFound         Kind = "not_found"         // ürün/hammadde/reçete/iş emri/sayım bulunamadı
	KindInvalidArgument  Kind = "invalid_argument"  // negatif miktar, boş liste, aralık dışı yüzde
	KindConflict         Kind = "conflict"          // durum geçişi ihlali (çifte tamamlama, yanlış durumdan onay)
	KindInsufficientData Kind = "insufficient_data" // aktif reçetesi olmayan ürün için hesap/plan
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func InsufficientData(format string, args ...any) *Error {
	return New(KindInsufficientData, format, args...)
}

// IsKind: sarılmış hatalarda da tür kontrolü
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// ToFiber: core hatasını HTTP cevabına çevirir; taksonomi dışı hatalar
// fallback mesajıyla 500 döner (iç detay sızdırılmaz, log'a yazılır).
func ToFiber(err error, fallback string) error {
	var ae *Error
	if errors.As(err, &ae) {
		return fiber.NewError(ae.HTTPStatus(), ae.Message)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	return fiber.NewError(fiber.StatusInternalServerError, fallback)
}

// HTTPStatus: taksonomi -> HTTP durum kodu eşlemesi
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInvalidArgument:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindInsufficientData:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
