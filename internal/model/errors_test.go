package model

import (
	"errors"
	"image"
	"testing"
)

// TestValidationError tests the ValidationError type.
func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("block_size", 0, "must be positive")

	t.Run("message names field and value", func(t *testing.T) {
		t.Parallel()
		want := "invalid block_size 0: must be positive"
		if err.Error() != want {
			t.Errorf("got %q, expected %q", err.Error(), want)
		}
	})

	t.Run("matches ErrValidation", func(t *testing.T) {
		t.Parallel()
		if !errors.Is(err, ErrValidation) {
			t.Error("expected errors.Is(err, ErrValidation)")
		}
		if errors.Is(err, ErrDecode) {
			t.Error("validation error must not match ErrDecode")
		}
	})

	t.Run("can be extracted with errors.As", func(t *testing.T) {
		t.Parallel()
		var wrapped error = errors.Join(errors.New("context"), err)
		var ve *ValidationError
		if !errors.As(wrapped, &ve) {
			t.Fatal("expected errors.As to find ValidationError")
		}
		if ve.Field != "block_size" {
			t.Errorf("got field %q", ve.Field)
		}
	})
}

// TestDecodeError tests the DecodeError type.
func TestDecodeError(t *testing.T) {
	t.Parallel()

	err := NewDecodeError("image", image.ErrFormat)

	if !errors.Is(err, ErrDecode) {
		t.Error("expected errors.Is(err, ErrDecode)")
	}
	if !errors.Is(err, image.ErrFormat) {
		t.Error("expected the codec error to be unwrapped")
	}
	if err.Error() != "failed to decode image: image: unknown format" {
		t.Errorf("unexpected message %q", err.Error())
	}

	bare := &DecodeError{Format: "pdf"}
	if bare.Error() != "failed to decode pdf" {
		t.Errorf("unexpected message %q", bare.Error())
	}
}
