/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package sprint

import (
	"errors"
	"fmt"
	"strings"
)

// NoticeKind groups user-facing failures by where they came from.
type NoticeKind string

const (
	KindValidation  NoticeKind = "validation"
	KindFile        NoticeKind = "file"
	KindEnvironment NoticeKind = "environment"
	KindInternal    NoticeKind = "internal"
)

// GenericFailure is shown for anything the user cannot fix themselves.
const GenericFailure = "An error has occurred. Please try again."

// FieldError names one offending field of one imported challenge.
type FieldError struct {
	Index   int    `json:"index"` // 1-based position in the imported list
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("Challenge %d: %s", e.Index, e.Message)
}

// Notice is a failure that the front-end shows to the user verbatim.
// Returning a Notice from an action always means no state was changed.
type Notice struct {
	Kind    NoticeKind   `json:"kind"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`

	cause error
}

func (n *Notice) Error() string {
	return n.Message
}

func (n *Notice) Unwrap() error {
	return n.cause
}

func newNotice(kind NoticeKind, format string, args ...any) *Notice {
	return &Notice{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func invalid(format string, args ...any) *Notice {
	return newNotice(KindValidation, format, args...)
}

func fieldNotice(prefix string, fields []FieldError) *Notice {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.Error())
	}

	return &Notice{
		Kind:    KindFile,
		Message: prefix + "\n" + strings.Join(lines, "\n"),
		Fields:  fields,
	}
}

// Internal wraps an unexpected error in the generic "try again" notice.
func Internal(cause error) *Notice {
	return &Notice{
		Kind:    KindInternal,
		Message: GenericFailure,
		cause:   cause,
	}
}

// AsNotice returns err as a Notice, treating anything else as internal.
func AsNotice(err error) *Notice {
	if err == nil {
		return nil
	}

	var n *Notice
	if errors.As(err, &n) {
		return n
	}

	return Internal(err)
}
