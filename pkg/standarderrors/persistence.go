// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package standarderrors defines the error kinds returned by the persistence engine.
//
// Every error that leaves the repository package is an *Error carrying one of the
// kinds below. Callers map kinds to their own transport-level responses:
//
//	if standarderrors.IsNotFound(err) { ... }
//	if errors.Is(err, standarderrors.ErrAlreadyExists) { ... }
package standarderrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an engine error.
type Kind int

const (
	// KindNotFound indicates that an identifier or criteria resolved to nothing.
	KindNotFound Kind = iota + 1

	// KindAlreadyExists indicates that an insert would duplicate an existing key.
	KindAlreadyExists

	// KindNotAContainer indicates that the addressed parent cannot own children.
	KindNotAContainer

	// KindInvalidArgument indicates a malformed path, a blank required key or a cursor
	// that was not issued by the paging engine.
	KindInvalidArgument

	// KindBackingStoreFailure wraps connectivity problems, serialization round-trip
	// failures and unsupported store features. The engine never retries these.
	KindBackingStoreFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindNotAContainer:
		return "not_a_container"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindBackingStoreFailure:
		return "backing_store_failure"
	default:
		return "unknown"
	}
}

// Error is the categorized error type of the engine.
type Error struct {
	Err      error
	Resource string
	Actual   string
	Expected []string
	Kind     Kind
}

// Sentinels for errors.Is. They only compare by kind.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrAlreadyExists       = &Error{Kind: KindAlreadyExists}
	ErrNotAContainer       = &Error{Kind: KindNotAContainer}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrBackingStoreFailure = &Error{Kind: KindBackingStoreFailure}
)

// Error renders the kind, the resource and the wrapped cause.
func (e *Error) Error() string {
	var b strings.Builder

	switch e.Kind {
	case KindNotFound:
		b.WriteString("resource not found")
	case KindAlreadyExists:
		b.WriteString("resource already exists")
	case KindNotAContainer:
		b.WriteString("parent is not a container")
	case KindInvalidArgument:
		b.WriteString("invalid argument")
	case KindBackingStoreFailure:
		b.WriteString("backing store failure")
	default:
		b.WriteString("persistence error")
	}

	if e.Resource != "" {
		b.WriteString(": ")
		b.WriteString(e.Resource)
	}

	if e.Kind == KindNotAContainer && e.Actual != "" {
		fmt.Fprintf(&b, " (actual kind %s, expected one of %s)", e.Actual, strings.Join(e.Expected, ", "))
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Resource == "" && t.Err == nil && t.Kind == e.Kind
}

// IsKind checks if the error has the specified kind.
func (e *Error) IsKind(kind Kind) bool {
	return e.Kind == kind
}

// NotFound reports that resource does not exist.
func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Resource: resource}
}

// AlreadyExists reports that resource is already present.
func AlreadyExists(resource string) error {
	return &Error{Kind: KindAlreadyExists, Resource: resource}
}

// NotAContainer reports that resource has kind actual, which cannot own children.
func NotAContainer(resource string, actual string, expected ...string) error {
	return &Error{Kind: KindNotAContainer, Resource: resource, Actual: actual, Expected: expected}
}

// InvalidArgument formats a validation failure.
func InvalidArgument(template string, args ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Err: fmt.Errorf(template, args...)}
}

// BackingStore wraps err, raised by the store during op.
func BackingStore(op string, err error) error {
	return &Error{Kind: KindBackingStoreFailure, Resource: op, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not categorized.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

// IsNotFound is a convenience checker for KindNotFound.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsAlreadyExists is a convenience checker for KindAlreadyExists.
func IsAlreadyExists(err error) bool {
	return KindOf(err) == KindAlreadyExists
}

// IsNotAContainer is a convenience checker for KindNotAContainer.
func IsNotAContainer(err error) bool {
	return KindOf(err) == KindNotAContainer
}

// IsInvalidArgument is a convenience checker for KindInvalidArgument.
func IsInvalidArgument(err error) bool {
	return KindOf(err) == KindInvalidArgument
}

// IsBackingStoreFailure is a convenience checker for KindBackingStoreFailure.
func IsBackingStoreFailure(err error) bool {
	return KindOf(err) == KindBackingStoreFailure
}
