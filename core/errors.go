package core

import (
	"fmt"

	"github.com/pkg/errors"
)

type unreadableDocument struct {
	path string
	err  error
}

// NewUnreadableDocumentError marks a document whose renderings could not be
// produced (corrupt archive, unsupported format, permission error, render
// timeout). Recovered per-document: log, skip, continue the batch.
func NewUnreadableDocumentError(path string, err error) error {
	return &unreadableDocument{path: path, err: err}
}

func (e *unreadableDocument) Error() string {
	return fmt.Sprintf("unreadable document %s: %v", e.path, e.err)
}

func (e *unreadableDocument) Unwrap() error { return e.err }

func IsUnreadableDocument(err error) bool {
	_, ok := errors.Cause(err).(*unreadableDocument)
	return ok
}

type shutdown struct {
	message string
}

// NewShutdownError flags a condition fatal to the whole batch (store
// unreachable, corpus root missing).
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
