package watcher

import (
	"errors"
	"io/fs"

	"github.com/fsnotify/fsnotify"
)

// Common errors.
var (
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNotDirectory   = errors.New("not a directory")

	// ErrOverflow is reported through the error callback when the kernel
	// queue overflowed and events were lost. Callers should rescan.
	ErrOverflow = fsnotify.ErrEventOverflow
)

// ErrorKind classifies why a watch could not be established.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindLimitReached
	KindPathNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindLimitReached:
		return "limit-reached"
	case KindPathNotFound:
		return "path-not-found"
	default:
		return "other"
	}
}

// User-facing messages for classified failures.
const (
	MsgWatchLimit  = "inotify watch limit reached"
	MsgFDLimit     = "File descriptor limit reached"
	MsgDirNotFound = "Tasks directory not found"
)

// WatchError is a classified watch-establishment failure.
type WatchError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *WatchError) Error() string {
	return e.Msg
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// ClassifyError maps a raw error into a WatchError. Resource exhaustion and
// generic failures are meant for user-visible guidance; PathNotFound is
// treated by callers as "no source".
func ClassifyError(err error) *WatchError {
	if err == nil {
		return nil
	}

	var we *WatchError
	if errors.As(err, &we) {
		return we
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &WatchError{Kind: KindPathNotFound, Msg: MsgDirNotFound, Err: err}
	case isWatchLimit(err):
		return &WatchError{Kind: KindLimitReached, Msg: MsgWatchLimit, Err: err}
	case isFileLimit(err):
		return &WatchError{Kind: KindLimitReached, Msg: MsgFDLimit, Err: err}
	default:
		return &WatchError{Kind: KindOther, Msg: "Watch failed: " + err.Error(), Err: err}
	}
}
