//go:build unix

package watcher

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ENOSPC from inotify_add_watch means max_user_watches is exhausted.
func isWatchLimit(err error) bool {
	return errors.Is(err, unix.ENOSPC)
}

func isFileLimit(err error) bool {
	return errors.Is(err, unix.EMFILE) || errors.Is(err, unix.ENFILE)
}
