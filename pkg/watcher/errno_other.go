//go:build !unix

package watcher

func isWatchLimit(error) bool { return false }

func isFileLimit(error) bool { return false }
