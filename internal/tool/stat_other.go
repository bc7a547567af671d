//go:build !linux

package tool

import "os"

// fileTimes returns modification time as fractional seconds since the
// epoch. Platforms without a portable change time reuse it.
func fileTimes(fi os.FileInfo) (modified, created float64) {
	modified = float64(fi.ModTime().UnixNano()) / 1e9
	return modified, modified
}
