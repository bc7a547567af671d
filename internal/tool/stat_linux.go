//go:build linux

package tool

import (
	"os"
	"syscall"
)

// fileTimes returns modification and change time as fractional seconds
// since the epoch.
func fileTimes(fi os.FileInfo) (modified, created float64) {
	modified = float64(fi.ModTime().UnixNano()) / 1e9
	created = modified
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		created = float64(st.Ctim.Sec) + float64(st.Ctim.Nsec)/1e9
	}
	return modified, created
}
