//go:build linux

package filesystem

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential enables aggressive readahead for f. Failure is harmless.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
