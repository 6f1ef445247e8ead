//go:build !linux

package filesystem

import "os"

func adviseSequential(f *os.File) {}
