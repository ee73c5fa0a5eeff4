package terminal

import (
	"io"
	"os"
)

// HasTTY reports whether stdout is connected to a terminal.
func HasTTY() bool {
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether w is a character device. Writers that are not
// *os.File are never terminals.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
