package procexec

import (
	"errors"
	"io/fs"
)

// isNotExist catches absolute binary paths that do not exist; exec reports
// those as *fs.PathError rather than exec.ErrNotFound.
func isNotExist(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) && errors.Is(pathErr.Err, fs.ErrNotExist)
}
