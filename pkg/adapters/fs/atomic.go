package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// tempPattern names the scratch file of a save: hidden, beside the target,
// and never equal to FileName, so the watcher's name filter skips it.
func tempPattern(filename string) string {
	return "." + filepath.Base(filename) + ".tmp-*"
}

// writeFileAtomic replaces filename with data through a scratch file in the
// same directory. A reader sees the old config or the new one, never a mix.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	f, err := os.CreateTemp(dir, tempPattern(filename))
	if err != nil {
		return fmt.Errorf("failed to create scratch file in %s: %w", dir, err)
	}
	scratch := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(scratch)
		}
	}()

	if err = f.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", scratch, err)
	}
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", scratch, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", scratch, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", scratch, err)
	}
	if err = os.Rename(scratch, filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	syncDir(dir)
	return nil
}

// syncDir persists the rename itself. Not every platform can open a
// directory for sync, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
