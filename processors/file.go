package processor

import (
	"io"
	"os"
)

// moveInto places src at dst. When a plain rename is not possible (scratch
// and destination on different filesystems) src is copied next to dst first
// so dst never holds a partial file.
func moveInto(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	tmp := dst + ".part"
	if err := copyFile(src, tmp); err != nil {
		os.Remove(tmp) // nolint: errcheck
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp) // nolint: errcheck
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	if err != nil {
		return err
	}
	return out.Close()
}
