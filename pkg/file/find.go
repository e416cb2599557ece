package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FindNewest returns the most recently modified file under dir whose name
// ends with ext. The search is recursive.
func FindNewest(dir, ext string) (string, error) {
	var newest string
	var newestTime time.Time

	err := filepath.Walk(dir, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() || !strings.HasSuffix(strings.ToLower(path), ext) {
			return nil
		}
		if info.ModTime().After(newestTime) {
			newest = path
			newestTime = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if newest == "" {
		return "", fmt.Errorf("no %s files under %s", ext, dir)
	}
	return newest, nil
}
