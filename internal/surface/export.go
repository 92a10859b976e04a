package surface

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/trendview/internal/fsutil"
)

// Export writes f to path on fsys, as PNG for ".png" and as an HTML page
// for ".html" or ".htm".
func Export(fsys fsutil.FileSystem, path string, f Frame) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".html" && ext != ".htm" {
		return fmt.Errorf("export %s: unsupported extension %q (want .png or .html)", path, ext)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
	}

	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	bw := bufio.NewWriter(out)

	if ext == ".png" {
		err = WritePNG(bw, f, 0, 0)
	} else {
		err = WriteHTML(bw, f, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
