package nuget

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lincza/al-build/pkg/logger"
)

var nupkgLog = logger.New("nuget:nupkg")

// ExtractApps extracts every .app member of a .nupkg archive into destDir
// and returns the written filenames. Member paths are flattened; a symbol
// package carries its .app files at arbitrary depths.
func ExtractApps(nupkg []byte, destDir string) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(nupkg), int64(len(nupkg)))
	if err != nil {
		return nil, fmt.Errorf("package is not a valid archive: %w", err)
	}

	var written []string
	for _, member := range reader.File {
		if !strings.EqualFold(filepath.Ext(member.Name), ".app") {
			continue
		}
		name := filepath.Base(member.Name)
		if name == "." || name == "/" {
			continue
		}

		src, err := member.Open()
		if err != nil {
			return written, fmt.Errorf("failed to open package member %s: %w", member.Name, err)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return written, fmt.Errorf("failed to read package member %s: %w", member.Name, err)
		}

		target := filepath.Join(destDir, name)
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", target, err)
		}
		nupkgLog.Printf("Extracted %s (%d bytes)", name, len(data))
		written = append(written, name)
	}

	if len(written) == 0 {
		return nil, fmt.Errorf("package contains no .app files")
	}
	return written, nil
}
