package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const dirPerm = 0o755

// Paths resolves where the asset is read from and where the rewritten copy
// is staged.
type Paths struct {
	ExportsDir string
	AssetPath  string
	AssetName  string
	OutputDir  string
}

// Input returns the asset file to load. ExportsDir may already point into
// AssetPath, and may already name the asset file.
func (p Paths) Input() string {
	dir := p.ExportsDir
	if p.AssetPath != "" && !strings.Contains(dir, p.AssetPath) {
		dir = filepath.Join(dir, p.AssetPath)
	}
	if strings.HasSuffix(dir, p.AssetName) {
		return dir
	}
	return filepath.Join(dir, p.AssetName)
}

// Root returns the output root: OutputDir without a trailing AssetPath.
// This is the directory that gets packaged.
func (p Paths) Root() string {
	out := strings.TrimRight(p.OutputDir, `\/`)
	asset := strings.Trim(p.AssetPath, `\/`)
	if asset == "" || len(out) < len(asset) {
		return out
	}
	if tail := out[len(out)-len(asset):]; strings.EqualFold(tail, asset) {
		return strings.TrimRight(out[:len(out)-len(asset)], `\/`)
	}
	return out
}

// Output returns the file the rewritten asset is written to.
func (p Paths) Output() string {
	return filepath.Join(p.Root(), p.AssetPath, p.AssetName)
}

// Stage creates the output directories and returns the output file path.
func (p Paths) Stage() (string, error) {
	out := p.Output()
	if err := os.MkdirAll(filepath.Dir(out), dirPerm); err != nil {
		return "", fmt.Errorf("stage output dir: %w", err)
	}
	return out, nil
}
