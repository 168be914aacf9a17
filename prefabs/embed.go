package prefabs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
)

// Dir is the on-disk prefab directory. Files there shadow the embedded copy so
// content can be edited without rebuilding.
const Dir = "prefabs"

//go:embed entities/*.yaml rounds/*.yaml scripts/*
var PrefabsFS embed.FS

// Load reads a prefab file, preferring the on-disk copy.
func Load(name string) ([]byte, error) {
	clean := cleanPrefabPath(name)
	if data, err := os.ReadFile(diskPrefabPath(clean)); err == nil {
		return data, nil
	}
	return PrefabsFS.ReadFile(clean)
}

// LoadScript reads a round script by name or scripts-relative path.
func LoadScript(name string) ([]byte, error) {
	return Load(cleanScriptPath(name))
}

// DiskDirs lists the on-disk directories worth watching for edits.
func DiskDirs() []string {
	var dirs []string
	for _, sub := range []string{"entities", "rounds", "scripts"} {
		dir := filepath.Join(Dir, sub)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func cleanPrefabPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, Dir+"/"); ok {
		return after
	}
	return s
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}

	s := cleanPrefabPath(path)

	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}

	return "scripts/" + s
}

func diskPrefabPath(clean string) string {
	return filepath.Join(Dir, filepath.FromSlash(clean))
}
