package target

import (
	"net/url"
	"path"
	"path/filepath"
)

// Normalize processes a given compile target and converts it into a
// standard form.
//
// Targets may be any valid URI or file path. File paths and file URIs are
// converted to an absolute, slash separated form. All non-file URIs are left
// as-is with the expectation that they will be handled by some other
// FileSystem implementation.
func Normalize(target string) string {
	if target == "" {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "" && u.Scheme != "file") {
		return target
	}
	if u.Scheme == "file" {
		target = u.Path
	}
	target = filepath.ToSlash(target)
	if !path.IsAbs(target) {
		return path.Join("/", target)
	}
	return path.Clean(target)
}

// Resolve interprets target relative to the directory of base, which is
// typically the configuration file that named it. Absolute targets and
// non-file URIs are only normalized.
func Resolve(base string, target string) string {
	if target == "" {
		return ""
	}
	u, err := url.Parse(target)
	if err == nil && u.Scheme != "" {
		return Normalize(target)
	}
	if path.IsAbs(filepath.ToSlash(target)) || base == "" {
		return Normalize(target)
	}
	return Normalize(path.Join(path.Dir(Normalize(base)), filepath.ToSlash(target)))
}
