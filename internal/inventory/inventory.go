// Package inventory snapshots the user-facing top-level windows.
package inventory

import (
	"errors"
	"log/slog"
	"strings"

	"winseek/internal/icon"
	"winseek/internal/winsys"
)

// ShellCoreWindowClass is the class of shell-internal host windows that are
// visible and titled but never useful to switch to.
const ShellCoreWindowClass = "Windows.UI.Core.CoreWindow"

// Record is one switchable window. Title is trimmed and non-empty.
type Record struct {
	Handle winsys.Handle
	Title  string
	Icon   icon.Icon
}

// IconSource extracts the icon of a window.
type IconSource interface {
	Extract(h winsys.Handle) (icon.Icon, error)
}

// Options tunes the filter.
type Options struct {
	// ExcludedClasses lists additional window classes to skip. Matching is exact.
	ExcludedClasses []string
}

// Enumerate returns a record for every eligible top-level window in platform
// order. It never mutates window state.
func Enumerate(sys winsys.System, icons IconSource) []Record {
	return EnumerateWithOptions(sys, icons, Options{})
}

// EnumerateWithOptions is Enumerate with extra class exclusions.
func EnumerateWithOptions(sys winsys.System, icons IconSource, opts Options) []Record {
	excluded := make(map[string]struct{}, len(opts.ExcludedClasses)+1)
	excluded[ShellCoreWindowClass] = struct{}{}
	for _, class := range opts.ExcludedClasses {
		if class = strings.TrimSpace(class); class != "" {
			excluded[class] = struct{}{}
		}
	}

	var records []Record
	seen := make(map[winsys.Handle]struct{})
	sys.EnumerateTopLevel(func(w winsys.TopLevel) bool {
		if _, dup := seen[w.Handle]; dup {
			return true
		}
		seen[w.Handle] = struct{}{}

		title := strings.TrimSpace(w.Title)
		if reason := exclusionReason(w, title, excluded); reason != "" {
			slog.Debug("[inventory] skipping window", "hwnd", uintptr(w.Handle), "class", w.ClassName, "reason", reason)
			return true
		}

		records = append(records, Record{
			Handle: w.Handle,
			Title:  title,
			Icon:   iconOrPlaceholder(icons, w.Handle, title),
		})
		return true
	})

	slog.Debug("[inventory] enumeration complete", "records", len(records), "seen", len(seen))
	return records
}

func exclusionReason(w winsys.TopLevel, title string, excluded map[string]struct{}) string {
	switch {
	case !w.Visible:
		return "hidden"
	case w.ToolWindow:
		return "tool-window"
	case title == "":
		return "empty-title"
	}
	if _, ok := excluded[w.ClassName]; ok {
		return "excluded-class"
	}
	return ""
}

func iconOrPlaceholder(icons IconSource, h winsys.Handle, title string) icon.Icon {
	if icons == nil {
		return icon.Placeholder()
	}
	decoded, err := icons.Extract(h)
	if err != nil {
		step := ""
		var extractErr *icon.ExtractError
		if errors.As(err, &extractErr) {
			step = extractErr.Step
		}
		slog.Warn("[inventory] icon unavailable, using placeholder",
			"hwnd", uintptr(h), "title", title, "step", step, "error", err)
		return icon.Placeholder()
	}
	return decoded
}
