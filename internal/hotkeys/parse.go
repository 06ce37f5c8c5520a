package hotkeys

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	modAlt      Modifier = 0x0001
	modControl  Modifier = 0x0002
	modShift    Modifier = 0x0004
	modWin      Modifier = 0x0008
	modNoRepeat Modifier = 0x4000
)

const (
	vkBack     VKey = 0x08
	vkTab      VKey = 0x09
	vkReturn   VKey = 0x0D
	vkPause    VKey = 0x13
	vkEscape   VKey = 0x1B
	vkSpace    VKey = 0x20
	vkPageUp   VKey = 0x21
	vkPageDown VKey = 0x22
	vkEnd      VKey = 0x23
	vkHome     VKey = 0x24
	vkLeft     VKey = 0x25
	vkUp       VKey = 0x26
	vkRight    VKey = 0x27
	vkDown     VKey = 0x28
	vkInsert   VKey = 0x2D
	vkDelete   VKey = 0x2E
	vkF1       VKey = 0x70
	vkF20      VKey = 0x83
	vkOem3     VKey = 0xC0
)

// Order of modifiers in the normalized form.
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{modControl, "Ctrl"},
	{modAlt, "Alt"},
	{modShift, "Shift"},
	{modWin, "Win"},
}

var modifierByName = map[string]Modifier{
	"CTRL":    modControl,
	"CONTROL": modControl,
	"ALT":     modAlt,
	"SHIFT":   modShift,
	"WIN":     modWin,
	"SUPER":   modWin,
}

type namedKey struct {
	key  VKey
	name string
}

var keyByName = map[string]namedKey{
	"SPACE":     {vkSpace, "Space"},
	"TAB":       {vkTab, "Tab"},
	"ENTER":     {vkReturn, "Enter"},
	"RETURN":    {vkReturn, "Enter"},
	"ESC":       {vkEscape, "Esc"},
	"ESCAPE":    {vkEscape, "Esc"},
	"BACKSPACE": {vkBack, "Backspace"},
	"INSERT":    {vkInsert, "Insert"},
	"DELETE":    {vkDelete, "Delete"},
	"HOME":      {vkHome, "Home"},
	"END":       {vkEnd, "End"},
	"PAGEUP":    {vkPageUp, "PageUp"},
	"PAGEDOWN":  {vkPageDown, "PageDown"},
	"PAUSE":     {vkPause, "Pause"},
	"LEFT":      {vkLeft, "Left"},
	"RIGHT":     {vkRight, "Right"},
	"UP":        {vkUp, "Up"},
	"DOWN":      {vkDown, "Down"},
	"`":         {vkOem3, "`"},
	"BACKQUOTE": {vkOem3, "`"},
	"GRAVE":     {vkOem3, "`"},
}

// ParseBinding parses specs like "Ctrl+Alt+Space" or "Win+Shift+0x4B".
// Tokens are case-insensitive, at least one modifier is required and
// duplicate modifiers collapse. The result always carries MOD_NOREPEAT so a
// held key reports a single press.
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey %q must include modifiers and key", raw)
	}

	var modifiers Modifier
	for _, token := range parts[:len(parts)-1] {
		mod, ok := modifierByName[strings.ToUpper(strings.TrimSpace(token))]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", strings.TrimSpace(token), raw)
		}
		modifiers |= mod
	}

	key, keyName, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Binding{}, fmt.Errorf("hotkey %q: %w", raw, err)
	}

	names := make([]string, 0, len(modifierOrder)+1)
	for _, m := range modifierOrder {
		if modifiers&m.mod != 0 {
			names = append(names, m.name)
		}
	}
	names = append(names, keyName)

	return Binding{
		modifiers:  modifiers | modNoRepeat,
		key:        key,
		normalized: strings.Join(names, "+"),
	}, nil
}

func parseKey(raw string) (VKey, string, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, "", fmt.Errorf("missing key token")
	}

	if k, ok := keyByName[token]; ok {
		return k.key, k.name, nil
	}

	if len(token) == 1 {
		ch := token[0]
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			return VKey(ch), token, nil
		}
	}

	if n, ok := strings.CutPrefix(token, "F"); ok {
		if idx, err := strconv.Atoi(n); err == nil && idx >= 1 && idx <= 20 {
			return vkF1 + VKey(idx-1), token, nil
		}
	}

	if hex, ok := strings.CutPrefix(token, "0X"); ok {
		value, err := strconv.ParseUint(hex, 16, 8)
		if err != nil {
			return 0, "", fmt.Errorf("invalid hex key %q", strings.TrimSpace(raw))
		}
		if value == 0 {
			return 0, "", fmt.Errorf("key code 0x00 is not a valid virtual key")
		}
		return VKey(value), fmt.Sprintf("0x%02X", value), nil
	}

	return 0, "", fmt.Errorf("unknown key %q", strings.TrimSpace(raw))
}
