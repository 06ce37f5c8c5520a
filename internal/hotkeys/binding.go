// Package hotkeys registers one system-wide hotkey and reports each press.
package hotkeys

// DefaultBinding opens the switcher when no binding is configured.
const DefaultBinding = "Ctrl+Alt+Space"

// Modifier is a RegisterHotKey modifier bitmask.
type Modifier uint32

// VKey is a Win32 virtual-key code.
type VKey uint32

// Binding is a parsed hotkey. Build it with ParseBinding.
type Binding struct {
	modifiers  Modifier
	key        VKey
	normalized string
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.modifiers }

// Key returns the virtual-key code.
func (b Binding) Key() VKey { return b.key }

// Normalized returns the canonical form, e.g. "Ctrl+Alt+Space".
func (b Binding) Normalized() string { return b.normalized }

// Listener is the part of Manager the application depends on.
type Listener interface {
	Start(spec string, onTrigger func()) error
	Stop() error
	ActiveBinding() string
	Listening() bool
}

var _ Listener = (*Manager)(nil)
