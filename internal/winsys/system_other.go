//go:build !windows

package winsys

func newPlatformSystem() (System, error) {
	return nil, ErrUnsupported
}
