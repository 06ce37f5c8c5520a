//go:build windows

package winsys

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")
	gdi32DLL  = windows.NewLazySystemDLL("gdi32.dll")

	procEnumWindows          = user32DLL.NewProc("EnumWindows")
	procGetWindowLongW       = user32DLL.NewProc("GetWindowLongW")
	procGetWindowTextW       = user32DLL.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32DLL.NewProc("GetWindowTextLengthW")
	procGetClassNameW        = user32DLL.NewProc("GetClassNameW")
	procSendMessageTimeoutW  = user32DLL.NewProc("SendMessageTimeoutW")
	procGetClassLongPtrW     = user32DLL.NewProc("GetClassLongPtrW")
	procGetClassLongW        = user32DLL.NewProc("GetClassLongW")
	procGetIconInfo          = user32DLL.NewProc("GetIconInfo")
	procDrawIconEx           = user32DLL.NewProc("DrawIconEx")
	procIsIconic             = user32DLL.NewProc("IsIconic")
	procIsWindow             = user32DLL.NewProc("IsWindow")
	procShowWindow           = user32DLL.NewProc("ShowWindow")
	procSwitchToThisWindow   = user32DLL.NewProc("SwitchToThisWindow")

	procCreateCompatibleDC = gdi32DLL.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = gdi32DLL.NewProc("CreateDIBSection")
	procSelectObject       = gdi32DLL.NewProc("SelectObject")
	procDeleteObject       = gdi32DLL.NewProc("DeleteObject")
	procDeleteDC           = gdi32DLL.NewProc("DeleteDC")
	procGetDIBits          = gdi32DLL.NewProc("GetDIBits")
	procGdiFlush           = gdi32DLL.NewProc("GdiFlush")
)

const (
	gwlStyle    int32 = -16
	gwlExStyle  int32 = -20
	gclpHIcon   int32 = -14
	gclpHIconSm int32 = -34

	wsVisible      = 0x10000000
	wsExToolWindow = 0x00000080

	wmGetIcon = 0x007F
	iconSmall = 0
	iconBig   = 1

	smtoBlock        = 0x0001
	smtoAbortIfHung  = 0x0002
	iconQueryTimeout = 200 // ms

	swShowNormal = 1
	diNormal     = 0x0003
	dibRGBColors = 0
	biRGB        = 0

	maxClassNameLen = 256
)

// bitmapInfoHeader mirrors BITMAPINFOHEADER.
type bitmapInfoHeader struct {
	size          uint32
	width         int32
	height        int32
	planes        uint16
	bitCount      uint16
	compression   uint32
	sizeImage     uint32
	xPelsPerMeter int32
	yPelsPerMeter int32
	clrUsed       uint32
	clrImportant  uint32
}

// bitmapInfo mirrors BITMAPINFO with a single (unused) palette entry.
type bitmapInfo struct {
	header bitmapInfoHeader
	colors [1]uint32
}

// iconInfo mirrors ICONINFO. Field order and types must match the Win32 layout.
type iconInfo struct {
	fIcon    int32
	xHotspot uint32
	yHotspot uint32
	hbmMask  uintptr
	hbmColor uintptr
}

type win32System struct{}

func newPlatformSystem() (System, error) {
	// Load up front so a missing DLL is a clean error instead of a panic from
	// LazyProc.Call in the middle of an enumeration.
	if err := user32DLL.Load(); err != nil {
		return nil, fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	if err := gdi32DLL.Load(); err != nil {
		return nil, fmt.Errorf("gdi32.dll is unavailable: %w", err)
	}
	return win32System{}, nil
}

// EnumWindows callbacks are created once: windows.NewCallback slots are never
// released, so a per-call callback would exhaust them after enough sessions.
var (
	enumMu       sync.Mutex
	enumVisit    func(TopLevel) bool
	enumCallback uintptr
	enumInit     sync.Once
)

func enumWindowsProc(hwnd uintptr, _ uintptr) uintptr {
	visit := enumVisit
	if visit == nil {
		return 0
	}
	if visit(describeWindow(Handle(hwnd))) {
		return 1
	}
	return 0
}

func (win32System) EnumerateTopLevel(visit func(TopLevel) bool) {
	if visit == nil {
		return
	}
	enumInit.Do(func() {
		enumCallback = windows.NewCallback(enumWindowsProc)
	})

	enumMu.Lock()
	defer enumMu.Unlock()
	enumVisit = visit
	defer func() { enumVisit = nil }()

	// EnumWindows reports failure when the callback stops early, so the return
	// value carries no information worth surfacing.
	procEnumWindows.Call(enumCallback, 0)
}

func describeWindow(h Handle) TopLevel {
	style := uint32(windowLong(h, gwlStyle))
	exStyle := uint32(windowLong(h, gwlExStyle))
	return TopLevel{
		Handle:     h,
		Title:      windowText(h),
		ClassName:  className(h),
		Visible:    style&wsVisible != 0,
		ToolWindow: exStyle&wsExToolWindow != 0,
	}
}

func windowLong(h Handle, index int32) uintptr {
	r, _, _ := procGetWindowLongW.Call(uintptr(h), uintptr(index))
	return r
}

func windowText(h Handle) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(h))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, int(n)+1)
	copied, _, _ := procGetWindowTextW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if copied == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:copied])
}

func className(h Handle) string {
	var buf [maxClassNameLen]uint16
	n, _, _ := procGetClassNameW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func (win32System) WindowIcon(h Handle, src IconSource) IconHandle {
	switch src {
	case IconBigMessage:
		return queryIconMessage(h, iconBig)
	case IconBigClass:
		return IconHandle(classLongPtr(h, gclpHIcon))
	case IconSmallMessage:
		return queryIconMessage(h, iconSmall)
	case IconSmallClass:
		return IconHandle(classLongPtr(h, gclpHIconSm))
	default:
		return 0
	}
}

// queryIconMessage sends WM_GETICON with SMTO_ABORTIFHUNG so a hung target
// window cannot stall the whole enumeration.
func queryIconMessage(h Handle, kind uintptr) IconHandle {
	var result uintptr
	ok, _, _ := procSendMessageTimeoutW.Call(
		uintptr(h),
		wmGetIcon,
		kind,
		0,
		smtoBlock|smtoAbortIfHung,
		iconQueryTimeout,
		uintptr(unsafe.Pointer(&result)),
	)
	if ok == 0 {
		return 0
	}
	return IconHandle(result)
}

func classLongPtr(h Handle, index int32) uintptr {
	// GetClassLongPtrW is a macro over GetClassLongW on 32-bit Windows.
	proc := procGetClassLongPtrW
	if proc.Find() != nil {
		proc = procGetClassLongW
	}
	r, _, _ := proc.Call(uintptr(h), uintptr(index))
	return r
}

func getIconInfo(icon IconHandle) (iconInfo, error) {
	var info iconInfo
	ok, _, _ := procGetIconInfo.Call(uintptr(icon), uintptr(unsafe.Pointer(&info)))
	if ok == 0 {
		return iconInfo{}, ErrIconInfo
	}
	return info, nil
}

// release frees the bitmaps GetIconInfo hands to the caller.
func (info iconInfo) release() {
	if info.hbmMask != 0 {
		procDeleteObject.Call(info.hbmMask)
	}
	if info.hbmColor != 0 {
		procDeleteObject.Call(info.hbmColor)
	}
}

func (win32System) IconHotspot(icon IconHandle) (uint32, uint32, error) {
	info, err := getIconInfo(icon)
	if err != nil {
		return 0, 0, err
	}
	defer info.release()
	return info.xHotspot, info.yHotspot, nil
}

func (win32System) RenderIcon(icon IconHandle, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrSurfaceCreation, width, height)
	}

	hdc, _, _ := procCreateCompatibleDC.Call(0)
	if hdc == 0 {
		return nil, fmt.Errorf("%w: CreateCompatibleDC returned NULL", ErrSurfaceCreation)
	}
	defer procDeleteDC.Call(hdc)

	// Negative height selects a top-down DIB so rows need no flip.
	bmi := bitmapInfo{
		header: bitmapInfoHeader{
			width:       int32(width),
			height:      -int32(height),
			planes:      1,
			bitCount:    32,
			compression: biRGB,
		},
	}
	bmi.header.size = uint32(unsafe.Sizeof(bmi.header))

	var bits unsafe.Pointer
	dib, _, dibErr := procCreateDIBSection.Call(
		hdc,
		uintptr(unsafe.Pointer(&bmi)),
		dibRGBColors,
		uintptr(unsafe.Pointer(&bits)),
		0,
		0,
	)
	if dib == 0 || bits == nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceCreation, lastError(dibErr))
	}
	defer procDeleteObject.Call(dib)

	old, _, _ := procSelectObject.Call(hdc, dib)
	defer procSelectObject.Call(hdc, old)

	procDrawIconEx.Call(hdc, 0, 0, uintptr(icon), uintptr(width), uintptr(height), 0, 0, diNormal)
	procGdiFlush.Call()

	size := width * height * 4
	out := make([]byte, size)

	info, err := getIconInfo(icon)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadback, err)
	}
	defer info.release()

	if info.hbmColor == 0 {
		// Monochrome icons have no color bitmap; the rendered surface is the
		// only source of pixels.
		copy(out, unsafe.Slice((*byte)(bits), size))
		return out, nil
	}

	lines, _, readErr := procGetDIBits.Call(
		hdc,
		info.hbmColor,
		0,
		uintptr(height),
		uintptr(unsafe.Pointer(&out[0])),
		uintptr(unsafe.Pointer(&bmi)),
		dibRGBColors,
	)
	if lines == 0 {
		slog.Error("[icon] GetDIBits failed", "error", lastError(readErr))
		return nil, fmt.Errorf("%w: %v", ErrReadback, lastError(readErr))
	}
	return out, nil
}

func (win32System) IsMinimized(h Handle) bool {
	r, _, _ := procIsIconic.Call(uintptr(h))
	return r != 0
}

func (s win32System) Restore(h Handle) error {
	// ShowWindow returns the previous visibility and leaves the thread's last
	// error untouched, so the window state is the only reliable outcome.
	_, _, err := procShowWindow.Call(uintptr(h), swShowNormal)
	return restoreOutcome(s.IsMinimized(h), err)
}

func (win32System) SwitchTo(h Handle) error {
	ok, _, _ := procIsWindow.Call(uintptr(h))
	if ok == 0 {
		return ErrInvalidWindow
	}
	// SwitchToThisWindow is documented as intended for task switchers; it has
	// no return value.
	procSwitchToThisWindow.Call(uintptr(h), 1)
	return nil
}

func lastError(err error) error {
	if err == nil || errors.Is(err, syscall.Errno(0)) {
		return errors.New("unknown error")
	}
	return err
}
