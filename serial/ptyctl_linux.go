package serial

import (
	"fmt"

	ioctl "github.com/daedaluz/goioctl"
	"syscall"
	"unsafe"
)

// Winsize mirrors struct winsize from <asm-generic/termios.h>: the
// terminal's character and pixel dimensions, as used by TIOCGWINSZ and
// TIOCSWINSZ.
type Winsize struct {
	Row    uint16
	Col    uint16
	Xpixel uint16
	Ypixel uint16
}

// GetWinSize returns the terminal's current window size.
func (p *Port) GetWinSize() (*Winsize, error) {
	ws := &Winsize{}
	if err := ioctl.Ioctl(uintptr(p.f), tiocgwinsz, uintptr(unsafe.Pointer(ws))); err != nil {
		return nil, fmt.Errorf("serial: get winsize: %w", err)
	}
	return ws, nil
}

// SetWinSize applies a window size to the terminal.
func (p *Port) SetWinSize(ws *Winsize) error {
	if err := ioctl.Ioctl(uintptr(p.f), tiocswinsz, uintptr(unsafe.Pointer(ws))); err != nil {
		return fmt.Errorf("serial: set winsize: %w", err)
	}
	return nil
}

// SetLockPT locks (true) or unlocks (false) the pty pair's slave side.
// The slave cannot be opened while locked, which is the kernel default
// immediately after opening /dev/ptmx.
func (p *Port) SetLockPT(locked bool) error {
	var v int32
	if locked {
		v = 1
	}
	if err := ioctl.Ioctl(uintptr(p.f), tiocsptlck, uintptr(unsafe.Pointer(&v))); err != nil {
		return fmt.Errorf("serial: set lock pt: %w", err)
	}
	return nil
}

// GetPTPeer opens this pty master's slave side directly via
// TIOCGPTPEER, avoiding the /dev/pts/N path lookup TIOCGPTN would
// otherwise require. Unlike the other ioctls in this file, TIOCGPTPEER
// returns the new descriptor as the syscall result itself rather than
// through an output argument, so it goes through syscall directly
// instead of the ioctl.Ioctl(fd, req, arg) wrapper.
func (p *Port) GetPTPeer(flags int) (*Port, error) {
	fd, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(p.f), tiocgptpeer, uintptr(flags))
	if errno != 0 {
		return nil, fmt.Errorf("serial: get pt peer: %w", errno)
	}
	return &Port{options: p.options, f: int(fd)}, nil
}
