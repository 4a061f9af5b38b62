package sysmanager

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// LinuxPlatform implements Platform against the real kernel: sync(2) and
// reboot(2) with RB_POWER_OFF.
type LinuxPlatform struct{}

func (LinuxPlatform) Sync() error {
	syscall.Sync()
	return nil
}

func (LinuxPlatform) Halt() error {
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}
