//go:build !windows

package process

import "syscall"

func sysProcAttr(detached bool) *syscall.SysProcAttr {
	if !detached {
		return nil
	}
	return &syscall.SysProcAttr{Setsid: true}
}
