//go:build linux

package childproc

import "syscall"

// sysProcAttr isolates the child into its own process group and arranges
// for it to be killed if this process dies first, mirroring the corpus's
// standard supervised-process setup.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
