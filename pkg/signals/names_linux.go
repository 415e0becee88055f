package signals

import "golang.org/x/sys/unix"

// Real-time signal bounds as seen by libc: the kernel reserves 32 and 33 for
// the threading implementation, so SIGRTMIN starts at 34.
const (
	SIGRTMIN Signal = 34
	SIGRTMAX Signal = 64
)

// nameTable maps bare signal names (no "SIG" prefix) to their numbers.
var nameTable = map[string]Signal{
	"ABRT":   Signal(unix.SIGABRT),
	"ALRM":   Signal(unix.SIGALRM),
	"BUS":    Signal(unix.SIGBUS),
	"CHLD":   Signal(unix.SIGCHLD),
	"CLD":    Signal(unix.SIGCLD),
	"CONT":   Signal(unix.SIGCONT),
	"FPE":    Signal(unix.SIGFPE),
	"HUP":    Signal(unix.SIGHUP),
	"ILL":    Signal(unix.SIGILL),
	"INT":    Signal(unix.SIGINT),
	"IO":     Signal(unix.SIGIO),
	"IOT":    Signal(unix.SIGIOT),
	"KILL":   Signal(unix.SIGKILL),
	"PIPE":   Signal(unix.SIGPIPE),
	"POLL":   Signal(unix.SIGPOLL),
	"PROF":   Signal(unix.SIGPROF),
	"PWR":    Signal(unix.SIGPWR),
	"RTMAX":  SIGRTMAX,
	"RTMIN":  SIGRTMIN,
	"QUIT":   Signal(unix.SIGQUIT),
	"SEGV":   Signal(unix.SIGSEGV),
	"STKFLT": Signal(unix.SIGSTKFLT),
	"STOP":   Signal(unix.SIGSTOP),
	"SYS":    Signal(unix.SIGSYS),
	"TERM":   Signal(unix.SIGTERM),
	"TRAP":   Signal(unix.SIGTRAP),
	"TSTP":   Signal(unix.SIGTSTP),
	"TTIN":   Signal(unix.SIGTTIN),
	"TTOU":   Signal(unix.SIGTTOU),
	"URG":    Signal(unix.SIGURG),
	"USR1":   Signal(unix.SIGUSR1),
	"USR2":   Signal(unix.SIGUSR2),
	"VTALRM": Signal(unix.SIGVTALRM),
	"WINCH":  Signal(unix.SIGWINCH),
	"XCPU":   Signal(unix.SIGXCPU),
	"XFSZ":   Signal(unix.SIGXFSZ),
}

// canonicalNames is used for reverse lookups. Aliases (CLD, IOT, POLL and
// the RT bounds) are left out so each number has one name.
var canonicalNames = func() map[Signal]string {
	m := make(map[Signal]string, len(nameTable))
	for name, sig := range nameTable {
		switch name {
		case "CLD", "IOT", "POLL", "RTMIN", "RTMAX":
			continue
		}
		m[sig] = name
	}
	return m
}()
