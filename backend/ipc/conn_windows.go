//go:build windows

package ipc

import (
	"net"
	"os"
	"os/user"
	"regexp"

	"github.com/Microsoft/go-winio"
)

// SocketEnvVar overrides the named pipe.
const SocketEnvVar = "DUOPLAY_SOCKET"

var pipeName = `\\.\pipe\duoplay`

func init() {
	if p := os.Getenv(SocketEnvVar); p != "" {
		pipeName = p
	} else if user, err := user.Current(); err == nil {
		pipeName += regexp.MustCompile(`[^a-zA-Z0-9]+`).ReplaceAllString(user.Name, "")
	}
}

func Dial() (net.Conn, error) {
	return winio.DialPipe(pipeName, nil)
}

func Listen() (net.Listener, error) {
	return winio.ListenPipe(pipeName, nil)
}

func DestroyConn() error {
	// named pipes are cleaned up by the OS
	return nil
}
