//go:build !windows

package ipc

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"path"
	"runtime"
)

// SocketEnvVar overrides the socket location, e.g. for portable installs.
const SocketEnvVar = "DUOPLAY_SOCKET"

// socketPath is initialized based on platform conventions:
//   - $DUOPLAY_SOCKET if set
//   - macOS: ~/Library/Caches/duoplay/duoplay.sock
//   - Linux/Unix: $XDG_RUNTIME_DIR/duoplay.sock
//
// falling back to /tmp/duoplay-{uid}.sock.
var socketPath = "/tmp/duoplay.sock"

func init() {
	socketPath = defaultSocketPath()
}

func defaultSocketPath() string {
	if p := os.Getenv(SocketEnvVar); p != "" {
		return p
	}
	if runtime.GOOS == "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			return path.Join(home, "Library", "Caches", "duoplay", "duoplay.sock")
		}
	} else if rt := os.Getenv("XDG_RUNTIME_DIR"); rt != "" {
		return path.Join(rt, "duoplay.sock")
	}
	if u, err := user.Current(); err == nil {
		return fmt.Sprintf("/tmp/duoplay-%s.sock", u.Uid)
	}
	return socketPath
}

// Dial establishes a connection to the IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", socketPath)
}

// Listen creates a Unix domain socket listener at the configured path.
// The socket file should be removed with DestroyConn when done.
func Listen() (net.Listener, error) {
	if err := os.MkdirAll(path.Dir(socketPath), 0o700); err != nil {
		return nil, err
	}
	return net.Listen("unix", socketPath)
}

// DestroyConn removes the Unix socket file from the filesystem.
func DestroyConn() error {
	return os.Remove(socketPath)
}
