package pkg

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"go.uber.org/zap"
	gossh "golang.org/x/crypto/ssh"

	"github.com/qnkhuat/openingrush/pkg/config"
)

// SSHServer runs the terminal trainer under a pseudo-terminal for every
// interactive ssh session.
type SSHServer struct {
	*ssh.Server
	Command []string
	log     *zap.SugaredLogger
}

func NewSSHServer(cfg *config.Config, log *zap.SugaredLogger) (*SSHServer, error) {
	command, err := SessionCommand(cfg.SSHCommand)
	if err != nil {
		return nil, err
	}
	if err := EnsureHostKey(cfg.SSHHostKey); err != nil {
		return nil, err
	}

	s := &SSHServer{Command: command, log: log}
	s.Server = &ssh.Server{
		Addr:        cfg.SSHAddr,
		IdleTimeout: cfg.IdleTimeout,
		Handler:     s.handle,
	}
	if err := s.SetOption(ssh.HostKeyFile(cfg.SSHHostKey)); err != nil {
		return nil, fmt.Errorf("failed to load host key: %w", err)
	}
	return s, nil
}

// SessionCommand splits the configured command line. An empty one runs the
// play command of this binary.
func SessionCommand(line string) ([]string, error) {
	args, err := shlex.Split(line, true)
	if err != nil {
		return nil, fmt.Errorf("invalid ssh_command %q: %w", line, err)
	}
	if len(args) > 0 {
		return args, nil
	}
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return []string{self, "play"}, nil
}

// EnsureHostKey writes a fresh ed25519 host key to path unless one exists.
func EnsureHostKey(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	block, err := gossh.MarshalPrivateKey(key, "openingrush host key")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, pem.EncodeToMemory(block), 0o600)
}

// ListenAndServe serves until ctx is cancelled.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
	}()

	s.log.Infow("SSH server listening", "addr", s.Addr, "command", s.Command)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *SSHServer) handle(sess ssh.Session) {
	log := s.log.With("user", sess.User(), "remote", sess.RemoteAddr().String())
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		io.WriteString(sess, "openingrush needs an interactive terminal, try ssh -t\n")
		sess.Exit(1)
		return
	}

	cmdCtx, cancelCmd := context.WithCancel(sess.Context())
	defer cancelCmd()

	cmd := exec.CommandContext(cmdCtx, s.Command[0], s.Command[1:]...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, winsize(ptyReq.Window))
	if err != nil {
		log.Errorw("Failed to start session", "error", err)
		io.WriteString(sess, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		sess.Exit(1)
		return
	}
	defer f.Close()
	log.Infow("Session started", "term", ptyReq.Term)
	start := time.Now()

	go func() {
		for win := range winCh {
			if err := pty.Setsize(f, winsize(win)); err != nil {
				log.Debugw("Failed to resize", "error", err)
			}
		}
	}()

	go func() {
		io.Copy(f, sess)
	}()
	io.Copy(sess, f)

	cancelCmd()
	cmd.Wait()
	log.Infow("Session ended", "duration", time.Since(start).Round(time.Second))
}

func winsize(w ssh.Window) *pty.Winsize {
	return &pty.Winsize{Rows: uint16(w.Height), Cols: uint16(w.Width)}
}
