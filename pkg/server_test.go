package pkg

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gossh "golang.org/x/crypto/ssh"

	"github.com/qnkhuat/openingrush/pkg/config"
)

func TestSessionCommand(t *testing.T) {
	args, err := SessionCommand(`openingrush play --config "/etc/opening rush.yaml"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"openingrush", "play", "--config", "/etc/opening rush.yaml"}, args)

	args, err = SessionCommand("")
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, "play", args[1])

	_, err = SessionCommand(`play "unterminated`)
	assert.Error(t, err)
}

func TestEnsureHostKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "host")
	require.NoError(t, EnsureHostKey(path))

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	signer, err := gossh.ParsePrivateKey(first)
	require.NoError(t, err)
	assert.Equal(t, gossh.KeyAlgoED25519, signer.PublicKey().Type())

	require.NoError(t, EnsureHostKey(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSSHRefusesNonInteractiveSessions(t *testing.T) {
	cfg, err := config.Setup(config.New(), "")
	require.NoError(t, err)
	cfg.SSHHostKey = filepath.Join(t.TempDir(), "host")
	cfg.SSHCommand = "true"

	s, err := NewSSHServer(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, s.Command)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.Serve(l)
	t.Cleanup(func() { s.Close() })

	client, err := gossh.Dial("tcp", l.Addr().String(), &gossh.ClientConfig{
		User:            "tester",
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
	})
	require.NoError(t, err)
	defer client.Close()

	sess, err := client.NewSession()
	require.NoError(t, err)
	defer sess.Close()

	out, err := sess.CombinedOutput("")
	var exit *gossh.ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitStatus())
	assert.Contains(t, string(out), "interactive terminal")
}
