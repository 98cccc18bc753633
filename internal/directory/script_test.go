package directory

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticator/authenticator/internal/config"
)

type runCall struct {
	name          string
	args          []string
	stdin         string
	script        string
	existedDuring bool
}

func newTestScript(t *testing.T, stdout, stderr string, runErr error) (*Script, *runCall) {
	t.Helper()

	cfg := testDirectoryConfig()
	cfg.Backend = config.BackendScript
	cfg.Script = config.Script{Command: "pwsh", Args: []string{"-NoProfile", "-File"}, TempDir: t.TempDir()}

	call := &runCall{}
	s := NewScript(cfg, NewSimulated(cfg.UsersContainer()))
	s.run = func(_ context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		call.name = name
		call.args = args
		call.stdin = string(stdin)

		path := args[len(cfg.Script.Args)]
		body, err := os.ReadFile(path)
		call.existedDuring = err == nil
		call.script = string(body)

		return []byte(stdout), []byte(stderr), runErr
	}

	return s, call
}

func assertNoPayloadLeft(t *testing.T, s *Script) {
	t.Helper()

	left, err := filepath.Glob(filepath.Join(s.cfg.Script.TempDir, "*"))
	require.NoError(t, err)
	assert.Empty(t, left, "script payload must be removed")
}

func TestScriptCreateAccount(t *testing.T) {
	s, call := newTestScript(t, "SUCCESS: User created in Active Directory\n", "", nil)

	err := s.CreateAccount(context.Background(), NewAccount{
		Name:     `Carol "; Remove-ADUser x`,
		Email:    "carol@x.com",
		Password: "s3cret$(whoami)",
	})
	require.NoError(t, err)

	assert.Equal(t, "pwsh", call.name)
	assert.True(t, call.existedDuring)
	assert.Contains(t, call.script, "New-ADUser")
	assert.NotContains(t, call.script, "carol@x.com", "values are never part of the script text")

	assert.Equal(t, []string{"-NoProfile", "-File"}, call.args[:2])
	assert.Equal(t, []string{
		`-Name:Carol "; Remove-ADUser x`,
		"-GivenName:Carol",
		`-Surname:"; Remove-ADUser x`,
		"-Email:carol@x.com",
		"-AccountName:carol",
		"-Path:CN=Users,DC=x,DC=com",
	}, call.args[3:])

	assert.Equal(t, "s3cret$(whoami)\n", call.stdin)
	for _, a := range call.args {
		assert.NotContains(t, a, "s3cret", "secrets only travel on stdin")
	}

	assertNoPayloadLeft(t, s)
}

func TestScriptDashPrefixedValues(t *testing.T) {
	s, call := newTestScript(t, "SUCCESS: User created in Active Directory\n", "", nil)

	err := s.CreateAccount(context.Background(), NewAccount{
		Name:        "-Path",
		Email:       "-x@y.com",
		Password:    "pw",
		AccountName: "x",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"-Name:-Path",
		"-GivenName:-Path",
		"-Email:-x@y.com",
		"-AccountName:x",
		"-Path:CN=Users,DC=x,DC=com",
	}, call.args[3:])

	for _, a := range call.args[3:] {
		assert.True(t, strings.HasPrefix(a, "-"), a)
		assert.Contains(t, a, ":", "every value is bound to its parameter name")
	}
}

func TestScriptOutcomes(t *testing.T) {
	testCases := []struct {
		name          string
		stdout        string
		stderr        string
		runErr        error
		wantIs        error
		wantTransport bool
	}{
		{name: "success", stdout: "SUCCESS: done"},
		{name: "success after noise", stdout: "WARNING: module loaded\nSUCCESS: done\n"},
		{name: "exists is not a delete outcome", stdout: "ERROR: User already exists in Active Directory\n", runErr: errors.New("exit status 1"), wantTransport: true},
		{name: "not found", stdout: "ERROR: Cannot find an object with identity: 'x'\n", runErr: errors.New("exit status 1"), wantIs: ErrNotFound},
		{name: "access denied", stdout: "ERROR: Insufficient access rights\n", runErr: errors.New("exit status 1"), wantTransport: true},
		{name: "tool missing", stderr: "pwsh: not found", runErr: exec.ErrNotFound, wantTransport: true},
		{name: "silent", wantTransport: true},
		{name: "success but failed exit", stdout: "SUCCESS: done", runErr: errors.New("exit status 1"), wantTransport: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestScript(t, tc.stdout, tc.stderr, tc.runErr)

			err := s.DeleteAccount(context.Background(), "carol@x.com")

			switch {
			case tc.wantIs != nil:
				require.ErrorIs(t, err, tc.wantIs)
			case tc.wantTransport:
				var te *TransportError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, "delete", te.Op)
			default:
				require.NoError(t, err)
			}

			assertNoPayloadLeft(t, s)
		})
	}
}

func TestScriptCreateOutcomes(t *testing.T) {
	exit1 := errors.New("exit status 1")

	err := parseOutput("create", []byte("ERROR: User already exists in Active Directory\n"), nil, exit1)
	require.ErrorIs(t, err, ErrAlreadyExists)

	err = parseOutput("create", []byte("ERROR: Directory object not found\n"), nil, exit1)
	require.NotErrorIs(t, err, ErrNotFound, "a missing container is not a missing account")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "create", te.Op)
	assert.Equal(t, "Directory object not found", te.Diagnostic)

	err = parseOutput("delete", []byte("ERROR: Directory object not found\n"), nil, exit1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestScriptUpdateAndReset(t *testing.T) {
	s, call := newTestScript(t, "SUCCESS: ok", "", nil)

	name := "Carol Jones"
	require.NoError(t, s.UpdateAccount(context.Background(), "carol@x.com", AccountChanges{DisplayName: &name}))
	assert.Equal(t, []string{"-Email:carol@x.com", "-DisplayName:Carol Jones", "-GivenName:Carol", "-Surname:Jones"}, call.args[3:])
	assert.Empty(t, call.stdin)
	assert.Contains(t, call.script, "Set-ADUser")

	require.NoError(t, s.ResetPassword(context.Background(), "carol@x.com", "n3w"))
	assert.Equal(t, []string{"-Email:carol@x.com"}, call.args[3:])
	assert.Equal(t, "n3w\n", call.stdin)
	assert.Contains(t, call.script, "Set-ADAccountPassword")

	call.name = ""
	require.NoError(t, s.UpdateAccount(context.Background(), "carol@x.com", AccountChanges{}))
	assert.Empty(t, call.name, "no changes, no process")
}

func TestScriptCancelled(t *testing.T) {
	s, _ := newTestScript(t, "", "", errors.New("signal: killed"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.ResetPassword(ctx, "carol@x.com", "pw")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.ErrorIs(t, err, context.Canceled)
	assertNoPayloadLeft(t, s)
}

func TestScriptLookupDelegates(t *testing.T) {
	s, call := newTestScript(t, "", "", nil)
	sim := s.lookup.(*Simulated)
	require.NoError(t, sim.CreateAccount(context.Background(), NewAccount{Name: "Bob", Email: "bob@x.com", Password: "pw1"}))

	ok, err := s.Authenticate(context.Background(), "bob@x.com", "pw1")
	require.NoError(t, err)
	assert.True(t, ok)

	a, err := s.FindAccount(context.Background(), "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Bob", a.DisplayName)

	require.NoError(t, s.Ping(context.Background()))
	assert.Empty(t, call.name, "lookups never spawn the tool")
}

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	cfg := testDirectoryConfig()
	cfg.Script = config.Script{
		Command: "sh",
		// $1 is the payload path, $2 the email parameter; the secret is read from stdin
		Args:    []string{"-c", `read -r secret; test -f "$1" && test "$2" = "-Email:carol@x.com" && test -n "$secret" && echo "SUCCESS: $2"`, "sh"},
		TempDir: t.TempDir(),
	}

	s := NewScript(cfg, NewSimulated(""))
	require.NoError(t, s.ResetPassword(context.Background(), "carol@x.com", "pw"))
	assertNoPayloadLeft(t, s)

	cfg.Script.Args = []string{"-c", `echo "ERROR: Cannot find an object with identity"; exit 1`, "sh"}
	s = NewScript(cfg, NewSimulated(""))
	require.ErrorIs(t, s.DeleteAccount(context.Background(), "carol@x.com"), ErrNotFound)
	assertNoPayloadLeft(t, s)
}

func TestEmbeddedScriptsDeclareParams(t *testing.T) {
	for _, name := range []string{scriptCreate, scriptUpdate, scriptDelete, scriptReset} {
		body, err := embeddedScripts.ReadFile("scripts/" + name)
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(body), "param("), name)
		assert.Contains(t, string(body), "SUCCESS:", name)
		assert.Contains(t, string(body), "ERROR:", name)
	}
}
