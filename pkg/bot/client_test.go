package bot

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/picoslash/pkg/api"
	"github.com/sipeed/picoslash/pkg/command"
	"github.com/sipeed/picoslash/pkg/config"
)

type fakeTransport struct {
	mu       sync.Mutex
	calls    []string
	commands []api.ApplicationCommand
	nextID   int
	handler  func(*api.Interaction)
	listErr  error
	replies  []string
}

func (f *fakeTransport) log(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTransport) ResolveApplicationID(context.Context) (string, error) { return "app", nil }

func (f *fakeTransport) Open() error {
	f.log("open")
	return nil
}

func (f *fakeTransport) Close() error {
	f.log("close")
	return nil
}

func (f *fakeTransport) OnInteraction(fn func(*api.Interaction)) func() {
	f.log("intake")
	f.mu.Lock()
	f.handler = fn
	f.mu.Unlock()
	return func() {
		f.log("intake removed")
		f.mu.Lock()
		f.handler = nil
		f.mu.Unlock()
	}
}

func (f *fakeTransport) deliver(in *api.Interaction) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(in)
	}
}

func (f *fakeTransport) ListCommands(context.Context) ([]api.ApplicationCommand, error) {
	f.log("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]api.ApplicationCommand(nil), f.commands...), nil
}

func (f *fakeTransport) CreateCommand(_ context.Context, cmd api.CreateCommand) (api.ApplicationCommand, error) {
	f.log("create " + cmd.Name)
	f.nextID++
	rec := api.ApplicationCommand{ID: fmt.Sprintf("id-%d", f.nextID), Name: cmd.Name, Description: cmd.Description, Options: cmd.Options}
	f.commands = append(f.commands, rec)
	return rec, nil
}

func (f *fakeTransport) DeleteCommand(_ context.Context, id string) error {
	f.log("delete " + id)
	return nil
}

func (f *fakeTransport) Acknowledge(_ context.Context, id, _ string) error {
	f.log("ack " + id)
	return nil
}

func (f *fakeTransport) Pong(context.Context, string, string) error { return nil }

func (f *fakeTransport) EditOriginal(_ context.Context, _ string, msg command.Message) (command.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, msg.Content)
	return command.MessageRef{}, nil
}

func (f *fakeTransport) Send(_ context.Context, _ string, msg command.Message) (command.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, msg.Content)
	return command.MessageRef{}, nil
}

func (f *fakeTransport) Guild(context.Context, string) (any, error)           { return nil, nil }
func (f *fakeTransport) Channel(context.Context, string) (any, error)         { return nil, nil }
func (f *fakeTransport) Member(context.Context, string, string) (any, error) { return nil, nil }

func helloRegistry(t *testing.T) (*command.Registry, *command.Node) {
	t.Helper()
	reg := command.NewRegistry()
	hello := command.NewLeaf("hello-world", `Says "Hello, World!"`, func(ctx context.Context, inv *command.Invocation) error {
		_, err := inv.Say(ctx, "Say, how are you doing")
		return err
	})
	require.NoError(t, reg.Register(hello))
	return reg, hello
}

func TestStartReconcilesBeforeIntake(t *testing.T) {
	reg, hello := helloRegistry(t)
	tr := &fakeTransport{}
	c := New(config.DefaultConfig(), reg, tr)

	require.NoError(t, c.Start(context.Background(), StartOptions{}))

	assert.Equal(t, []string{"open", "list", "create hello-world", "intake"}, tr.Calls())
	assert.Equal(t, "id-1", hello.RemoteID())

	err := reg.Register(command.NewLeaf("late", "too late", nil))
	assert.ErrorIs(t, err, command.ErrRegistrySealed)

	tr.deliver(&api.Interaction{ID: "i1", Type: api.InteractionApplicationCommand, Token: "t",
		Data: &api.InteractionData{ID: "id-1", Name: "hello-world"}})

	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, []string{"Say, how are you doing"}, tr.replies)
	calls := tr.Calls()
	assert.Equal(t, []string{"intake removed", "close"}, calls[len(calls)-2:])
}

func TestStartWithoutReconcileAdoptsIDs(t *testing.T) {
	reg, hello := helloRegistry(t)
	tr := &fakeTransport{commands: []api.ApplicationCommand{{ID: "77", Name: "hello-world", Description: "outdated"}}}
	c := New(config.DefaultConfig(), reg, tr)

	require.NoError(t, c.Start(context.Background(), StartOptions{NoReconcile: true}))
	defer c.Stop(context.Background())

	assert.Equal(t, []string{"open", "list", "intake"}, tr.Calls())
	assert.Equal(t, "77", hello.RemoteID())
}

func TestSyncDisabledInConfig(t *testing.T) {
	reg, _ := helloRegistry(t)
	tr := &fakeTransport{}
	cfg := config.DefaultConfig()
	cfg.Sync.Enabled = false
	c := New(cfg, reg, tr)

	require.NoError(t, c.Start(context.Background(), StartOptions{}))
	defer c.Stop(context.Background())

	assert.NotContains(t, tr.Calls(), "create hello-world")
}

func TestReconcileFailureAbortsStart(t *testing.T) {
	reg, _ := helloRegistry(t)
	tr := &fakeTransport{listErr: errors.New("401 Unauthorized")}
	c := New(config.DefaultConfig(), reg, tr)

	err := c.Start(context.Background(), StartOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reconcile commands")
	assert.Contains(t, err.Error(), "401 Unauthorized")
	assert.Equal(t, []string{"open", "list", "close"}, tr.Calls())
	assert.NoError(t, c.Stop(context.Background()))
}

func TestStartTwice(t *testing.T) {
	reg, _ := helloRegistry(t)
	c := New(config.DefaultConfig(), reg, &fakeTransport{})

	require.NoError(t, c.Start(context.Background(), StartOptions{}))
	defer c.Stop(context.Background())
	assert.ErrorContains(t, c.Start(context.Background(), StartOptions{}), "already started")
}

func TestHTTPIntake(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	reg, _ := helloRegistry(t)
	tr := &fakeTransport{}
	cfg := config.DefaultConfig()
	cfg.Intake.Mode = config.IntakeHTTP
	cfg.Intake.HTTP.Port = 0
	cfg.Discord.PublicKey = hex.EncodeToString(pub)
	c := New(cfg, reg, tr)

	require.NoError(t, c.Start(context.Background(), StartOptions{}))
	assert.Equal(t, []string{"list", "create hello-world"}, tr.Calls())

	body := []byte(`{"id":"h1","type":2,"token":"t","data":{"id":"id-1","name":"hello-world"}}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req, err := http.NewRequest(http.MethodPost, "http://"+c.Addr()+cfg.Intake.HTTP.Path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(ed25519.Sign(priv, append([]byte(ts), body...))))
	req.Header.Set("X-Signature-Timestamp", ts)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, []string{"Say, how are you doing"}, tr.replies)
	assert.NotContains(t, tr.Calls(), "ack h1")
}
