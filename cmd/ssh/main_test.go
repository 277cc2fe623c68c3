package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"macro-dashboard/internal/config"
	"macro-dashboard/internal/dashboard"
	"macro-dashboard/internal/domain"
	"macro-dashboard/internal/widget"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type stubSources struct{}

func (stubSources) FetchPrices(context.Context, []string) (domain.PriceBoard, error) {
	return domain.PriceBoard{}, nil
}

func (stubSources) FetchGlobal(context.Context) (domain.MarketStats, error) {
	return domain.MarketStats{}, nil
}

func (stubSources) FetchLatest(context.Context) (domain.FearGreedIndex, error) {
	return domain.FearGreedIndex{}, nil
}

func (stubSources) FetchFeed(context.Context, string) (domain.NewsDigest, error) {
	return domain.NewsDigest{}, nil
}

func TestMainBootstrap(t *testing.T) {
	var serverOpts int
	restore := stubSSHDeps(func(ops ...ssh.Option) (*ssh.Server, error) {
		serverOpts = len(ops)
		return nil, nil
	})
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
	if serverOpts != 4 {
		t.Fatalf("wish server got %d options, want 4", serverOpts)
	}
}

func stubSSHDeps(newServer func(ops ...ssh.Option) (*ssh.Server, error)) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origLoadLayout := loadLayoutFunc
	origNewLogger := newLoggerFunc
	origInitTracer := initTracerFunc
	origBuildApp := buildAppFunc
	origLoadKeys := loadAuthorizedKeysFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			SSHPort:        2222,
			SSHHostKeyPath: ".ssh/test_key",
		}
	}
	loadLayoutFunc = func(string) (config.Layout, error) { return config.DefaultLayout(), nil }
	newLoggerFunc = func(string, string) *zap.SugaredLogger { return zap.NewNop().Sugar() }
	initTracerFunc = func(ctx context.Context, _, _ string, _ ...attribute.KeyValue) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	buildAppFunc = func(_ *config.Config, layout config.Layout, tracer trace.Tracer, logger *zap.SugaredLogger, observer widget.Observer) *dashboard.App {
		src := stubSources{}
		return dashboard.NewApp(dashboard.Sources{Prices: src, Market: src, FearGreed: src, News: src}, dashboard.Options{
			Feeds:  layout.Feeds,
			Tracer: tracer,
			Logger: logger,
		})
	}
	loadAuthorizedKeysFunc = func(string) (authorizedKeys, error) { return nil, nil }
	newWishServerFunc = newServer
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		loadLayoutFunc = origLoadLayout
		newLoggerFunc = origNewLogger
		initTracerFunc = origInitTracer
		buildAppFunc = origBuildApp
		loadAuthorizedKeysFunc = origLoadKeys
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}

func newPublicKey(t *testing.T) gossh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return key
}

func TestAuthorizedKeysPermits(t *testing.T) {
	alice := newPublicKey(t)
	mallory := newPublicKey(t)

	data := []byte("# team keys\n\n" + string(gossh.MarshalAuthorizedKey(alice)))
	keys, err := parseAuthorizedKeys(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}
	if !keys.Permits(alice) {
		t.Fatal("listed key must be permitted")
	}
	if keys.Permits(mallory) {
		t.Fatal("unlisted key must be denied")
	}
	if fingerprint(alice) != gossh.FingerprintSHA256(alice) {
		t.Fatal("fingerprint mismatch")
	}
}

func TestAuthorizedKeysNilPermitsAll(t *testing.T) {
	var keys authorizedKeys
	if !keys.Permits(newPublicKey(t)) {
		t.Fatal("nil allow-list must permit every key")
	}
}

func TestAuthorizedKeysEmptyFileDeniesAll(t *testing.T) {
	keys, err := parseAuthorizedKeys([]byte("# nobody yet\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if keys.Permits(newPublicKey(t)) {
		t.Fatal("empty allow-list must deny")
	}
}

func TestParseAuthorizedKeysRejectsGarbage(t *testing.T) {
	if _, err := parseAuthorizedKeys([]byte("ssh-ed25519 not-base64\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadAuthorizedKeys(t *testing.T) {
	keys, err := loadAuthorizedKeys("")
	if err != nil || keys != nil {
		t.Fatalf("empty path: keys=%v err=%v", keys, err)
	}

	if _, err := loadAuthorizedKeys(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}

	key := newPublicKey(t)
	path := filepath.Join(t.TempDir(), "authorized_keys")
	if err := os.WriteFile(path, gossh.MarshalAuthorizedKey(key), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	keys, err = loadAuthorizedKeys(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !keys.Permits(key) {
		t.Fatal("loaded key must be permitted")
	}
}
