package identity

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bobmcallan/signin-portal/internal/common"
)

type fakeLoader struct {
	calls atomic.Int32
	load  func(ctx context.Context) error
}

func (f *fakeLoader) Load(ctx context.Context) error {
	f.calls.Add(1)
	if f.load == nil {
		return nil
	}
	return f.load(ctx)
}

type fakeSDK struct {
	initErr   error
	renderErr error
	cfg       SDKConfig
	mount     Mount
}

func (f *fakeSDK) Initialize(cfg SDKConfig) error {
	f.cfg = cfg
	return f.initErr
}

func (f *fakeSDK) RenderButton(m Mount, _ ButtonOptions) (template.HTML, error) {
	f.mount = m
	if f.renderErr != nil {
		return "", f.renderErr
	}
	return template.HTML(`<div id="` + m.ElementID + `"></div>`), nil
}

var testMount = Mount{ContainerID: "google-signin-container", ElementID: "google-signin-button"}

func testBridgeConfig() BridgeConfig {
	return BridgeConfig{
		ClientID:     "abc.apps.googleusercontent.com",
		ScriptURL:    "https://accounts.google.com/gsi/client",
		LoginURI:     "/auth/google/callback",
		ReadyTimeout: time.Second,
	}
}

func await(t *testing.T, ch <-chan Presentation) Presentation {
	t.Helper()
	select {
	case p, ok := <-ch:
		if !ok {
			t.Fatal("presentation channel closed without a value")
		}
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for presentation")
	}
	return Presentation{}
}

func TestBridge_NotConfigured(t *testing.T) {
	for _, cfg := range []BridgeConfig{
		{ScriptURL: "https://accounts.google.com/gsi/client"},
		{ClientID: "abc"},
	} {
		loader := &fakeLoader{}
		b := NewBridge(&fakeSDK{}, loader, cfg, common.NewSilentLogger())
		v := NewView(context.Background())

		p := await(t, b.Start(v))
		v.Unmount()

		if !p.ShowFallback || p.Reason != ReasonNotConfigured {
			t.Errorf("expected not configured fallback, got %+v", p)
		}
		if loader.calls.Load() != 0 {
			t.Error("script must not be loaded without configuration")
		}
	}
}

func TestBridge_Success(t *testing.T) {
	sdk := &fakeSDK{}
	b := NewBridge(sdk, &fakeLoader{}, testBridgeConfig(), common.NewSilentLogger())
	v := NewView(context.Background())
	defer v.Unmount()

	ch := b.Start(v)
	v.Mount(testMount)
	p := await(t, ch)

	if p.ShowFallback {
		t.Fatalf("expected sdk button, got fallback %s", p.Reason)
	}
	if !strings.Contains(string(p.Button), "google-signin-button") {
		t.Errorf("expected button markup for mount element, got %s", p.Button)
	}
	if p.ScriptURL != "https://accounts.google.com/gsi/client" {
		t.Errorf("expected script url, got %s", p.ScriptURL)
	}
	if sdk.cfg.ClientID != "abc.apps.googleusercontent.com" || sdk.cfg.LoginURI != "/auth/google/callback" {
		t.Errorf("unexpected sdk config %+v", sdk.cfg)
	}
	if sdk.cfg.PromptParentID != "google-signin-container" {
		t.Errorf("expected prompt parent from mount, got %s", sdk.cfg.PromptParentID)
	}

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after the presentation")
	}
}

func TestBridge_SuccessWithGoogleSDK(t *testing.T) {
	b := NewBridge(NewGoogleSDK(), &fakeLoader{}, testBridgeConfig(), common.NewSilentLogger())
	v := NewView(context.Background())
	defer v.Unmount()

	v.Mount(testMount)
	p := await(t, b.Start(v))

	if p.ShowFallback {
		t.Fatalf("expected sdk button, got fallback %s", p.Reason)
	}
	if !strings.Contains(string(p.Button), `data-client_id="abc.apps.googleusercontent.com"`) {
		t.Errorf("expected gis markup, got %s", p.Button)
	}
}

func TestBridge_Failures(t *testing.T) {
	tests := []struct {
		name   string
		loader *fakeLoader
		sdk    *fakeSDK
		want   Reason
	}{
		{
			name:   "script unavailable",
			loader: &fakeLoader{load: func(context.Context) error { return errors.New("503") }},
			sdk:    &fakeSDK{},
			want:   ReasonScriptUnavailable,
		},
		{
			name:   "initialize fails",
			loader: &fakeLoader{},
			sdk:    &fakeSDK{initErr: errors.New("bad client")},
			want:   ReasonSDKUnavailable,
		},
		{
			name:   "render fails",
			loader: &fakeLoader{},
			sdk:    &fakeSDK{renderErr: errors.New("no element")},
			want:   ReasonSDKUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(tt.sdk, tt.loader, testBridgeConfig(), common.NewSilentLogger())
			v := NewView(context.Background())
			defer v.Unmount()

			v.Mount(testMount)
			p := await(t, b.Start(v))

			if !p.ShowFallback || p.Reason != tt.want {
				t.Errorf("expected fallback %s, got %+v", tt.want, p)
			}
			if p.Button != "" {
				t.Error("fallback must not carry button markup")
			}
		})
	}
}

func TestBridge_TimeoutWhenNeverMounted(t *testing.T) {
	cfg := testBridgeConfig()
	cfg.ReadyTimeout = 20 * time.Millisecond
	b := NewBridge(&fakeSDK{}, &fakeLoader{}, cfg, common.NewSilentLogger())
	v := NewView(context.Background())
	defer v.Unmount()

	p := await(t, b.Start(v))

	if !p.ShowFallback || p.Reason != ReasonTimeout {
		t.Errorf("expected timeout fallback, got %+v", p)
	}
}

func TestBridge_TimeoutWhenScriptHangs(t *testing.T) {
	cfg := testBridgeConfig()
	cfg.ReadyTimeout = 20 * time.Millisecond
	loader := &fakeLoader{load: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	b := NewBridge(&fakeSDK{}, loader, cfg, common.NewSilentLogger())
	v := NewView(context.Background())
	defer v.Unmount()

	v.Mount(testMount)
	p := await(t, b.Start(v))

	if !p.ShowFallback || p.Reason != ReasonTimeout {
		t.Errorf("expected timeout fallback, got %+v", p)
	}
}

func TestBridge_UnmountCancels(t *testing.T) {
	b := NewBridge(&fakeSDK{}, &fakeLoader{}, testBridgeConfig(), common.NewSilentLogger())
	v := NewView(context.Background())

	ch := b.Start(v)
	v.Unmount()
	p := await(t, ch)

	if !p.ShowFallback || p.Reason != ReasonCanceled {
		t.Errorf("expected canceled fallback, got %+v", p)
	}
}

func TestBridge_DefaultReadyTimeout(t *testing.T) {
	b := NewBridge(&fakeSDK{}, &fakeLoader{}, BridgeConfig{}, common.NewSilentLogger())
	if b.cfg.ReadyTimeout != DefaultReadyTimeout {
		t.Errorf("expected default ready timeout, got %s", b.cfg.ReadyTimeout)
	}
}

func TestBridge_Complete(t *testing.T) {
	b := NewBridge(&fakeSDK{}, &fakeLoader{}, testBridgeConfig(), common.NewSilentLogger())
	token := mintCredential(t, jwt.MapClaims{"email": "a@b.com", "name": "A"})

	out := b.Complete(token)
	if !out.OK() {
		t.Fatalf("expected success, got %s: %v", out.Reason, out.Err)
	}
	if out.User.Email != "a@b.com" || out.User.Name != "A" {
		t.Errorf("unexpected user %+v", out.User)
	}
}

func TestBridge_CompleteMalformed(t *testing.T) {
	b := NewBridge(&fakeSDK{}, &fakeLoader{}, testBridgeConfig(), common.NewSilentLogger())

	out := b.Complete("garbage")
	if out.OK() {
		t.Fatal("expected failure for garbage credential")
	}
	if out.Reason != ReasonMalformedCredential {
		t.Errorf("expected malformed credential, got %s", out.Reason)
	}
	if !errors.Is(out.Err, ErrMalformedCredential) {
		t.Errorf("expected ErrMalformedCredential, got %v", out.Err)
	}
}

func TestReason_String(t *testing.T) {
	if ReasonTimeout.String() != "timeout" {
		t.Errorf("unexpected %s", ReasonTimeout)
	}
	if Reason(99).String() != "unknown" {
		t.Errorf("unexpected %s", Reason(99))
	}
}
