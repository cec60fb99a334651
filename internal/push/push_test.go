package push

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/kidbank/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

// testSubscription returns a subscription with real client keys pointing at endpoint.
func testSubscription(t *testing.T, endpoint string) *model.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("generate auth secret: %v", err)
	}
	return &model.PushSubscription{
		Endpoint:  endpoint,
		P256dhKey: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		AuthKey:   base64.RawURLEncoding.EncodeToString(secret),
	}
}

func TestSendStatusHandling(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
		anyErr  bool
	}{
		{"created", http.StatusCreated, nil, false},
		{"gone", http.StatusGone, ErrExpired, true},
		{"server error", http.StatusInternalServerError, nil, true},
	}

	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			svc := NewService(pub, priv, WithHTTPClient(server.Client()))
			err := svc.Send(testSubscription(t, server.URL), Payload{Title: "Reward paid", Body: "+5.00"})

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if (err != nil) != tt.anyErr {
				t.Errorf("err = %v, want error %v", err, tt.anyErr)
			}
			if gotAuth == "" {
				t.Error("expected VAPID authorization header")
			}
		})
	}
}

func TestConfigured(t *testing.T) {
	if NewService("", "").Configured() {
		t.Error("expected unconfigured without keys")
	}
	if !NewService("pub", "priv").Configured() {
		t.Error("expected configured with keys")
	}
}
