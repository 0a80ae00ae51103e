package crypto

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"

	"github.com/GregMSThompson/expense-backend/internal/errs"
)

// fakeKMS "encrypts" by reversing bytes.
type fakeKMS struct {
	keyName string
	err     error
}

func (f *fakeKMS) Encrypt(_ context.Context, req *kmspb.EncryptRequest, _ ...gax.CallOption) (*kmspb.EncryptResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keyName = req.Name
	return &kmspb.EncryptResponse{Ciphertext: reverse(req.Plaintext)}, nil
}

func (f *fakeKMS) Decrypt(_ context.Context, req *kmspb.DecryptRequest, _ ...gax.CallOption) (*kmspb.DecryptResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &kmspb.DecryptResponse{Plaintext: reverse(req.Ciphertext)}, nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

func TestKMSRoundTrip(t *testing.T) {
	client := &fakeKMS{}
	k := NewKMS(client, "projects/p/locations/global/keyRings/r/cryptoKeys/plaid")

	sealed, err := k.Encrypt(context.Background(), "access-sandbox-123")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if client.keyName != "projects/p/locations/global/keyRings/r/cryptoKeys/plaid" {
		t.Fatalf("key name = %q", client.keyName)
	}

	plain, err := k.Decrypt(context.Background(), sealed)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if plain != "access-sandbox-123" {
		t.Fatalf("Decrypt = %q", plain)
	}
}

func TestKMSWrapsErrors(t *testing.T) {
	k := NewKMS(&fakeKMS{err: errors.New("permission denied")}, "key")

	_, err := k.Encrypt(context.Background(), "x")
	var encErr *errs.EncryptionError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncryptionError, got %v", err)
	}

	_, err = NewKMS(&fakeKMS{}, "key").Decrypt(context.Background(), "%%%")
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncryptionError for bad base64, got %v", err)
	}
}

type fakeSecrets struct {
	name string
}

func (f *fakeSecrets) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.name = req.Name
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte("signing-key")},
	}, nil
}

func TestReadSecret(t *testing.T) {
	client := &fakeSecrets{}
	got, err := ReadSecret(context.Background(), client, "proj", "jwt-signing-key")
	if err != nil {
		t.Fatalf("ReadSecret error: %v", err)
	}
	if got != "signing-key" {
		t.Fatalf("payload = %q", got)
	}
	if client.name != "projects/proj/secrets/jwt-signing-key/versions/latest" {
		t.Fatalf("resource name = %q", client.name)
	}
}

func TestSecretVersionNameKeepsExplicitVersion(t *testing.T) {
	name := "projects/other/secrets/key/versions/3"
	if got := SecretVersionName("proj", name); got != name {
		t.Fatalf("SecretVersionName = %q", got)
	}
}
