package keystore

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestKeyStore(t *testing.T) {
	store := MockStore()
	pemPubKey := string(store.PubKeyPem())

	if MockPubKey != pemPubKey {
		t.Errorf(
			"mock pem public key not correct expected: %s actual: %s",
			MockPubKey,
			pemPubKey,
		)
	}
}

func TestSignRequest(t *testing.T) {
	store := MockStore()
	body := []byte(`{"type": "Update"}`)

	req, err := http.NewRequest(http.MethodPost, "https://c.example/inbox", bytes.NewReader(body))
	if err != nil {
		t.Errorf("could not build request: %v", err)
		t.FailNow()
	}

	if err := store.SignRequest(req, body); err != nil {
		t.Errorf("could not sign request: %v", err)
		t.FailNow()
	}

	bodyDigest := sha256.Sum256(body)
	wantDigest := "SHA-256=" + base64.StdEncoding.EncodeToString(bodyDigest[:])
	if req.Header.Get("Digest") != wantDigest {
		t.Errorf("digest header expected %s got: %s", wantDigest, req.Header.Get("Digest"))
	}

	if req.Header.Get("Date") == "" {
		t.Errorf("signing must set a Date header")
	}

	sigHeader := req.Header.Get("Signature")
	if !strings.Contains(sigHeader, `keyId="https://localhost/actor#main-key"`) {
		t.Errorf("signature header missing key id: %s", sigHeader)
	}

	// Verify the signature with the public half of the mock keypair.
	var sigB64 string
	for _, part := range strings.Split(sigHeader, ",") {
		if strings.HasPrefix(part, `signature="`) {
			sigB64 = strings.TrimSuffix(strings.TrimPrefix(part, `signature="`), `"`)
		}
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		t.Errorf("could not decode signature: %v", err)
		t.FailNow()
	}

	signingString := fmt.Sprintf(
		"(request-target): post /inbox\ndate: %s\ndigest: %s",
		req.Header.Get("Date"),
		wantDigest,
	)
	hashed := sha256.Sum256([]byte(signingString))
	if err := rsa.VerifyPKCS1v15(store.pubKey, crypto.SHA256, hashed[:], sig); err != nil {
		t.Errorf("signature did not verify: %v", err)
	}
}
