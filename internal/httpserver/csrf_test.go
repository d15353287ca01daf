package httpserver

import (
	"fmt"
	"testing"
	"time"
)

func TestCSRFSignerRoundtrip(t *testing.T) {
	signer := newCSRFSigner("secret")

	token := signer.issue("staff-1")
	if !signer.verify("staff-1", token) {
		t.Fatal("expected issued token to verify")
	}
	if signer.verify("staff-2", token) {
		t.Fatal("expected token bound to another subject to fail")
	}
	if signer.verify("staff-1", token+"x") {
		t.Fatal("expected tampered mac to fail")
	}
}

func TestCSRFSignerRejectsOtherSecret(t *testing.T) {
	token := newCSRFSigner("secret-a").issue("staff-1")
	if newCSRFSigner("secret-b").verify("staff-1", token) {
		t.Fatal("expected token signed with another secret to fail")
	}
}

func TestCSRFSignerRejectsExpired(t *testing.T) {
	signer := newCSRFSigner("secret")

	exp := time.Now().Add(-time.Minute).Unix()
	token := fmt.Sprintf("%d.%s", exp, signer.mac("staff-1", exp))
	if signer.verify("staff-1", token) {
		t.Fatal("expected expired token to fail")
	}
}

func TestCSRFSignerRejectsGarbage(t *testing.T) {
	signer := newCSRFSigner("secret")
	for _, token := range []string{"", "no-dot", "notanumber.mac", "123"} {
		if signer.verify("staff-1", token) {
			t.Fatalf("expected %q to fail verification", token)
		}
	}
}
