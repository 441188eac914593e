package protect

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"testing"
	"unicode/utf8"

	"github.com/dop251/goja"
	"golang.org/x/crypto/pbkdf2"

	"github.com/goliatone/go-garden/internal/markdown"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// clientRuntime loads the shipped browser routine into a JS runtime whose
// CryptoJS calls are served by Go primitives and whose DOM is a set of
// plain objects (testdata/dom.js).
func clientRuntime(t *testing.T, setup string) *goja.Runtime {
	t.Helper()
	vm := goja.New()
	if err := vm.Set("host", cryptoHost(vm)); err != nil {
		t.Fatalf("set host: %v", err)
	}
	for _, name := range []string{"testdata/cryptojs-host.js", "testdata/dom.js"} {
		src, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if _, err := vm.RunScript(name, string(src)); err != nil {
			t.Fatalf("run %s: %v", name, err)
		}
	}

	parser := markdown.NewGoldmarkParser(interfaces.ParseOptions{})
	marked := vm.NewObject()
	_ = marked.Set("parse", func(text string) (string, error) {
		out, err := parser.Parse([]byte(text))
		return string(out), err
	})
	if err := vm.GlobalObject().Set("marked", marked); err != nil {
		t.Fatalf("set marked: %v", err)
	}

	if setup != "" {
		if _, err := vm.RunScript("setup.js", setup); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	if _, err := vm.RunScript(ClientAssetName, string(ClientAsset())); err != nil {
		t.Fatalf("run %s: %v", ClientAssetName, err)
	}
	return vm
}

func cryptoHost(vm *goja.Runtime) *goja.Object {
	host := vm.NewObject()
	_ = host.Set("hexToBase64", func(h string) (string, error) {
		raw, err := hex.DecodeString(h)
		return base64.StdEncoding.EncodeToString(raw), err
	})
	_ = host.Set("base64ToHex", func(s string) (string, error) {
		raw, err := base64.StdEncoding.DecodeString(s)
		return hex.EncodeToString(raw), err
	})
	_ = host.Set("utf8ToHex", func(s string) string {
		return hex.EncodeToString([]byte(s))
	})
	_ = host.Set("hexToUtf8", func(h string) (string, error) {
		raw, err := hex.DecodeString(h)
		if err != nil {
			return "", err
		}
		if !utf8.Valid(raw) {
			return "", errors.New("malformed UTF-8 data")
		}
		return string(raw), nil
	})
	_ = host.Set("pbkdf2", func(password, salt string, iterations, size int) (string, error) {
		pw, err := hex.DecodeString(password)
		if err != nil {
			return "", err
		}
		s, err := hex.DecodeString(salt)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(pbkdf2.Key(pw, s, iterations, size, sha256.New)), nil
	})
	_ = host.Set("hmacSHA256", func(key, message string) (string, error) {
		k, err := hex.DecodeString(key)
		if err != nil {
			return "", err
		}
		m, err := hex.DecodeString(message)
		if err != nil {
			return "", err
		}
		mac := hmac.New(sha256.New, k)
		mac.Write(m)
		return hex.EncodeToString(mac.Sum(nil)), nil
	})
	// Bad padding yields an empty result, which the routine treats as failure.
	_ = host.Set("aesCBCDecrypt", func(key, iv, ciphertext string) (string, error) {
		k, err := hex.DecodeString(key)
		if err != nil {
			return "", err
		}
		v, err := hex.DecodeString(iv)
		if err != nil {
			return "", err
		}
		ct, err := hex.DecodeString(ciphertext)
		if err != nil {
			return "", err
		}
		block, err := aes.NewCipher(k)
		if err != nil {
			return "", err
		}
		if len(ct) == 0 || len(ct)%aes.BlockSize != 0 || len(v) != aes.BlockSize {
			return "", nil
		}
		plain := make([]byte, len(ct))
		cipher.NewCBCDecrypter(block, v).CryptBlocks(plain, ct)
		unpadded, ok := pkcs7Unpad(plain, aes.BlockSize)
		if !ok {
			return "", nil
		}
		return hex.EncodeToString(unpadded), nil
	})
	return host
}

func clientDecrypt(t *testing.T, vm *goja.Runtime, payload, password string) (string, bool) {
	t.Helper()
	decrypt, ok := goja.AssertFunction(vm.Get("GardenUnlock").ToObject(vm).Get("decrypt"))
	if !ok {
		t.Fatalf("GardenUnlock.decrypt is not a function")
	}
	out, err := decrypt(goja.Undefined(), vm.ToValue(payload), vm.ToValue(password))
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if goja.IsNull(out) || goja.IsUndefined(out) {
		return "", false
	}
	return out.String(), true
}

func TestClientRoutineOpensKnownEnvelope(t *testing.T) {
	vm := clientRuntime(t, "")

	got, ok := clientDecrypt(t, vm, knownEnvelope, "secret123")
	if !ok || got != "Hello **world**" {
		t.Fatalf("expected client to open known envelope, got %q ok=%t", got, ok)
	}
	if _, ok := clientDecrypt(t, vm, knownEnvelope, "secret124"); ok {
		t.Fatalf("client accepted a wrong password")
	}
}

func TestClientRoutineOpensCipherOutput(t *testing.T) {
	vm := clientRuntime(t, "")
	body := "Naïve café notes ✓\n\n- one\n- two"

	for _, iterations := range []int{MinIterations, 4096} {
		payload, err := NewCipher(WithIterations(iterations)).Encrypt(body, "correct horse")
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		got, ok := clientDecrypt(t, vm, payload, "correct horse")
		if !ok || got != body {
			t.Fatalf("iterations %d: client returned %q ok=%t", iterations, got, ok)
		}
		if _, ok := clientDecrypt(t, vm, payload, "correct horse "); ok {
			t.Fatalf("iterations %d: client accepted a wrong password", iterations)
		}

		tampered := []byte(payload)
		tampered[len(tampered)-3] ^= 1
		if _, ok := clientDecrypt(t, vm, string(tampered), "correct horse"); ok {
			t.Fatalf("iterations %d: client accepted a tampered payload", iterations)
		}
	}

	for _, malformed := range []string{"", "g1", "g2.1000.a.b.c.d", "g1.zero.a.b.c.d"} {
		if _, ok := clientDecrypt(t, vm, malformed, "pw"); ok {
			t.Fatalf("client accepted malformed payload %q", malformed)
		}
	}
}

func TestClientRoutineDrivesGate(t *testing.T) {
	payload, err := testCipher().Encrypt("Hello **world**", "secret123")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	vm := clientRuntime(t, "var gate = newGate(\"markdown\", "+strconv.Quote(payload)+");")

	eval := func(expr string) goja.Value {
		t.Helper()
		v, err := vm.RunString(expr)
		if err != nil {
			t.Fatalf("eval %s: %v", expr, err)
		}
		return v
	}

	if state := eval(`gate.root.getAttribute("data-state")`).String(); state != "locked" {
		t.Fatalf("expected locked gate after load, got %q", state)
	}

	if state := eval(`gate.submit("wrong")`).String(); state != "locked" {
		t.Fatalf("expected wrong password to relock, got %q", state)
	}
	if eval(`gate.error.hidden`).ToBoolean() || !eval(`gate.target.hidden`).ToBoolean() {
		t.Fatalf("expected visible error and hidden content after a wrong password")
	}

	if state := eval(`gate.submit("secret123")`).String(); state != "unlocked" {
		t.Fatalf("expected unlock, got %q", state)
	}
	html := eval(`gate.target.innerHTML`).String()
	if html != "<p>Hello <strong>world</strong></p>\n" {
		t.Fatalf("unexpected rendered content %q", html)
	}
	if eval(`gate.target.hidden`).ToBoolean() || !eval(`gate.form.hidden`).ToBoolean() || !eval(`gate.error.hidden`).ToBoolean() {
		t.Fatalf("expected content shown, form hidden and error cleared")
	}
	if eval(`gate.input.value`).String() != "" {
		t.Fatalf("password input must be cleared after submit")
	}
}
