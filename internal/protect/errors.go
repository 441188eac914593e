package protect

import "errors"

var (
	// ErrEncryptionInput reports an empty password or plaintext at encrypt
	// time. The item is skipped.
	ErrEncryptionInput = errors.New("protect: password and plaintext must not be empty")
	// ErrDecrypt reports a wrong password or a tampered payload.
	ErrDecrypt = errors.New("protect: decryption failed")
	// ErrMalformedPayload reports ciphertext that is not a g1 envelope.
	ErrMalformedPayload = errors.New("protect: malformed ciphertext")
	// ErrNotProtected is returned when assembly is requested without a password.
	ErrNotProtected = errors.New("protect: item has no password")
	// ErrPasswordLeak reports a rendered fragment that contains the password
	// outside the ciphertext.
	ErrPasswordLeak = errors.New("protect: password found in rendered output")
	// ErrGateMarkup reports a page without a usable gate.
	ErrGateMarkup = errors.New("protect: protected markup not found")
)
