package protect

import (
	"errors"
	"fmt"
)

// Kind classifies a Failure so callers can dispatch programmatically
// without string-matching error messages.
type Kind int

const (
	// KindClientInitError indicates invalid configuration/credentials or a
	// schema build failure at client construction time.
	KindClientInitError Kind = iota
	// KindConfigError indicates a query type incompatible with a column's
	// configured indexes, or a missing index builder method.
	KindConfigError
	// KindSchemaError indicates a payload refers to a table/column absent
	// from the loaded schema.
	KindSchemaError
	// KindEncryptionError indicates a primitive or key-service failure
	// during encryption.
	KindEncryptionError
	// KindDecryptionError indicates a primitive or key-service failure
	// during decryption, including lock-context mismatch.
	KindDecryptionError
	// KindLockContextError indicates the identity exchange failed or the
	// session token was malformed.
	KindLockContextError
	// KindKmsError indicates a transport-level failure to the key service.
	KindKmsError
	// KindCanceled indicates the caller canceled the operation's context.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindClientInitError:
		return "ClientInitError"
	case KindConfigError:
		return "ConfigError"
	case KindSchemaError:
		return "SchemaError"
	case KindEncryptionError:
		return "EncryptionError"
	case KindDecryptionError:
		return "DecryptionError"
	case KindLockContextError:
		return "LockContextError"
	case KindKmsError:
		return "KmsError"
	case KindCanceled:
		return "Canceled"
	default:
		return "UnknownError"
	}
}

// Failure is the error shape carried by a Result when an Operation does
// not succeed. It is never returned alongside data: Result is a strict
// Success-xor-Failure tagged value.
type Failure struct {
	Kind    Kind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("protect: %s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("protect: %s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

// newFailure builds a Failure, optionally wrapping a cause.
func newFailure(kind Kind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Cause: cause}
}

// Sentinel errors for conditions that can be checked with errors.Is,
// independent of which Kind a given Failure carries.
var (
	// ErrDuplicatePath indicates two leaves flattened to the same dotted
	// path while building a Table.
	ErrDuplicatePath = errors.New("protect: duplicate column path")

	// ErrInvalidIndexConfig indicates mutually exclusive index options were
	// requested on the same column (e.g. SearchableJSON with OrderAndRange).
	ErrInvalidIndexConfig = errors.New("protect: invalid column index configuration")

	// ErrColumnNotFound indicates a dotted path does not resolve to any
	// column in the table.
	ErrColumnNotFound = errors.New("protect: column not found")

	// ErrNilSchema indicates a client was built with no Table schemas.
	ErrNilSchema = errors.New("protect: at least one schema is required")

	// ErrIndexNotConfigured indicates a query type was requested against a
	// column whose configuration does not enable the corresponding index.
	ErrIndexNotConfigured = errors.New("protect: requested index is not configured on this column")

	// ErrKeyNotFound indicates a key service could not resolve a requested
	// identifier.
	ErrKeyNotFound = errors.New("protect: key not found")

	// ErrInvalidFormat indicates a ciphertext or composite-literal payload
	// is malformed.
	ErrInvalidFormat = errors.New("protect: invalid payload format")

	// ErrDecryptionFailed indicates AEAD authentication failed — wrong key,
	// wrong identity binding, or corrupted ciphertext.
	ErrDecryptionFailed = errors.New("protect: decryption failed")

	// ErrIdentifierMismatch indicates the identification embedded in a
	// ciphertext does not match the table/column it was decrypted against.
	ErrIdentifierMismatch = errors.New("protect: identifier mismatch")

	// ErrLockContextUnbound indicates an operation required a Bound
	// LockContext but received one that had not completed Identify.
	ErrLockContextUnbound = errors.New("protect: lock context is not bound to an identity")

	// ErrDecompressionFailed indicates zstd decompression failed or
	// exceeded the maximum allowed size.
	ErrDecompressionFailed = errors.New("protect: decompression failed")
)
