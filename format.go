package protect

// Ciphertext framing (the bytes that become EncryptedPayload.C, base64
// encoded at the JSON boundary):
//
//	[flag:1][nonce:24][secretbox(innerIdentifierLen:2 + innerIdentifier + plaintext)]
//
// Flag byte values:
//
//	0x00 = no compression
//	0x01 = zstd compressed
//
// The inner identifier ("{table}/{column}") is authenticated by
// secretbox: on open it
// must match the identifier the caller decrypts against, so a payload
// cannot be silently relabeled to a different column.

const (
	flagNoCompression byte = 0x00
	flagZstd          byte = 0x01

	nonceSize = 24
)

// formatCiphertext assembles the outer ciphertext framing.
// Returns: [flag:1][nonce:24][sealed]
func formatCiphertext(flag byte, nonce [nonceSize]byte, sealed []byte) []byte {
	out := make([]byte, 0, 1+nonceSize+len(sealed))
	out = append(out, flag)
	out = append(out, nonce[:]...)
	out = append(out, sealed...)
	return out
}

// parseCiphertext splits the outer framing into flag, nonce, and the
// still-sealed secretbox ciphertext.
func parseCiphertext(data []byte) (flag byte, nonce [nonceSize]byte, sealed []byte, err error) {
	minSize := 1 + nonceSize + 1
	if len(data) < minSize {
		err = ErrInvalidFormat
		return
	}
	flag = data[0]
	copy(nonce[:], data[1:1+nonceSize])
	sealed = data[1+nonceSize:]
	return
}

// formatInnerPlaintext prepends a length-prefixed identifier to the
// plaintext; both are authenticated once sealed by secretbox.
// Returns: [idLen:2][identifier][plaintext]
func formatInnerPlaintext(identifier string, plaintext []byte) []byte {
	idBytes := []byte(identifier)
	idLen := len(idBytes)

	out := make([]byte, 0, 2+idLen+len(plaintext))
	out = append(out, byte(idLen>>8), byte(idLen))
	out = append(out, idBytes...)
	out = append(out, plaintext...)
	return out
}

// parseInnerPlaintext extracts the identifier and actual plaintext from the
// inner (decrypted, decompressed) format.
func parseInnerPlaintext(data []byte) (identifier string, plaintext []byte, err error) {
	if len(data) < 2 {
		err = ErrInvalidFormat
		return
	}

	idLen := int(data[0])<<8 | int(data[1])
	if len(data) < 2+idLen {
		err = ErrInvalidFormat
		return
	}

	identifier = string(data[2 : 2+idLen])
	plaintext = data[2+idLen:]
	return
}
