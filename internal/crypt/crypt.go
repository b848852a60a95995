// Package crypt selects a kcp.BlockCrypt cipher suite and derives its
// key from a pre-shared secret via PBKDF2, securing the helper-to-
// repair-coordinator channel the same way kcptun secures its tunnel
// payload (std/crypt.go, client/main.go).
package crypt

import (
	"crypto/sha1"
	"log"

	kcp "github.com/xtaci/kcp-go/v5"
	"golang.org/x/crypto/pbkdf2"
)

// SALT matches the teacher's constant (client/main.go, server/main.go):
// it is a fixed, non-secret PBKDF2 salt — the pre-shared key is the
// actual secret.
const SALT = "kcp-go"

// cryptMethod maps a cipher name to its constructor and required key
// size, the same lookup-table idiom as std/crypt.go's cryptMethods.
type cryptMethod struct {
	keySize int
	build   func(key []byte) (kcp.BlockCrypt, error)
}

var cryptMethods = map[string]cryptMethod{
	"null":        {0, func(key []byte) (kcp.BlockCrypt, error) { return nil, nil }},
	"sm4":         {16, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewSM4BlockCrypt(key) }},
	"tea":         {16, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewTEABlockCrypt(key) }},
	"xor":         {0, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewSimpleXORBlockCrypt(key) }},
	"none":        {0, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewNoneBlockCrypt(key) }},
	"aes-128":     {16, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewAESBlockCrypt(key) }},
	"aes-192":     {24, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewAESBlockCrypt(key) }},
	"blowfish":    {0, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewBlowfishBlockCrypt(key) }},
	"twofish":     {0, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewTwofishBlockCrypt(key) }},
	"cast5":       {16, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewCast5BlockCrypt(key) }},
	"3des":        {24, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewTripleDESBlockCrypt(key) }},
	"xtea":        {16, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewXTEABlockCrypt(key) }},
	"salsa20":     {0, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewSalsa20BlockCrypt(key) }},
	"aes-128-gcm": {16, func(key []byte) (kcp.BlockCrypt, error) { return kcp.NewAESGCMCrypt(key) }},
}

// DeriveKey expands a pre-shared secret into a 32-byte key via
// PBKDF2-SHA1, the same parameters client/main.go and server/main.go
// use for the tunnel session key.
func DeriveKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), []byte(SALT), 4096, 32, sha1.New)
}

// Select builds the named cipher's BlockCrypt, falling back to AES on
// an unknown name or a construction failure — the same fallback
// posture as std/crypt.go's SelectBlockCrypt — and reports the
// effective name actually in use.
func Select(method string, key []byte) (kcp.BlockCrypt, string) {
	if m, ok := cryptMethods[method]; ok {
		k := key
		if m.keySize > 0 && len(key) >= m.keySize {
			k = key[:m.keySize]
		}
		block, err := m.build(k)
		if err != nil {
			log.Printf("crypt: failed to create %s cipher: %v, falling back to aes", method, err)
			block, _ = kcp.NewAESBlockCrypt(key)
			return block, "aes"
		}
		return block, method
	}
	block, err := kcp.NewAESBlockCrypt(key)
	if err != nil {
		log.Printf("crypt: failed to create default aes cipher: %v", err)
	}
	return block, "aes"
}
