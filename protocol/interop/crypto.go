package interop

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"github.com/neo-project/neo-sub032/errors"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

// NamedCurveHash selects the curve and message hash of
// System.Crypto.VerifyWithECDsa.
type NamedCurveHash int64

const (
	Secp256k1SHA256    NamedCurveHash = 22
	Secp256r1SHA256    NamedCurveHash = 23
	Secp256k1Keccak256 NamedCurveHash = 122
	Secp256r1Keccak256 NamedCurveHash = 123
)

// MaxHashInput bounds the data accepted by the hash services.
const MaxHashInput = 1 << 20

var ErrBadCurve = errors.New("unsupported curve")

var cryptoServices = []builtin{
	{"System.Crypto.Sha256", 1 << 15, hashService(Sha256)},
	{"System.Crypto.Ripemd160", 1 << 15, hashService(Ripemd160)},
	{"System.Crypto.Sha3", 1 << 15, hashService(Sha3)},
	{"System.Crypto.Keccak256", 1 << 15, hashService(Keccak256)},
	{"System.Crypto.VerifyWithECDsa", 1 << 15, cryptoVerifyWithECDsa},
}

// Sha256 returns the SHA-256 digest of b.
func Sha256(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

// Ripemd160 returns the RIPEMD-160 digest of b.
func Ripemd160(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}

// Sha3 returns the SHA3-256 digest of b.
func Sha3(b []byte) []byte {
	h := sha3.Sum256(b)
	return h[:]
}

// Keccak256 returns the legacy Keccak-256 digest of b,
// as used by Ethereum.
func Keccak256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

func hashService(f func([]byte) []byte) Func {
	return func(h *Host, e *vm.Engine) error {
		b, err := popBytes(e, MaxHashInput)
		if err != nil {
			return err
		}
		e.Push(stackitem.NewByteString(f(b)))
		return nil
	}
}

// VerifyWithECDsa checks a 64-byte r||s signature of msg. Keys are
// SEC1 encoded, compressed or not.
func VerifyWithECDsa(msg, pubkey, sig []byte, curve NamedCurveHash) (bool, error) {
	var digest []byte
	switch curve {
	case Secp256k1SHA256, Secp256r1SHA256:
		digest = Sha256(msg)
	case Secp256k1Keccak256, Secp256r1Keccak256:
		digest = Keccak256(msg)
	default:
		return false, errors.WithDetailf(ErrBadCurve, "%d", curve)
	}
	if len(sig) != 64 {
		return false, nil
	}

	switch curve {
	case Secp256k1SHA256, Secp256k1Keccak256:
		pk, err := btcec.ParsePubKey(pubkey)
		if err != nil {
			return false, errors.Sub(ErrBadArgument, err)
		}
		var r, s btcec.ModNScalar
		if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) {
			return false, nil
		}
		return btcecdsa.NewSignature(&r, &s).Verify(digest, pk), nil
	}

	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), pubkey)
	if x == nil {
		x, y = elliptic.Unmarshal(elliptic.P256(), pubkey)
	}
	if x == nil {
		return false, errors.WithDetail(ErrBadArgument, "invalid secp256r1 public key")
	}
	pk := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	return ecdsa.Verify(pk, digest, r, s), nil
}

// cryptoVerifyWithECDsa pops the message, public key, signature
// and curve.
func cryptoVerifyWithECDsa(h *Host, e *vm.Engine) error {
	msg, err := popBytes(e, MaxHashInput)
	if err != nil {
		return err
	}
	pubkey, err := popBytes(e, 65)
	if err != nil {
		return err
	}
	sig, err := popBytes(e, 64)
	if err != nil {
		return err
	}
	curve, err := popInt64(e)
	if err != nil {
		return err
	}
	ok, err := VerifyWithECDsa(msg, pubkey, sig, NamedCurveHash(curve))
	if err != nil {
		return err
	}
	e.Push(stackitem.Boolean(ok))
	return nil
}
