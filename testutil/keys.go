package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/asn1"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// Keys generated once per test binary.
var (
	TestK1Key *btcec.PrivateKey
	TestR1Key *ecdsa.PrivateKey
)

func init() {
	var err error
	TestK1Key, err = btcec.NewPrivateKey()
	if err != nil {
		panic(err)
	}
	TestR1Key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
}

// K1PubKey returns the compressed secp256k1 test public key.
func K1PubKey() []byte {
	return TestK1Key.PubKey().SerializeCompressed()
}

// R1PubKey returns the compressed secp256r1 test public key.
func R1PubKey() []byte {
	return elliptic.MarshalCompressed(elliptic.P256(), TestR1Key.X, TestR1Key.Y)
}

// SignK1 signs digest with TestK1Key and returns r||s.
func SignK1(digest []byte) []byte {
	var der struct{ R, S *big.Int }
	if _, err := asn1.Unmarshal(btcecdsa.Sign(TestK1Key, digest).Serialize(), &der); err != nil {
		panic(err)
	}
	return concatRS(der.R, der.S)
}

// SignR1 signs digest with TestR1Key and returns r||s.
func SignR1(digest []byte) []byte {
	r, s, err := ecdsa.Sign(rand.Reader, TestR1Key, digest)
	if err != nil {
		panic(err)
	}
	return concatRS(r, s)
}

func concatRS(r, s *big.Int) []byte {
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig
}
