// Package credential defines the versioned, persisted credential record:
// the salt, IV, auth tag, and ciphertext that together hold the encrypted
// wallet secret at rest, plus its transport codec.
package credential

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/walletvault/internal/common"
	"github.com/dmitrijs2005/walletvault/internal/cryptox"
)

// CurrentVersion is the record schema version produced by this build.
const CurrentVersion = 1

// Record bundles everything needed to attempt a decryption of the wallet
// secret. A record is created whole and replaced whole; fields are never
// mutated individually, and (Salt, IV) are fresh on every encryption.
type Record struct {
	Version    int
	Salt       []byte // cryptox.SaltSize bytes
	IV         []byte // cryptox.IVSize bytes
	AuthTag    []byte // cryptox.TagSize bytes
	Ciphertext []byte
}

// encodedRecord is the hex-encoded wire/storage form of a Record.
type encodedRecord struct {
	Version       int    `json:"version"`
	Salt          string `json:"salt"`
	IV            string `json:"iv"`
	AuthTag       string `json:"authTag"`
	EncryptedData string `json:"encryptedData"`
}

// Validate checks structural invariants of the record.
func (r *Record) Validate() error {
	if r.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", common.ErrUnsupportedVersion, r.Version)
	}
	if len(r.Salt) != cryptox.SaltSize {
		return fmt.Errorf("%w: salt length %d", common.ErrCorruptRecord, len(r.Salt))
	}
	if len(r.IV) != cryptox.IVSize {
		return fmt.Errorf("%w: iv length %d", common.ErrCorruptRecord, len(r.IV))
	}
	if len(r.AuthTag) != cryptox.TagSize {
		return fmt.Errorf("%w: auth tag length %d", common.ErrCorruptRecord, len(r.AuthTag))
	}
	if len(r.Ciphertext) == 0 {
		return fmt.Errorf("%w: empty ciphertext", common.ErrCorruptRecord)
	}
	return nil
}

// Equal reports whether two records are identical field by field.
func (r *Record) Equal(o *Record) bool {
	return r.Version == o.Version &&
		bytes.Equal(r.Salt, o.Salt) &&
		bytes.Equal(r.IV, o.IV) &&
		bytes.Equal(r.AuthTag, o.AuthTag) &&
		bytes.Equal(r.Ciphertext, o.Ciphertext)
}

// Encode serializes the record to its hex-encoded JSON storage form.
// Invalid records are rejected rather than written out.
func Encode(r *Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	e := encodedRecord{
		Version:       r.Version,
		Salt:          hex.EncodeToString(r.Salt),
		IV:            hex.EncodeToString(r.IV),
		AuthTag:       hex.EncodeToString(r.AuthTag),
		EncryptedData: hex.EncodeToString(r.Ciphertext),
	}
	return json.Marshal(e)
}

// Decode parses the storage form back into a Record. Unknown versions and
// malformed fields are rejected explicitly; decode(encode(r)) == r for
// every valid record.
func Decode(data []byte) (*Record, error) {
	var e encodedRecord
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptRecord, err)
	}
	if e.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", common.ErrUnsupportedVersion, e.Version)
	}

	r := &Record{Version: e.Version}
	var err error
	if r.Salt, err = hex.DecodeString(e.Salt); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", common.ErrCorruptRecord, err)
	}
	if r.IV, err = hex.DecodeString(e.IV); err != nil {
		return nil, fmt.Errorf("%w: iv: %v", common.ErrCorruptRecord, err)
	}
	if r.AuthTag, err = hex.DecodeString(e.AuthTag); err != nil {
		return nil, fmt.Errorf("%w: auth tag: %v", common.ErrCorruptRecord, err)
	}
	if r.Ciphertext, err = hex.DecodeString(e.EncryptedData); err != nil {
		return nil, fmt.Errorf("%w: encrypted data: %v", common.ErrCorruptRecord, err)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
