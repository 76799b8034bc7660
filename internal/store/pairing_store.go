package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Talha76/Together/internal/domain"
)

const pairingFile = "pairing.json.enc"

// Pairing is everything needed to rejoin a room without retyping the code.
// Secret is the base64 form of the derived shared secret; the code itself is
// never persisted.
type Pairing struct {
	RelayURL    string `json:"relay_url"`
	DisplayName string `json:"display_name"`
	Secret      string `json:"secret"`
	CreatedUTC  int64  `json:"created_utc"`
}

// SharedSecret decodes the pairing's stored secret.
func (p Pairing) SharedSecret() (domain.SharedSecret, error) {
	return domain.ParseSharedSecret(p.Secret)
}

// PairingFileStore keeps the pairing encrypted on disk under dir.
type PairingFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPairingFileStore returns a store rooted at dir.
func NewPairingFileStore(dir string) *PairingFileStore {
	return &PairingFileStore{dir: dir}
}

// Save seals p under passphrase and writes it atomically, replacing any
// previous pairing.
func (s *PairingFileStore) Save(passphrase string, p Pairing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ensureDir(s.dir); err != nil {
		return err
	}
	if p.CreatedUTC == 0 {
		p.CreatedUTC = time.Now().UTC().Unix()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	N, r, pp := scryptParamsDefault()
	blob, err := encrypt(passphrase, raw, N, r, pp)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, pairingFile), blob, 0o600)
}

// Load opens the saved pairing. A missing file surfaces as ErrNoPairing, a
// bad passphrase as ErrWrongPassphrase.
func (s *PairingFileStore) Load(passphrase string) (Pairing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok, err := readFile(filepath.Join(s.dir, pairingFile))
	if err != nil {
		return Pairing{}, err
	}
	if !ok {
		return Pairing{}, domain.ErrNoPairing
	}
	raw, err := decrypt(passphrase, blob)
	if err != nil {
		return Pairing{}, err
	}
	var p Pairing
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pairing{}, err
	}
	return p, nil
}

// Exists reports whether a pairing file is present, without touching the
// passphrase.
func (s *PairingFileStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(filepath.Join(s.dir, pairingFile))
	return err == nil
}

// Delete removes the saved pairing. Deleting a pairing that does not exist
// is not an error.
func (s *PairingFileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(filepath.Join(s.dir, pairingFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
