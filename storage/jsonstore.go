// Package storage maps the in-memory stores to two flat JSON documents.
// Saves go through a temp file and an atomic rename so a crash mid-write
// never leaves a half-written document behind.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go-backoffice/models"
)

// LoadLedger reads the ledger document. A missing file comes back as an
// empty document with the underlying fs.ErrNotExist, so the caller can
// write an initial document; a malformed file comes back as an empty
// document with a CorruptData error.
func LoadLedger(path string) (LedgerDocument, error) {
	return load[LedgerDocument](path)
}

// SaveLedger overwrites the ledger document in one atomic step.
func SaveLedger(path string, doc LedgerDocument) error {
	return save(path, doc)
}

// LoadIdentity reads the identity document. Error behavior matches
// LoadLedger.
func LoadIdentity(path string) (IdentityDocument, error) {
	return load[IdentityDocument](path)
}

// SaveIdentity overwrites the identity document in one atomic step.
func SaveIdentity(path string, doc IdentityDocument) error {
	return save(path, doc)
}

func load[T any](path string) (T, error) {
	var doc T
	f, err := os.Open(path)
	if err != nil {
		return doc, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		var empty T
		return empty, models.E(models.ErrCorruptData, "cannot parse %s: %v", path, err)
	}
	return doc, nil
}

func save(path string, doc any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	// Indented output keeps the documents hand-inspectable.
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
