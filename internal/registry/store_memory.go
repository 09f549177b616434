package registry

import (
	"context"
	"fmt"
	"sync"

	"eduledger/internal/domain"
	"eduledger/pkg/platform/sentinel"
)

// InMemoryStore keeps ledger state in two maps guarded by one lock, mirroring
// the persisted layout: (id → record) and (docHash → id). It favors clarity
// over performance and backs both tests and infrastructure-free deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.CertificateRecord
	byHash  map[domain.DocHash]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]domain.CertificateRecord),
		byHash:  make(map[domain.DocHash]string),
	}
}

func (s *InMemoryStore) Get(_ context.Context, id string) (domain.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[id]; ok {
		return record, nil
	}
	return domain.CertificateRecord{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) GetByHash(_ context.Context, hash domain.DocHash) (domain.CertificateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return domain.CertificateRecord{}, sentinel.ErrNotFound
	}
	record, ok := s.records[id]
	if !ok || record.DocHash != hash {
		// Stale index entries must not surface as hits.
		return domain.CertificateRecord{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) Insert(_ context.Context, record domain.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(record)
}

func (s *InMemoryStore) InsertBatch(_ context.Context, records []domain.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch against committed state and against itself
	// before writing anything, so a late collision cannot leave a partial
	// batch behind.
	seenIDs := make(map[string]struct{}, len(records))
	seenHashes := make(map[domain.DocHash]struct{}, len(records))
	for _, record := range records {
		if _, ok := s.records[record.ID]; ok {
			return fmt.Errorf("certificate %q: %w", record.ID, sentinel.ErrAlreadyExists)
		}
		if _, ok := s.byHash[record.DocHash]; ok {
			return fmt.Errorf("certificate %q document hash: %w", record.ID, sentinel.ErrAlreadyExists)
		}
		if _, ok := seenIDs[record.ID]; ok {
			return fmt.Errorf("certificate %q duplicated in batch: %w", record.ID, sentinel.ErrAlreadyExists)
		}
		if _, ok := seenHashes[record.DocHash]; ok {
			return fmt.Errorf("certificate %q document hash duplicated in batch: %w", record.ID, sentinel.ErrAlreadyExists)
		}
		seenIDs[record.ID] = struct{}{}
		seenHashes[record.DocHash] = struct{}{}
	}
	for _, record := range records {
		if err := s.insertLocked(record); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryStore) MarkRevoked(_ context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if record.Revoked {
		return sentinel.ErrAlreadyRevoked
	}
	record.Revoked = true
	record.RevokedReason = reason
	s.records[id] = record
	return nil
}

// insertLocked writes both the primary entry and the index entry under the
// already-held lock, so readers see either both or neither.
func (s *InMemoryStore) insertLocked(record domain.CertificateRecord) error {
	if _, ok := s.records[record.ID]; ok {
		return fmt.Errorf("certificate %q: %w", record.ID, sentinel.ErrAlreadyExists)
	}
	if _, ok := s.byHash[record.DocHash]; ok {
		return fmt.Errorf("certificate %q document hash: %w", record.ID, sentinel.ErrAlreadyExists)
	}
	s.records[record.ID] = record
	s.byHash[record.DocHash] = record.ID
	return nil
}
