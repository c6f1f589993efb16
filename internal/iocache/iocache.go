// Package iocache persists raw contribution records and archived metric snapshots.
package iocache

import (
	"sync"

	"github.com/huangsam/gitpulse/internal/contract"
)

// StoreManagerImpl manages the record and snapshot stores.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	records      contract.RecordStore
	snapshots    contract.SnapshotStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetRecordStore returns the RecordStore.
func (mgr *StoreManagerImpl) GetRecordStore() contract.RecordStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.records
}

// GetSnapshotStore returns the SnapshotStore.
func (mgr *StoreManagerImpl) GetSnapshotStore() contract.SnapshotStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.snapshots
}
