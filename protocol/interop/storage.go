package interop

import (
	"github.com/neo-project/neo-sub032/protocol/interop/storage"
	"github.com/neo-project/neo-sub032/protocol/vm"
	"github.com/neo-project/neo-sub032/protocol/vm/stackitem"
)

var storageServices = []builtin{
	{"System.Storage.Get", 1 << 15, storageGet},
	{"System.Storage.Put", 1 << 15, storagePut},
	{"System.Storage.Delete", 1 << 15, storageDelete},
}

// storageGet pushes the value stored under the key, or Null.
func storageGet(h *Host, e *vm.Engine) error {
	if h.store == nil {
		return ErrNoStorage
	}
	key, err := popBytes(e, storage.MaxKeySize)
	if err != nil {
		return err
	}
	v, ok, err := h.store.Get(h.ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		e.Push(stackitem.Null{})
		return nil
	}
	e.Push(stackitem.NewByteString(v))
	return nil
}

// storagePut pops the key, then the value. Writing is charged
// per value byte on top of the service price.
func storagePut(h *Host, e *vm.Engine) error {
	if h.store == nil {
		return ErrNoStorage
	}
	key, err := popBytes(e, storage.MaxKeySize)
	if err != nil {
		return err
	}
	value, err := popBytes(e, storage.MaxValueSize)
	if err != nil {
		return err
	}
	if err := e.AddGas(int64(len(key)+len(value)) * storagePerByte); err != nil {
		return err
	}
	return h.store.Put(h.ctx, key, value)
}

func storageDelete(h *Host, e *vm.Engine) error {
	if h.store == nil {
		return ErrNoStorage
	}
	key, err := popBytes(e, storage.MaxKeySize)
	if err != nil {
		return err
	}
	return h.store.Delete(h.ctx, key)
}

const storagePerByte = 1 << 5
