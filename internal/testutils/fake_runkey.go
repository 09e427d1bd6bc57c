package testutils

import "sync"

// FakeRunKey is an in-memory platform.RunKey
type FakeRunKey struct {
	mu     sync.Mutex
	values map[string]string

	SetErr    error
	DeleteErr error
}

func NewFakeRunKey() *FakeRunKey {
	return &FakeRunKey{values: map[string]string{}}
}

func (k *FakeRunKey) Set(name, command string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.SetErr != nil {
		return k.SetErr
	}
	k.values[name] = command
	return nil
}

func (k *FakeRunKey) Delete(name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.DeleteErr != nil {
		return k.DeleteErr
	}
	delete(k.values, name)
	return nil
}

func (k *FakeRunKey) Get(name string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	command, ok := k.values[name]
	return command, ok, nil
}

// Value returns the raw stored command for name
func (k *FakeRunKey) Value(name string) (string, bool) {
	command, ok, _ := k.Get(name)
	return command, ok
}
