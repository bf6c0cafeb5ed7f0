package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JonMunkholm/sheetsync/collection"
)

// monstersRow mirrors the output of GenerateRecordSource for monsterColumns.
type monstersRow struct {
	Name  string  `json:"name"`
	Hp    int     `json:"hp"`
	Speed float64 `json:"speed"`
}

func (r *monstersRow) Fields() []string {
	return []string{"name", "hp", "speed"}
}

func (r *monstersRow) SetField(name string, value any) bool {
	switch name {
	case "name":
		v, ok := value.(string)
		if !ok {
			return false
		}
		r.Name = v
		return true
	case "hp":
		v, ok := value.(int)
		if !ok {
			return false
		}
		r.Hp = v
		return true
	case "speed":
		v, ok := value.(float64)
		if !ok {
			return false
		}
		r.Speed = v
		return true
	}
	return false
}

type monstersCollection struct {
	Items []*monstersRow `json:"items"`
}

func (c *monstersCollection) GetItems() []collection.Record {
	items := make([]collection.Record, len(c.Items))
	for i, item := range c.Items {
		items[i] = item
	}
	return items
}

func (c *monstersCollection) Count() int { return len(c.Items) }
func (c *monstersCollection) Clear()     { c.Items = nil }

func (c *monstersCollection) Append(r collection.Record) error {
	item, ok := r.(*monstersRow)
	if !ok {
		return fmt.Errorf("%w: %T", collection.ErrWrongRecordType, r)
	}
	c.Items = append(c.Items, item)
	return nil
}

func monstersHandle() collection.Handle {
	return collection.Handle{
		Namespace:      DefaultNamespace,
		RecordType:     "MonstersRow",
		CollectionType: "MonstersCollection",
		NewRecord:      func() collection.Record { return &monstersRow{} },
		NewCollection:  func() collection.Collection { return &monstersCollection{} },
	}
}

// bossesHandle reuses the monsters types under a second sheet's names.
func bossesHandle() collection.Handle {
	h := monstersHandle()
	h.RecordType = "BossesRow"
	h.CollectionType = "BossesCollection"
	return h
}

func monstersRegistry() *collection.Registry {
	r := collection.NewRegistry()
	r.Register(monstersHandle())
	return r
}

// fakeFetcher serves canned rows per sheet.
type fakeFetcher struct {
	mu    sync.Mutex
	rows  map[string][][]string
	errs  map[string]error
	calls int

	block chan struct{} // when set, FetchTable waits on it
}

func (f *fakeFetcher) FetchTable(ctx context.Context, sourceID, sheetName string) ([][]string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := f.errs[sheetName]; err != nil {
		return nil, err
	}
	rows, ok := f.rows[sheetName]
	if !ok || len(rows) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", sheetName, ErrEmptyResult)
	}
	return rows, nil
}

// memStore is an in-memory ArtifactStore.
type memStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	folders  map[string]bool
	colls    map[string]collection.Collection
	dirty    map[string]collection.Collection
	saves    int
	writeErr error
	loadErr  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		files:   map[string][]byte{},
		folders: map[string]bool{},
		colls:   map[string]collection.Collection{},
		dirty:   map[string]collection.Collection{},
	}
}

func (m *memStore) EnsureFolder(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[path] = true
	return nil
}

func (m *memStore) WriteTextFile(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[path] = content
	return nil
}

func (m *memStore) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.colls[path]
	return ok, nil
}

func (m *memStore) LoadOrCreate(_ context.Context, path string, h collection.Handle) (collection.Collection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadErr[path]; err != nil {
		return nil, false, err
	}
	if c, ok := m.colls[path]; ok {
		return c, false, nil
	}
	return h.NewCollection(), true, nil
}

func (m *memStore) MarkDirty(path string, c collection.Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty[path] = c
}

func (m *memStore) Save(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p, c := range m.dirty {
		m.colls[p] = c
	}
	m.dirty = map[string]collection.Collection{}
	m.saves++
	return nil
}

// memProjects counts project saves.
type memProjects struct {
	saves int
	err   error
}

func (m *memProjects) Save(*Project) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	return nil
}

var errBoom = errors.New("boom")
