package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DocumentMeta is the `.rain` file's identity block.
type DocumentMeta struct {
	Name          string `yaml:"name"`
	Author        string `yaml:"author"`
	SchemaVersion int    `yaml:"schema_version"`
}

// CurrentSchemaVersion is bumped whenever Document's shape changes in a
// way that requires migration logic in ParseDocument.
const CurrentSchemaVersion = 1

// Document is the full `.rain` persisted state (spec.md §6).
type Document struct {
	Meta    DocumentMeta  `yaml:"meta"`
	Master  MasterConfig  `yaml:"master"`
	Impacts ImpactsConfig `yaml:"impacts"`
	Sheets  []SheetConfig `yaml:"sheets"`
	Winds   []WindConfig  `yaml:"winds"`
	Thunder ThunderConfig `yaml:"thunder"`
	Matrix  MatrixConfig  `yaml:"matrix"`
	Texture TextureConfig `yaml:"texture"`
	Sfx     SfxConfig     `yaml:"sfx"`
}

// ToDocument snapshots the live config into a persistable document.
func (c *Config) ToDocument(name, author string) Document {
	return Document{
		Meta: DocumentMeta{
			Name:          name,
			Author:        author,
			SchemaVersion: CurrentSchemaVersion,
		},
		Master:  c.Master,
		Impacts: c.Impacts,
		Sheets:  append([]SheetConfig(nil), c.Sheets...),
		Winds:   append([]WindConfig(nil), c.Winds...),
		Thunder: c.Thunder,
		Matrix:  c.Matrix,
		Texture: c.Texture,
		Sfx:     c.Sfx,
	}
}

// ApplyDocument overlays a parsed document onto a base config (materials
// and sample rate are not part of the document and are left untouched).
func (c *Config) ApplyDocument(d Document) {
	c.Master = d.Master
	c.Impacts = d.Impacts
	c.Sheets = d.Sheets
	c.Winds = d.Winds
	c.Thunder = d.Thunder
	c.Matrix = d.Matrix
	c.Texture = d.Texture
	c.Sfx = d.Sfx
}

// ParseDocument decodes raw YAML bytes into a Document. Older schema
// versions are accepted as-is; this engine has only ever shipped version 1.
func ParseDocument(data []byte) (Document, error) {
	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("config: parsing .rain document: %w", err)
	}
	if d.Meta.SchemaVersion == 0 {
		d.Meta.SchemaVersion = CurrentSchemaVersion
	}
	return d, nil
}

// LoadDocument reads and parses a `.rain` file.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return ParseDocument(data)
}

// SaveDocument serializes d to path as YAML.
func SaveDocument(path string, d Document) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AutosaveStore is a host-provided platform key-value slot (spec.md §6:
// "An autosave slot in platform key-value storage"). The engine only
// needs Put/Get; a file-backed implementation is provided below for
// environments without a richer store.
type AutosaveStore interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, bool, error)
}

// FileAutosaveStore implements AutosaveStore by writing a single file.
type FileAutosaveStore struct {
	Path string
}

func (f FileAutosaveStore) Put(_ string, data []byte) error {
	return os.WriteFile(f.Path, data, 0o644)
}

func (f FileAutosaveStore) Get(_ string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Autosaver periodically persists the current document to an
// AutosaveStore while changes are pending, on a fixed 30s cadence per
// spec.md §6.
type Autosaver struct {
	store     AutosaveStore
	key       string
	interval  time.Duration
	dirty     bool
	lastSave  time.Time
	snapshot  func() Document
	stop      chan struct{}
	done      chan struct{}
}

// NewAutosaver constructs an autosaver. snapshot is called at save time to
// obtain the current document (so the caller controls locking).
func NewAutosaver(store AutosaveStore, key string, snapshot func() Document) *Autosaver {
	return &Autosaver{
		store:    store,
		key:      key,
		interval: 30 * time.Second,
		snapshot: snapshot,
	}
}

// MarkUnsaved flags that the live config has diverged from the last
// autosave, so the next tick of run will persist it.
func (a *Autosaver) MarkUnsaved() {
	a.dirty = true
}

// Start launches the autosave loop on its own goroutine. Stop cancels it.
func (a *Autosaver) Start() {
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	go a.run()
}

func (a *Autosaver) run() {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			if !a.dirty {
				continue
			}
			doc := a.snapshot()
			data, err := yaml.Marshal(doc)
			if err != nil {
				continue
			}
			if err := a.store.Put(a.key, data); err == nil {
				a.dirty = false
				a.lastSave = time.Now()
			}
		}
	}
}

// Stop halts the autosave goroutine and waits for it to exit.
func (a *Autosaver) Stop() {
	if a.stop == nil {
		return
	}
	close(a.stop)
	<-a.done
}
