package modules

// Plugin discovery.  A plugin is described by a TOML descriptor file
// in the plugin directory:
//
//	name = "waveout"
//	description = "Wave audio output"
//
//	[capabilities]
//	"audio output" = 50
//
//	[[options]]
//	name = "waveout-gain"
//	type = "float"
//	default = 1.0
//	text = "Output gain"

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/schokhani1999/vlc/config"
)

// cacheFile is the discovery cache inside the plugin directory,
// deleted when a cache reset was requested.
const cacheFile = "plugins.cache"

type pluginDescriptor struct {
	Name         string             `toml:"name"`
	Description  string             `toml:"description"`
	Capabilities map[string]int     `toml:"capabilities"`
	Options      []pluginOptionDesc `toml:"options"`
}

type pluginOptionDesc struct {
	Name    string      `toml:"name"`
	Type    string      `toml:"type"`
	Default interface{} `toml:"default"`
	Text    string      `toml:"text"`
}

// LoadPlugins scans dir for *.toml plugin descriptors and registers
// each one.  A missing directory is not an error — a fresh install has
// no plugins.  Honors the cache-delete flag by removing the discovery
// cache first.
func (b *Bank) LoadPlugins(dir string) error {
	if dir == "" {
		return nil
	}

	if b.CacheDelete() {
		// Ignore removal errors: the cache may simply not exist.
		os.Remove(filepath.Join(dir, cacheFile))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			b.markLoaded()
			return nil
		}
		return fmt.Errorf("plugin dir %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		m, err := loadDescriptor(path)
		if err != nil {
			return fmt.Errorf("plugin %s: %w", path, err)
		}
		if err := b.add(m); err != nil {
			return fmt.Errorf("plugin %s: %w", path, err)
		}
	}
	b.markLoaded()
	return nil
}

func (b *Bank) markLoaded() {
	b.mu.Lock()
	b.loaded = true
	b.mu.Unlock()
}

// Loaded reports whether discovery has completed since the last Init.
func (b *Bank) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

func loadDescriptor(path string) (*Module, error) {
	var desc pluginDescriptor
	if _, err := toml.DecodeFile(path, &desc); err != nil {
		return nil, err
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("descriptor missing module name")
	}

	m := &Module{
		Name:         desc.Name,
		Description:  desc.Description,
		Capabilities: desc.Capabilities,
	}
	for _, od := range desc.Options {
		it, err := descriptorOption(od)
		if err != nil {
			return nil, err
		}
		m.Options = append(m.Options, it)
	}
	return m, nil
}

func descriptorOption(od pluginOptionDesc) (config.Item, error) {
	typ, err := config.ParseType(od.Type)
	if err != nil {
		return config.Item{}, fmt.Errorf("option %s: %w", od.Name, err)
	}
	it := config.Item{Name: od.Name, Type: typ, Text: od.Text}

	switch typ {
	case config.TypeBool:
		if b, ok := od.Default.(bool); ok {
			it.DefBool = b
		}
	case config.TypeInt:
		if i, ok := od.Default.(int64); ok {
			it.DefInt = i
		}
	case config.TypeFloat:
		switch n := od.Default.(type) {
		case float64:
			it.DefFloat = n
		case int64:
			it.DefFloat = float64(n)
		}
	default:
		if s, ok := od.Default.(string); ok {
			it.DefString = s
		}
	}
	return it, nil
}
