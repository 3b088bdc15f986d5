// Package config loads target, call layout and native table settings from
// YAML. Values missing from a file fall back to the embedded defaults.
package config

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"nativeDbg/native"
)

const DefaultFilename = "nativedbg.yaml"

//go:embed default.yaml
var defaultYAML []byte

type Config struct {
	Version      int               `yaml:"version"`
	Target       Target            `yaml:"target"`
	Layout       Layout            `yaml:"layout"`
	TableSize    int               `yaml:"tableSize,omitempty"`
	DefaultBuild string            `yaml:"defaultBuild,omitempty"`
	Builds       map[string]uint32 `yaml:"builds,omitempty"`
}

type Target struct {
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	ByteOrder string    `yaml:"byteOrder,omitempty"`
	Registers Registers `yaml:"registers"`
}

// Registers names the GDB register numbers used to run a remote call.
type Registers struct {
	Size int `yaml:"size,omitempty"`
	PC   int `yaml:"pc"`
	LR   int `yaml:"lr"`
	Arg0 int `yaml:"arg0"`
}

type Layout struct {
	ReturnPointer   uint32 `yaml:"returnPointer"`
	ArgumentCount   uint32 `yaml:"argumentCount"`
	ArgumentPointer uint32 `yaml:"argumentPointer"`
	ReturnArray     uint32 `yaml:"returnArray"`
	ArgumentArray   uint32 `yaml:"argumentArray"`
	StringBase      uint32 `yaml:"stringBase"`
	StringStride    uint32 `yaml:"stringStride,omitempty"`
	StringClear     uint32 `yaml:"stringClear,omitempty"`
}

func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse embedded defaults: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Load reads path over the embedded defaults. Keys absent from the file keep
// their default values; a builds map in the file is merged into the default
// one.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	return cfg.merge(data, path)
}

func Parse(data []byte) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}
	return cfg.merge(data, "config")
}

func (c Config) merge(data []byte, name string) (Config, error) {
	builds := c.Builds
	c.Builds = nil
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", name, err)
	}
	for k, v := range c.Builds {
		builds[k] = v
	}
	c.Builds = builds
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return c, nil
}

func (c *Config) normalize() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.TableSize <= 0 {
		c.TableSize = native.DefaultTableSize
	}
	if c.Target.ByteOrder == "" {
		c.Target.ByteOrder = "big"
	}
	if c.Target.Registers.Size == 0 {
		c.Target.Registers.Size = 4
	}
	if c.Layout.StringStride == 0 {
		c.Layout.StringStride = native.DefaultLayout.StringStride
	}
	if c.Builds == nil {
		c.Builds = make(map[string]uint32)
	}
}

func (c Config) Validate() error {
	if _, err := c.Order(); err != nil {
		return err
	}
	switch c.Target.Registers.Size {
	case 4, 8:
	default:
		return fmt.Errorf("register size %d not supported", c.Target.Registers.Size)
	}
	if c.DefaultBuild != "" {
		if _, ok := c.Builds[c.DefaultBuild]; !ok {
			return fmt.Errorf("default build %q has no table address", c.DefaultBuild)
		}
	}
	return nil
}

func (c Config) Order() (binary.ByteOrder, error) {
	switch strings.ToLower(c.Target.ByteOrder) {
	case "big", "be":
		return binary.BigEndian, nil
	case "little", "le":
		return binary.LittleEndian, nil
	}
	return nil, fmt.Errorf("unknown byte order %q", c.Target.ByteOrder)
}

func (c Config) NativeLayout() native.Layout {
	return native.Layout{
		ReturnPointer:   c.Layout.ReturnPointer,
		ArgumentCount:   c.Layout.ArgumentCount,
		ArgumentPointer: c.Layout.ArgumentPointer,
		ReturnArray:     c.Layout.ReturnArray,
		ArgumentArray:   c.Layout.ArgumentArray,
		StringBase:      c.Layout.StringBase,
		StringStride:    c.Layout.StringStride,
		StringClear:     c.Layout.StringClear,
	}
}

// TableBase returns the native table address for a build name, matched
// case-insensitively. An empty name selects DefaultBuild.
func (c Config) TableBase(build string) (uint32, error) {
	if build == "" {
		build = c.DefaultBuild
	}
	for name, base := range c.Builds {
		if strings.EqualFold(name, build) {
			return base, nil
		}
	}
	return 0, fmt.Errorf("unknown build %q", build)
}

func (c Config) BuildNames() []string {
	names := make([]string, 0, len(c.Builds))
	for name := range c.Builds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
