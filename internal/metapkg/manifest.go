package metapkg

import (
	"fmt"
	"strings"

	"github.com/titanous/json5"
)

// Manifest is a parsed meta_package.json5 document.
type Manifest struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"`
	Version   string   `json:"version"`
	Depends   []string `json:"depends"`

	// Raw dds-to-cmake library specifiers; parsed into Libs by finish.
	LibSpecs []string `json:"libs"`
	Libs     []Lib    `json:"-"`

	MetaDDS MetaSection `json:"meta_dds"`
}

// MetaSection is the `meta_dds' block of the manifest.
type MetaSection struct {
	Depends     []Dependency `json:"depends"`
	TestDepends []Dependency `json:"test_depends"`
}

func (m *Manifest) finish() error {
	for _, spec := range m.LibSpecs {
		lib, err := ParseLib(m.Name, spec)
		if err != nil {
			return err
		}
		m.Libs = append(m.Libs, lib)
	}
	return nil
}

// Dependency is one entry of meta_dds.depends: either a shorthand string
// ("freetype@2.11.0: freetype::freetype") or an object with explicit
// fields.
type Dependency struct {
	Name          string
	PkgName       string // find_package(<PkgName>)
	Version       string
	Libs          []Lib
	Configuration map[string]string
}

func (d *Dependency) UnmarshalJSON(data []byte) error {
	var shorthand string
	if err := json5.Unmarshal(data, &shorthand); err == nil {
		return d.parseShorthand(shorthand)
	}

	var obj struct {
		Name          string            `json:"name"`
		PkgName       string            `json:"pkg_name"`
		Libs          []string          `json:"libs"`
		Configuration map[string]string `json:"configuration"`
	}
	if err := json5.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Name == "" {
		return fmt.Errorf("dependency object requires a `name' field")
	}
	if err := d.parseID(obj.Name); err != nil {
		return err
	}
	if obj.PkgName != "" {
		d.PkgName = obj.PkgName
	}
	d.Configuration = obj.Configuration
	for _, spec := range obj.Libs {
		lib, err := ParseLib(d.Name, spec)
		if err != nil {
			return err
		}
		d.Libs = append(d.Libs, lib)
	}
	return nil
}

// parseShorthand handles "name@version: lib1, lib2".
func (d *Dependency) parseShorthand(s string) error {
	id, libSpec, ok := strings.Cut(s, ": ")
	if !ok {
		return fmt.Errorf("bad dependency shorthand (want `name@version: libs...'): %q", s)
	}
	if err := d.parseID(id); err != nil {
		return err
	}
	for _, spec := range strings.Split(libSpec, ",") {
		lib, err := ParseLib(d.Name, strings.TrimSpace(spec))
		if err != nil {
			return err
		}
		d.Libs = append(d.Libs, lib)
	}
	return nil
}

func (d *Dependency) parseID(id string) error {
	name, version, ok := strings.Cut(id, "@")
	if !ok {
		return fmt.Errorf("dependency %q is missing an `@version'", id)
	}
	if name != strings.ToLower(name) {
		return fmt.Errorf("dependency name must be lowercase: %q", name)
	}
	d.Name = name
	d.PkgName = name
	d.Version = version
	return nil
}
