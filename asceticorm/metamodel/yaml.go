package metamodel

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type document struct {
	Entities []EntityDef `yaml:"entities"`
}

// LoadYAML decodes entity definitions from a document of the form
//
//	entities:
//	  - name: Department
//	    id: id
//	    attributes:
//	      - {name: id, type: int64}
//	      - {name: employees, kind: one-to-many, target: Employee, opposite: department}
func LoadYAML(r io.Reader) ([]EntityDef, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "metamodel: decoding yaml")
	}
	return doc.Entities, nil
}

func LoadYAMLFile(path string) (*Metamodel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "metamodel: opening %s", path)
	}
	defer f.Close()
	defs, err := LoadYAML(f)
	if err != nil {
		return nil, err
	}
	return NewRegistry().Register(defs...).Build()
}
