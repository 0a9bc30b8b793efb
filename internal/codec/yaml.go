package codec

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bryan-cox/tasktrack/internal/model"
)

// taskDocument is the top-level structure of a YAML export.
type taskDocument struct {
	Tasks []model.Task `yaml:"tasks"`
}

// EncodeYAML renders tasks as a YAML document, preserving their order.
func EncodeYAML(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(taskDocument{Tasks: tasks}); err != nil {
		return nil, fmt.Errorf("could not encode tasks as YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("could not encode tasks as YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeYAML parses a document produced by EncodeYAML. Completion values are normalised the
// same way the text format does it.
func DecodeYAML(data []byte) ([]model.Task, error) {
	var doc taskDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse YAML: %w", err)
	}

	for i := range doc.Tasks {
		completion, err := model.ParseCompletion(string(doc.Tasks[i].Completion))
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		doc.Tasks[i].Completion = completion
	}
	return doc.Tasks, nil
}
