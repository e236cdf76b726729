package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/reedharmon/pubpulse/internal/engine"
)

// WriteReport writes the sealed run result to path as indented JSON.
func WriteReport(path string, res *engine.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
