package report

import (
	"encoding/json"
	"io"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

// WriteJSON encodes the whole aggregate with the manager URL masked.
func WriteJSON(w io.Writer, data *model.ZertoData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data.Redacted())
}
