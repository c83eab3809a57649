package surface

import (
	"encoding/json"
	"io"

	"github.com/trialscope/trialscope/pkg/dashboard"
)

// JSONRenderer marshals the model to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, model *dashboard.Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(model)
}
