package serialize

import (
	"encoding/json"
	"fmt"
)

// Validate re-parses an emitted document as an advisory correctness check.
// A failure is reported to the caller for logging; the already-written
// output is left in place, since partial output is still more useful than
// none for this extraction use case.
func Validate(document []byte) error {
	var v any
	if err := json.Unmarshal(document, &v); err != nil {
		return fmt.Errorf("document does not re-parse: %w", err)
	}
	return nil
}
