package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// WriteSSE serializes one event as a server-sent-events data frame
// (`data: <JSON>\n\n`) and flushes it so the client sees each event as
// soon as it is produced.
func WriteSSE(w *bufio.Writer, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return w.Flush()
}
