package detector

import "fmt"

// MalformedInputError reports a landmark set that does not conform to the
// face mesh or hand topology.
type MalformedInputError struct {
	Set    string // "face" or "hand[i]"
	Index  int    // offending landmark index, -1 when the whole set is wrong
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed %s landmarks: %s", e.Set, e.Reason)
	}
	return fmt.Sprintf("malformed %s landmark %d: %s", e.Set, e.Index, e.Reason)
}
