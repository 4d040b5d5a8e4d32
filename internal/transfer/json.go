package transfer

import (
	"encoding/json"
	"io"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
)

func EncodeJSON(w io.Writer, b Bank) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// DecodeJSON reads a bank. A bare {"questions": [...]} document is accepted.
func DecodeJSON(r io.Reader) (Bank, error) {
	var b Bank
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Bank{}, apperr.Wrap(apperr.InvalidArgument, "invalid import data", err)
	}
	if b.Questions == nil {
		return Bank{}, apperr.New(apperr.InvalidArgument, "invalid import data: questions must be an array")
	}
	return b, nil
}
