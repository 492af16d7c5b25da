package report

import (
	"encoding/xml"
	"io"
)

// ReadMatches collects every match element of a report produced by XMLWriter.
func ReadMatches(r io.Reader) ([]Match, error) {
	dec := xml.NewDecoder(r)
	var matches []Match

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "match" {
			var m Match
			if err := dec.DecodeElement(&m, &start); err != nil {
				return nil, err
			}
			matches = append(matches, m)
		}
	}
	return matches, nil
}
