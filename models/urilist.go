package models

import "encoding/json"

// URIList is an addressing field that appears on the wire as either a bare
// URI string or a list of URI strings
type URIList []string

// UnmarshalJSON accepts both the single-string and the list form
func (l *URIList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = URIList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = URIList(many)
	return nil
}

// MarshalJSON always emits the list form
func (l URIList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(l))
}

// Contains reports whether uri is in the list
func (l URIList) Contains(uri string) bool {
	for _, item := range l {
		if item == uri {
			return true
		}
	}
	return false
}
