package engine

import "encoding/json"

// ToJSON serializes the snapshot as an indented document suitable for
// human-inspectable backups.
func (s StoreSnapshot) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// SnapshotFromJSON parses a previously exported snapshot.
func SnapshotFromJSON(data []byte) (StoreSnapshot, error) {
	var s StoreSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return StoreSnapshot{}, err
	}
	return s, nil
}
