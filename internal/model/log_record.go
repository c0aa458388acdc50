package model

// LogRecord is a pool event encoded as an Ethereum-style log. Sequence orders
// records emitted by one pool.
type LogRecord struct {
	Sequence   uint64   `json:"sequence"`
	Address    string   `json:"address"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	RecordedAt string   `json:"recorded_at"`
}

// Topic0 returns the event signature topic, or "" when topics are missing.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}
